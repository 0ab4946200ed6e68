package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrNotDataURI = errors.New("not a base64 image data URI")

// ParseBase64Image decodes an embedded image of the form
// "data:image/<ext>;base64,<payload>" and returns the raw bytes and the
// extension. Anything else yields ErrNotDataURI so callers can treat the
// value as a reference to an already stored asset.
func ParseBase64Image(data string) ([]byte, string, error) {
	if !strings.HasPrefix(data, "data:image/") {
		return nil, "", ErrNotDataURI
	}

	format, payload, found := strings.Cut(data, ";base64,")
	if !found {
		return nil, "", ErrNotDataURI
	}
	ext := strings.TrimPrefix(format, "data:image/")
	if ext == "" {
		return nil, "", ErrNotDataURI
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return raw, ext, nil
}

// NewImageObjectName returns a unique object name for an uploaded image.
func NewImageObjectName(ext string) string {
	return fmt.Sprintf("%s.%s", uuid.New().String(), ext)
}
