package recipe

import (
	"encoding/base64"
	"strconv"

	"github.com/Zimnyaja/foodgram/domain"
)

// EncodeRecipeID turns a recipe id into its short-link code: the decimal
// id in url-safe base64 without padding, so "42" becomes "NDI".
func EncodeRecipeID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodeShortCode reverses EncodeRecipeID. Codes that do not decode to a
// positive decimal id are rejected as invalid.
func DecodeShortCode(code string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return 0, domain.ErrInvalidShortLink
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidShortLink
	}
	return id, nil
}
