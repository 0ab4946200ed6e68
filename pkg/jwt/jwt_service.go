package jwt

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Zimnyaja/foodgram/domain"
	"github.com/Zimnyaja/foodgram/internal/utils"
)

type (
	JWTService interface {
		GenerateTokenUser(userID int64) string
		ValidateTokenUser(token string) (*jwt.Token, error)
		GetUserIDByToken(token string) (int64, error)
		GenerateTokenResetPassword(userID int64, duration time.Duration) (string, error)
		ValidateTokenResetPassword(token string) (int64, error)
	}

	jwtUserClaim struct {
		UserID string `json:"user_id"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
	}
)

func NewJWTService() JWTService {
	return &jwtService{
		secretKey: utils.GetConfig("JWT_SECRET"),
		issuer:    "FOODGRAM",
	}
}

func (j *jwtService) GenerateTokenUser(userID int64) string {
	claims := jwtUserClaim{
		strconv.FormatInt(userID, 10),
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tx, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		log.Println(err)
	}
	return tx
}

func (j *jwtService) parseToken(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateTokenUser(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &jwtUserClaim{}, j.parseToken)
}

func (j *jwtService) GetUserIDByToken(token string) (int64, error) {
	parsed, err := j.ValidateTokenUser(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, domain.ErrTokenExpired
		}
		return 0, domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return 0, domain.ErrTokenInvalid
	}

	claims := parsed.Claims.(*jwtUserClaim)
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return 0, domain.ErrTokenInvalid
	}
	return id, nil
}

func (j *jwtService) GenerateTokenResetPassword(userID int64, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"purpose": "reset_password",
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
		"iss":     j.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) ValidateTokenResetPassword(token string) (int64, error) {
	parsed, err := jwt.Parse(token, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, domain.ErrTokenExpired
		}
		return 0, domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return 0, domain.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["purpose"] != "reset_password" {
		return 0, domain.ErrTokenInvalid
	}
	rawID, _ := claims["user_id"].(string)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return 0, domain.ErrTokenInvalid
	}
	return id, nil
}
