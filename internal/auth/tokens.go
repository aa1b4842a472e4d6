package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/safar/go-storefront/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Tokens issues bearer credentials for a user id and resolves them back.
type Tokens interface {
	Issue(userID int64) (string, error)
	Parse(token string) (int64, error)
}

// NewTokens picks the implementation selected by cfg.TokenMode.
func NewTokens(cfg config.AuthConfig) (Tokens, error) {
	switch cfg.TokenMode {
	case config.TokenModeLegacy, "":
		return LegacyTokens{}, nil
	case config.TokenModeJWT:
		return NewJWTTokens([]byte(cfg.JWTSecret), cfg.JWTTTL)
	default:
		return nil, fmt.Errorf("unknown token mode %q", cfg.TokenMode)
	}
}

const legacyPrefix = "token-"

// LegacyTokens are the unsigned "token-<userId>" strings existing clients
// already hold. They identify a user but prove nothing.
type LegacyTokens struct{}

func (LegacyTokens) Issue(userID int64) (string, error) {
	return legacyPrefix + strconv.FormatInt(userID, 10), nil
}

func (LegacyTokens) Parse(token string) (int64, error) {
	if !strings.HasPrefix(token, legacyPrefix) {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(token, legacyPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// JWTTokens are HS256-signed tokens whose subject is the user id.
type JWTTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTTokens(secret []byte, ttl time.Duration) (*JWTTokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTTokens{secret: secret, ttl: ttl, now: time.Now}, nil
}

func (j *JWTTokens) Issue(userID int64) (string, error) {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (j *JWTTokens) Parse(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
