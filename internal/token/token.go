package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JGomezGutierrez/api-rest-social-network/internal/apperr"
)

// Claims is the signed token payload. UserID and Role are the only
// identity the rest of the system sees; the account is never re-fetched
// during validation.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Identity is the actor decoded from a valid token.
type Identity struct {
	UserID string
	Role   string
}

// Service issues and validates HS256 tokens with a fixed lifetime.
type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

func (s *Service) Issue(userID, role string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
		Role:   role,
	})
	return t.SignedString(s.secret)
}

// Validate decodes the raw Authorization header value. Surrounding quote
// characters and an optional Bearer prefix are stripped before parsing.
func (s *Service) Validate(raw string) (Identity, error) {
	raw = Clean(raw)
	if raw == "" {
		return Identity{}, apperr.New(apperr.Forbidden, "the request has no authentication header")
	}

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.New(apperr.Authentication, "invalid token")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperr.New(apperr.Authentication, "the token has expired")
		}
		return Identity{}, apperr.Wrap(apperr.Authentication, "invalid token", err)
	}
	if !t.Valid || claims.UserID == "" {
		return Identity{}, apperr.New(apperr.Authentication, "invalid token")
	}

	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// Clean strips quote characters and a Bearer prefix from a raw header
// value. Some clients send the token wrapped in quotes.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = raw[7:]
	}
	raw = strings.ReplaceAll(raw, `"`, "")
	raw = strings.ReplaceAll(raw, "'", "")
	return strings.TrimSpace(raw)
}
