package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerClaims is what the HTTP layer needs from a verified token.
type BearerClaims struct {
	SubjectID string
	Role      string
}

type tribunalJWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// BearerVerifier validates HS256 bearer tokens. With an empty secret the
// verifier runs in opaque mode: the raw token is taken as the subject id,
// which keeps local development and tests free of token minting.
type BearerVerifier struct {
	secret []byte
}

func NewBearerVerifier(secret string) *BearerVerifier {
	if strings.TrimSpace(secret) == "" {
		return &BearerVerifier{}
	}
	return &BearerVerifier{secret: []byte(secret)}
}

func (v *BearerVerifier) Verify(raw string) (BearerClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BearerClaims{}, errors.New("empty bearer token")
	}
	if len(v.secret) == 0 {
		return BearerClaims{SubjectID: raw}, nil
	}
	parsed, err := jwt.ParseWithClaims(raw, &tribunalJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return BearerClaims{}, err
	}
	claims, ok := parsed.Claims.(*tribunalJWTClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return BearerClaims{}, errors.New("invalid token claims")
	}
	return BearerClaims{SubjectID: claims.Subject, Role: claims.Role}, nil
}

// MintToken signs a short-lived HS256 token for the given subject. Used by
// tests and local tooling; production tokens come from the auth service.
func (v *BearerVerifier) MintToken(subjectID, role string, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return subjectID, nil
	}
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tribunalJWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
