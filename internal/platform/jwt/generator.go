package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is written to the "iss" claim of every generated token.
const Issuer = "calorievisor"

// Generator signs HS256 bearer tokens accepted by AuthRequired.
type Generator struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a new JWT generator with the provided secret and expiration duration.
func NewGenerator(secret string, expiration time.Duration) *Generator {
	return &Generator{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// GenerateToken creates a signed JWT token for the given user.
// The email claim is omitted when empty.
func (g *Generator) GenerateToken(userID uint, email string) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user id must be positive")
	}
	now := g.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": Issuer,
		"exp": now.Add(g.expiration).Unix(),
		"iat": now.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
