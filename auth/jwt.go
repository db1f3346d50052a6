/*
Package auth handles token issuance and password hashing.

PURPOSE:
  Issues and validates HS256 JWTs carrying the actor's identity, role,
  and home base. The token is the only thing the API layer trusts: every
  request re-derives the acting user from its claims.

DESIGN DECISIONS:
  - Claims carry the role and base so authorization checks never need a
    user lookup on the hot path. Role changes take effect on re-login.
  - Random JTI per token so individual tokens are distinguishable in logs.

SEE ALSO:
  - api/middleware.go: Bearer extraction and request authorization
  - inventory/types.go: Role and UserID definitions
*/
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

// TokenExpiry is the default token lifetime.
const TokenExpiry = 24 * time.Hour

// Claims is the JWT payload for an authenticated user.
type Claims struct {
	UserID   inventory.UserID `json:"user_id"`
	Username string           `json:"username"`
	Role     inventory.Role   `json:"role"`
	BaseID   string           `json:"base_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed JWT for the given user.
func GenerateToken(secret string, u inventory.User) (string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}

	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if u.BaseID != nil {
		claims.BaseID = string(*u.BaseID)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a JWT, returning its claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// User reconstructs the acting user from validated claims.
func (c *Claims) User() inventory.User {
	u := inventory.User{
		ID:       c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
	if c.BaseID != "" {
		id := inventory.BaseID(c.BaseID)
		u.BaseID = &id
	}
	return u
}

func generateJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
