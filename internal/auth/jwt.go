package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "pilgrimlink"

// Claims is the payload inside every JWT token.
//
// When a user registers or logs in, we issue a token carrying these fields.
// On every later request the middleware parses it back, which is how the
// server knows who is calling without a session table.
//
// Why only the user id?
//   - Role and current group change mid-session: a new user picks a role
//     after registering, and guides switch between their groups. A claim
//     would go stale the moment either changes.
//   - The service re-reads the user row on every call anyway, so nothing
//     else in the token would be trusted.
//
// Embedding jwt.RegisteredClaims gives us exp/iat/iss/sub, which the
// library validates and jwt.io understands.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 JWT for userID that expires after ttl.
//
// HS256 keeps it to one shared secret. Only this server issues and checks
// tokens; if another service ever needed to verify them without being able
// to mint them, RS256 would be the switch.
func GenerateToken(userID uuid.UUID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a JWT string and extracts the claims.
//
// It verifies:
//  1. The signature matches our secret.
//  2. The token hasn't expired.
//  3. The signing method is HMAC, so "none" and RSA tokens are rejected.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token has no user")
	}

	return claims, nil
}
