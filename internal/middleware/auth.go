package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/auth"
)

// ContextKeyUserID is where AuthMiddleware stores the authenticated user id.
const ContextKeyUserID = "user_id"

// AuthMiddleware returns a Gin middleware that validates Bearer JWTs.
//
// How it fits the chain:
//   - It runs before every /v1 handler except register, login and health.
//   - A missing, malformed or expired token calls c.Abort with a 401, so
//     the handler never runs.
//   - A valid token stores the user id with c.Set and calls c.Next.
//
// Only the user id is stored. Role and current group are loaded from the
// store by the service on each call, because both change mid-session.
//
// The secret is a parameter rather than read from config so tests can
// build the middleware with any key.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(parts[1]), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// GetUserID returns the id stored by AuthMiddleware, or uuid.Nil when the
// route is not behind it. uuid.Nil never matches a user, so services
// answer it with Unauthorized.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
