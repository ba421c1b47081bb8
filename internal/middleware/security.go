package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// CORS allows the listed origins to call the API with a Bearer token.
// A single "*" allows any origin; credentials are then disabled, as
// browsers reject wildcard origins with credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	cfg.MaxAge = 12 * time.Hour

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// SecureHeaders sets the usual hardening headers and, when sslRedirect is
// true, redirects plain HTTP to HTTPS. Development mode skips the redirect
// and HSTS so localhost keeps working.
func SecureHeaders(sslRedirect, development bool, logger *zap.Logger) gin.HandlerFunc {
	sec := secure.New(secure.Options{
		SSLRedirect:          sslRedirect,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		IsDevelopment:        development,
	})

	return func(c *gin.Context) {
		if err := sec.Process(c.Writer, c.Request); err != nil {
			logger.Warn("secure middleware rejected request", zap.Error(err))
			c.Abort()
			return
		}
		// Process may already have written a redirect.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
