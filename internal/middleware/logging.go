package middleware

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request through zap,
// replacing gin's default text logger.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if id := GetUserID(c); id != uuid.Nil {
			fields = append(fields, zap.String("user_id", id.String()))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("errors", errs))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		default:
			logger.Info("http request", fields...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it with the stack.
// A client that hung up (broken pipe) gets no response, just a log line.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("error", rec),
				zap.String("request", dumpRequest(c.Request)),
			}

			if err, ok := rec.(error); ok && isBrokenPipe(err) {
				logger.Warn("client connection closed", append(fields, zap.String("path", c.Request.URL.Path))...)
				_ = c.Error(err)
				c.Abort()
				return
			}

			logger.Error("recovered from panic", append(fields, zap.String("stack", string(debug.Stack())))...)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}()
		c.Next()
	}
}

// dumpRequest renders the request line and headers for a panic log with
// credentials removed. The headers are cloned, so the live request is
// left alone.
func dumpRequest(r *http.Request) string {
	clone := r.Clone(r.Context())
	for _, h := range redactedHeaders {
		if clone.Header.Get(h) != "" {
			clone.Header.Set(h, "[redacted]")
		}
	}
	dump, _ := httputil.DumpRequest(clone, false)
	return string(dump)
}

var redactedHeaders = []string{"Authorization", "Cookie"}

func isBrokenPipe(err error) bool {
	var ne *net.OpError
	if !errors.As(err, &ne) {
		return false
	}
	var se *os.SyscallError
	if errors.As(ne.Err, &se) {
		msg := strings.ToLower(se.Error())
		return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
	}
	return false
}
