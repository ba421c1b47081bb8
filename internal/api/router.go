package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pilgrimlink/internal/middleware"
	"github.com/lalith-99/pilgrimlink/internal/repository"
	"github.com/lalith-99/pilgrimlink/internal/service"
	"go.uber.org/zap"
)

// RouterConfig carries everything NewRouter wires into the engine.
type RouterConfig struct {
	Service      *service.Service
	Users        repository.UserRepository
	Health       repository.Pinger
	JWTSecret    string
	TokenTTL     time.Duration
	PollInterval time.Duration

	CORSOrigins []string
	SSLRedirect bool
	Development bool

	// UploadDir, when set, is served at /uploads for the local blob store.
	UploadDir string

	Logger *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(
		middleware.RequestLogger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
		middleware.SecureHeaders(cfg.SSLRedirect, cfg.Development, cfg.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir)
	}

	// Health is public so load balancers can probe it.
	r.GET("/v1/health", healthHandler(cfg.Health))

	authH := NewAuthHandler(cfg.Users, cfg.JWTSecret, cfg.TokenTTL, cfg.Logger)
	r.POST("/v1/auth/register", authH.Register)
	r.POST("/v1/auth/login", authH.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	userH := NewUserHandler(cfg.Service, cfg.Logger)
	v1.GET("/users/me", userH.Me)
	v1.POST("/role", userH.AssignRole)

	groupH := NewGroupHandler(cfg.Service, cfg.PollInterval, cfg.Logger)
	v1.POST("/groups", groupH.Create)
	v1.GET("/groups", groupH.List)
	v1.GET("/groups/mine", groupH.List)
	v1.POST("/groups/join", groupH.Join)
	v1.POST("/groups/open", groupH.Open)
	v1.GET("/groups/current", groupH.Current)

	msgH := NewMessageHandler(cfg.Service, cfg.Logger)
	v1.POST("/messages", msgH.SendText)
	v1.POST("/messages/image", msgH.SendImage)
	v1.POST("/messages/announcement", msgH.SendAnnouncement)

	return r
}

func healthHandler(p repository.Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := p.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
