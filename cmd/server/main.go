package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pilgrimlink/internal/api"
	"github.com/lalith-99/pilgrimlink/internal/blob"
	"github.com/lalith-99/pilgrimlink/internal/broadcast"
	"github.com/lalith-99/pilgrimlink/internal/config"
	"github.com/lalith-99/pilgrimlink/internal/db"
	"github.com/lalith-99/pilgrimlink/internal/notify"
	"github.com/lalith-99/pilgrimlink/internal/observ"
	"github.com/lalith-99/pilgrimlink/internal/repository"
	"github.com/lalith-99/pilgrimlink/internal/repository/memory"
	"github.com/lalith-99/pilgrimlink/internal/repository/postgres"
	"github.com/lalith-99/pilgrimlink/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the three repositories and the health probe for one backend.
type stores struct {
	users    repository.UserRepository
	groups   repository.GroupRepository
	messages repository.MessageRepository
	health   repository.Pinger
	close    func()
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(observ.Options{
		Env:        cfg.Env,
		Level:      cfg.LogLevel,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 3. Storage
	// ---------------------------------------------------------------
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	blobs, uploadDir, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// ---------------------------------------------------------------
	// 4. Announcement delivery: notifier <- queue <- broadcaster
	// ---------------------------------------------------------------
	notifier, err := notify.New(notify.Config{
		Provider:        cfg.SMS.Provider,
		Endpoint:        cfg.SMS.Endpoint,
		APIKey:          cfg.SMS.APIKey,
		AccessKeyID:     cfg.SMS.AccessKeyID,
		AccessKeySecret: cfg.SMS.AccessKeySecret,
		SignName:        cfg.SMS.SignName,
		TemplateCode:    cfg.SMS.TemplateCode,
	}, logger)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}

	queue, err := broadcast.NewQueue(broadcast.QueueConfig{
		Backend:      cfg.Notify.Queue,
		Workers:      cfg.Notify.Workers,
		BufferSize:   cfg.Notify.Buffer,
		RedisURL:     cfg.RedisURL,
		RedisKey:     cfg.Notify.RedisKey,
		KafkaBrokers: cfg.Notify.KafkaBrokers,
		KafkaTopic:   cfg.Notify.KafkaTopic,
		KafkaGroup:   cfg.Notify.KafkaGroup,
	}, logger)
	if err != nil {
		return fmt.Errorf("create notification queue: %w", err)
	}

	broadcaster := broadcast.New(st.users, queue, notifier, logger)
	broadcaster.Start()
	defer func() {
		if err := broadcaster.Close(); err != nil {
			logger.Warn("notification queue close", zap.Error(err))
		}
	}()

	// ---------------------------------------------------------------
	// 5. Service and HTTP server
	// ---------------------------------------------------------------
	svc := service.New(st.users, st.groups, st.messages, blobs, broadcaster, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		Service:      svc,
		Users:        st.users,
		Health:       st.health,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
		PollInterval: cfg.PollInterval,
		CORSOrigins:  cfg.CORSOrigins,
		SSLRedirect:  cfg.SSLRedirect,
		Development:  !cfg.IsProduction(),
		UploadDir:    uploadDir,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting PilgrimLink",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("store", cfg.Store),
		zap.String("notify_queue", cfg.Notify.Queue),
		zap.String("blob_backend", cfg.Blob.Backend),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		m := memory.New()
		return &stores{
			users:    m.Users(),
			groups:   m.Groups(),
			messages: m.Messages(),
			health:   m,
			close:    func() {},
		}, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	pool := database.Pool()
	return &stores{
		users:    postgres.NewUserStore(pool),
		groups:   postgres.NewGroupStore(pool),
		messages: postgres.NewMessageStore(pool),
		health:   database,
		close:    database.Close,
	}, nil
}

// openBlobStore returns the store and, for the local backend, the
// directory the router should serve.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (blob.Store, string, error) {
	if cfg.Blob.Backend == "minio" {
		store, err := blob.NewMinIOStore(ctx, blob.MinIOConfig{
			Endpoint:  cfg.Blob.MinIOEndpoint,
			AccessKey: cfg.Blob.MinIOAccessKey,
			SecretKey: cfg.Blob.MinIOSecretKey,
			Bucket:    cfg.Blob.MinIOBucket,
			UseSSL:    cfg.Blob.MinIOUseSSL,
			PublicURL: cfg.Blob.MinIOPublicURL,
		}, logger)
		if err != nil {
			return nil, "", fmt.Errorf("create minio store: %w", err)
		}
		return store, "", nil
	}

	store, err := blob.NewLocalStore(cfg.Blob.UploadDir, cfg.Blob.PublicBaseURL, logger)
	if err != nil {
		return nil, "", fmt.Errorf("create local blob store: %w", err)
	}
	return store, store.Dir(), nil
}
