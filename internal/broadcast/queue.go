package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lalith-99/pilgrimlink/internal/notify"
	"go.uber.org/zap"
)

// Handler processes one dequeued notification. Errors are the handler's
// own business; queues never retry.
type Handler func(ctx context.Context, n notify.Notification)

// Queue carries notification jobs from the fan-out to delivery workers.
type Queue interface {
	Enqueue(ctx context.Context, n notify.Notification) error
	// Start begins consuming in the background. Call it once.
	Start(h Handler)
	// Close stops consuming and waits for running handlers to return.
	Close() error
}

var ErrQueueClosed = errors.New("notification queue closed")

const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
	QueueKafka  = "kafka"
)

// handleSafely runs h and turns a panic into a log line so one bad job
// never takes a worker down.
func handleSafely(ctx context.Context, logger *zap.Logger, h Handler, n notify.Notification) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification handler panic",
				zap.Any("recover", r),
				zap.String("phone", notify.MaskPhone(n.Phone)),
			)
		}
	}()
	h(ctx, n)
}

// QueueConfig selects and sizes a queue backend.
type QueueConfig struct {
	Backend string

	Workers    int
	BufferSize int

	RedisURL string
	RedisKey string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
}

// NewQueue builds the configured backend.
func NewQueue(cfg QueueConfig, logger *zap.Logger) (Queue, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", QueueMemory:
		return NewMemoryQueue(cfg.Workers, cfg.BufferSize, logger), nil
	case QueueRedis:
		return NewRedisQueue(cfg.RedisURL, cfg.RedisKey, cfg.Workers, logger)
	case QueueKafka:
		return NewKafkaQueue(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, logger)
	default:
		return nil, fmt.Errorf("unknown notification queue %q", cfg.Backend)
	}
}
