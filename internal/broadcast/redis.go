package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lalith-99/pilgrimlink/internal/notify"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisQueue keeps jobs in a Redis list (LPUSH in, BRPOP out), so pending
// notifications survive a restart and several server instances can share
// the delivery work.
type RedisQueue struct {
	client  *redis.Client
	key     string
	workers int
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

const redisPopTimeout = 2 * time.Second

func NewRedisQueue(redisURL, key string, workers int, logger *zap.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisQueueWithClient(client, key, workers, logger), nil
}

func NewRedisQueueWithClient(client *redis.Client, key string, workers int, logger *zap.Logger) *RedisQueue {
	if key == "" {
		key = "pilgrimlink:notifications"
	}
	if workers <= 0 {
		workers = 2
	}
	return &RedisQueue{client: client, key: key, workers: workers, logger: logger}
}

func (q *RedisQueue) Enqueue(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("lpush job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Start(h Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.consume(ctx, h)
		}()
	}
	q.logger.Info("redis notification workers started", zap.String("key", q.key), zap.Int("workers", q.workers))
}

func (q *RedisQueue) consume(ctx context.Context, h Handler) {
	for {
		// BRPOP returns [key, value] or redis.Nil on timeout. The short
		// timeout lets the loop notice cancellation.
		res, err := q.client.BRPop(ctx, redisPopTimeout, q.key).Result()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			q.logger.Error("redis dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(res) != 2 {
			continue
		}

		var n notify.Notification
		if err := json.Unmarshal([]byte(res[1]), &n); err != nil {
			q.logger.Error("discarding malformed notification job", zap.Error(err))
			continue
		}
		handleSafely(context.Background(), q.logger, h, n)
	}
}

func (q *RedisQueue) Close() error {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	return q.client.Close()
}
