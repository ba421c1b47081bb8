package broadcast

import (
	"context"
	"sync"

	"github.com/lalith-99/pilgrimlink/internal/notify"
	"go.uber.org/zap"
)

// MemoryQueue is a buffered channel drained by a fixed worker pool.
// Jobs still buffered at Close are delivered before Close returns; jobs in
// a process that exits without Close are lost.
type MemoryQueue struct {
	jobs    chan notify.Notification
	workers int
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemoryQueue(workers, bufferSize int, logger *zap.Logger) *MemoryQueue {
	if workers <= 0 {
		workers = 4
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &MemoryQueue{
		jobs:    make(chan notify.Notification, bufferSize),
		workers: workers,
		logger:  logger,
	}
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *MemoryQueue) Enqueue(ctx context.Context, n notify.Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Start(h Handler) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for n := range q.jobs {
				handleSafely(context.Background(), q.logger, h, n)
			}
		}()
	}
	q.logger.Info("notification workers started", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.jobs)))
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
