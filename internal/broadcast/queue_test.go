package broadcast

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lalith-99/pilgrimlink/internal/notify"
	"go.uber.org/zap/zaptest"
)

func TestMemoryQueueDrainsOnClose(t *testing.T) {
	q := NewMemoryQueue(3, 100, zaptest.NewLogger(t))
	var handled atomic.Int32
	q.Start(func(ctx context.Context, n notify.Notification) {
		time.Sleep(time.Millisecond)
		handled.Add(1)
	})

	for i := 0; i < 50; i++ {
		if err := q.Enqueue(context.Background(), notify.Notification{Phone: "1"}); err != nil {
			t.Fatalf("Enqueue #%d: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if handled.Load() != 50 {
		t.Fatalf("handled = %d, want 50", handled.Load())
	}

	if err := q.Enqueue(context.Background(), notify.Notification{}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after Close: err = %v, want ErrQueueClosed", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemoryQueueEnqueueRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1, 1, zaptest.NewLogger(t))
	// Not started, so the single buffer slot fills and stays full.
	if err := q.Enqueue(context.Background(), notify.Notification{}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, notify.Notification{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	q.Start(func(context.Context, notify.Notification) {})
	_ = q.Close()
}

func TestHandleSafelyRecovers(t *testing.T) {
	handleSafely(context.Background(), zaptest.NewLogger(t), func(context.Context, notify.Notification) {
		panic("boom")
	}, notify.Notification{Phone: "+15550001111"})
}

func TestNewQueue(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("memory is the default", func(t *testing.T) {
		q, err := NewQueue(QueueConfig{}, logger)
		if err != nil {
			t.Fatalf("NewQueue: %v", err)
		}
		if _, ok := q.(*MemoryQueue); !ok {
			t.Fatalf("got %T, want *MemoryQueue", q)
		}
		q.Start(func(context.Context, notify.Notification) {})
		_ = q.Close()
	})

	t.Run("unknown backend", func(t *testing.T) {
		if _, err := NewQueue(QueueConfig{Backend: "carrier-pigeon"}, logger); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("kafka needs brokers", func(t *testing.T) {
		if _, err := NewQueue(QueueConfig{Backend: QueueKafka, KafkaTopic: "t"}, logger); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("redis url must parse", func(t *testing.T) {
		if _, err := NewQueue(QueueConfig{Backend: QueueRedis, RedisURL: "not-a-url"}, logger); err == nil {
			t.Fatalf("expected error")
		}
	})
}
