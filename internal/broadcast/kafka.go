package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lalith-99/pilgrimlink/internal/notify"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaQueue publishes jobs to a topic and consumes them in a consumer
// group, keyed by phone so one recipient's messages stay in order.
type KafkaQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
	logger *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewKafkaQueue(brokers []string, topic, group string, logger *zap.Logger) (*KafkaQueue, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka queue needs brokers and a topic")
	}
	if group == "" {
		group = "pilgrimlink-notify"
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        group,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &KafkaQueue{writer: writer, reader: reader, logger: logger}, nil
}

func (q *KafkaQueue) Enqueue(ctx context.Context, n notify.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.Phone),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (q *KafkaQueue) Start(h Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			msg, err := q.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				q.logger.Error("kafka fetch failed", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}

			var n notify.Notification
			if err := json.Unmarshal(msg.Value, &n); err != nil {
				q.logger.Error("discarding malformed notification job", zap.Error(err))
			} else {
				handleSafely(context.Background(), q.logger, h, n)
			}

			// Committed after handling, so a crash mid-job redelivers it.
			if err := q.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				q.logger.Error("kafka commit failed", zap.Error(err))
			}
		}
	}()
	q.logger.Info("kafka notification consumer started", zap.String("topic", q.writer.Topic))
}

func (q *KafkaQueue) Close() error {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()

	var errs []error
	if err := q.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka reader: %w", err))
	}
	if err := q.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
	}
	return errors.Join(errs...)
}
