// Package broadcast fans guide announcements out to group members'
// phones. The fan-out runs in the background; each recipient is a
// separate queue job with its own failure domain.
package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/notify"
	"go.uber.org/zap"
)

// AnnouncementPrefix is prepended to every announcement notification.
const AnnouncementPrefix = "[ANNOUNCEMENT] "

// MemberLister resolves a group's members. repository.UserRepository
// satisfies it.
type MemberLister interface {
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error)
}

type Broadcaster struct {
	members  MemberLister
	queue    Queue
	notifier notify.Notifier
	logger   *zap.Logger

	resolveTimeout time.Duration
	sendTimeout    time.Duration

	inflight sync.WaitGroup
}

func New(members MemberLister, queue Queue, notifier notify.Notifier, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		members:        members,
		queue:          queue,
		notifier:       notifier,
		logger:         logger,
		resolveTimeout: 30 * time.Second,
		sendTimeout:    15 * time.Second,
	}
}

// Start attaches the delivery handler to the queue.
func (b *Broadcaster) Start() {
	b.queue.Start(b.deliver)
}

// Announce schedules notifications for every member of groupID with a
// phone number and returns immediately. Nothing that happens after this
// call returns can reach the caller.
//
// How the fan-out is staged:
//  1. Announce starts a goroutine and returns. The announcement is already
//     in the ledger, so the HTTP response does not wait on any SMS call.
//  2. The goroutine lists members under its own timeout, since the request
//     context is cancelled once the handler returns.
//  3. Each phone-bearing member becomes its own queue job. A worker sends
//     one SMS per job, recovering panics and logging failures, so one bad
//     number or provider error never stops the other recipients.
//
// Why a queue instead of sending in the goroutine?
//   - Delivery rate is bounded by the worker count, not by how many
//     announcements arrive at once.
//   - With the Redis or Kafka queue, jobs outlive a restart of this
//     process and can be drained by another instance.
func (b *Broadcaster) Announce(groupID uuid.UUID, text string) {
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("announcement fan-out panic",
					zap.Any("recover", r),
					zap.String("group_id", groupID.String()),
				)
			}
		}()

		// The request context is gone by now; the fan-out has its own.
		ctx, cancel := context.WithTimeout(context.Background(), b.resolveTimeout)
		defer cancel()
		b.fanOut(ctx, groupID, text)
	}()
}

// fanOut enqueues one job per phone-bearing member and returns how many
// were queued.
func (b *Broadcaster) fanOut(ctx context.Context, groupID uuid.UUID, text string) int {
	members, err := b.members.ListMembers(ctx, groupID)
	if err != nil {
		b.logger.Error("announcement recipients lookup failed",
			zap.Error(err),
			zap.String("group_id", groupID.String()),
		)
		return 0
	}

	message := AnnouncementPrefix + text
	queued := 0
	for i := range members {
		m := &members[i]
		if !m.HasPhone() {
			continue
		}
		n := notify.Notification{Phone: *m.Phone, Message: message}
		if err := b.queue.Enqueue(ctx, n); err != nil {
			b.logger.Error("announcement enqueue failed",
				zap.Error(err),
				zap.String("group_id", groupID.String()),
				zap.String("phone", notify.MaskPhone(n.Phone)),
			)
			continue
		}
		queued++
	}

	b.logger.Info("announcement fan-out queued",
		zap.String("group_id", groupID.String()),
		zap.Int("members", len(members)),
		zap.Int("recipients", queued),
	)
	return queued
}

// deliver is the queue handler: one send, logged either way, never
// propagated.
func (b *Broadcaster) deliver(ctx context.Context, n notify.Notification) {
	ctx, cancel := context.WithTimeout(ctx, b.sendTimeout)
	defer cancel()

	if err := b.notifier.Send(ctx, n); err != nil {
		b.logger.Error("announcement notification failed",
			zap.Error(err),
			zap.String("phone", notify.MaskPhone(n.Phone)),
		)
		return
	}
	b.logger.Debug("announcement notification sent", zap.String("phone", notify.MaskPhone(n.Phone)))
}

// Wait blocks until every Announce call has finished enqueueing.
func (b *Broadcaster) Wait() {
	b.inflight.Wait()
}

// Close waits for pending fan-outs, then drains and stops the queue.
func (b *Broadcaster) Close() error {
	b.Wait()
	return b.queue.Close()
}
