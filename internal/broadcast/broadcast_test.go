package broadcast

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/notify"
	"go.uber.org/zap/zaptest"
)

type recordingNotifier struct {
	mu     sync.Mutex
	sent   []notify.Notification
	failTo map[string]bool
	panics map[string]bool
}

func (r *recordingNotifier) Send(ctx context.Context, n notify.Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	fail, boom := r.failTo[n.Phone], r.panics[n.Phone]
	r.mu.Unlock()

	if boom {
		panic("provider exploded")
	}
	if fail {
		return errors.New("provider rejected number")
	}
	return nil
}

func (r *recordingNotifier) phones() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Phone)
	}
	sort.Strings(out)
	return out
}

type staticMembers map[uuid.UUID][]models.User

func (s staticMembers) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error) {
	return s[groupID], nil
}

type failingMembers struct{}

func (failingMembers) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error) {
	return nil, errors.New("db down")
}

func phone(p string) *string { return &p }

func TestBroadcasterFansOutToPhoneBearingMembers(t *testing.T) {
	logger := zaptest.NewLogger(t)
	groupID := uuid.New()
	members := staticMembers{
		groupID: {
			{ID: uuid.New(), Name: "A", Phone: phone("+966500000001")},
			{ID: uuid.New(), Name: "B", Phone: phone("+966500000002")},
			{ID: uuid.New(), Name: "C"},
			{ID: uuid.New(), Name: "D", Phone: phone("")},
		},
		uuid.New(): {
			{ID: uuid.New(), Name: "elsewhere", Phone: phone("+10000000000")},
		},
	}
	notifier := &recordingNotifier{}
	b := New(members, NewMemoryQueue(2, 8, logger), notifier, logger)
	b.Start()

	b.Announce(groupID, "Bus at 5pm")
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := notifier.phones()
	want := []string{"+966500000001", "+966500000002"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("sent to %v, want %v", got, want)
	}
	for _, n := range notifier.sent {
		if n.Message != "[ANNOUNCEMENT] Bus at 5pm" {
			t.Fatalf("message = %q", n.Message)
		}
	}
}

func TestBroadcasterIsolatesFailures(t *testing.T) {
	logger := zaptest.NewLogger(t)
	groupID := uuid.New()
	members := staticMembers{groupID: {
		{Name: "fails", Phone: phone("111")},
		{Name: "panics", Phone: phone("222")},
		{Name: "ok", Phone: phone("333")},
	}}
	notifier := &recordingNotifier{
		failTo: map[string]bool{"111": true},
		panics: map[string]bool{"222": true},
	}
	b := New(members, NewMemoryQueue(1, 8, logger), notifier, logger)
	b.Start()

	b.Announce(groupID, "x")
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := notifier.phones(); len(got) != 3 {
		t.Fatalf("attempts = %v, want all three", got)
	}
}

func TestBroadcasterAnnounceDoesNotBlock(t *testing.T) {
	logger := zaptest.NewLogger(t)
	groupID := uuid.New()
	members := staticMembers{groupID: {{Name: "slow", Phone: phone("999")}}}

	release := make(chan struct{})
	var delivered atomic.Int32
	blocking := notifierFunc(func(ctx context.Context, n notify.Notification) error {
		<-release
		delivered.Add(1)
		return nil
	})
	b := New(members, NewMemoryQueue(1, 1, logger), blocking, logger)
	b.Start()

	done := make(chan struct{})
	go func() {
		b.Announce(groupID, "x")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Announce blocked on delivery")
	}

	close(release)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if delivered.Load() != 1 {
		t.Fatalf("delivered = %d, want 1", delivered.Load())
	}
}

func TestBroadcasterRecipientLookupFailure(t *testing.T) {
	logger := zaptest.NewLogger(t)
	notifier := &recordingNotifier{}
	b := New(failingMembers{}, NewMemoryQueue(1, 1, logger), notifier, logger)
	b.Start()

	if n := b.fanOut(context.Background(), uuid.New(), "x"); n != 0 {
		t.Fatalf("queued = %d, want 0", n)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(notifier.phones()) != 0 {
		t.Fatalf("notifier called after lookup failure")
	}
}

type notifierFunc func(ctx context.Context, n notify.Notification) error

func (f notifierFunc) Send(ctx context.Context, n notify.Notification) error { return f(ctx, n) }
