package client

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

// DefaultPollInterval is used when a Poller is created with interval <= 0.
const DefaultPollInterval = 5 * time.Second

// ErrNoCurrentGroup means the caller has no current group. Polling cannot
// help; the caller should create or join a group first.
var ErrNoCurrentGroup = errors.New("no current group")

// Snapshotter is the one call a Poller needs. *Client implements it.
type Snapshotter interface {
	CurrentGroup(ctx context.Context) (*Snapshot, error)
}

// Poller fetches the full current-group snapshot on a fixed interval.
// Each fetch is the whole state, so a missed tick loses nothing.
type Poller struct {
	src      Snapshotter
	interval time.Duration

	// OnError is called for fetch failures other than ErrNoCurrentGroup.
	// Polling continues afterwards. Nil ignores them.
	OnError func(error)
}

func NewPoller(src Snapshotter, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{src: src, interval: interval}
}

func (p *Poller) Interval() time.Duration { return p.interval }

// Run fetches immediately and then once per interval, passing each
// snapshot to fn. It returns ErrNoCurrentGroup as soon as the server
// reports no current group, ctx.Err() when ctx ends, or fn's error if fn
// fails.
func (p *Poller) Run(ctx context.Context, fn func(*Snapshot) error) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		snap, err := p.src.CurrentGroup(ctx)
		switch {
		case errors.Is(err, ErrNoCurrentGroup):
			return ErrNoCurrentGroup
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.OnError != nil {
				p.OnError(err)
			}
		default:
			if err := fn(snap); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// OnlyNew wraps fn so it sees only messages not delivered by an earlier
// snapshot. The first snapshot delivers the whole history. A switch to a
// different group also starts over.
func OnlyNew(fn func(group models.GroupSummary, fresh []models.MessageView) error) func(*Snapshot) error {
	var group uuid.UUID
	seen := make(map[int64]struct{})
	first := true

	return func(s *Snapshot) error {
		if s.Group.ID != group {
			group = s.Group.ID
			seen = make(map[int64]struct{})
			first = true
		}

		var fresh []models.MessageView
		for _, m := range s.Messages {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			fresh = append(fresh, m)
		}
		if len(fresh) == 0 && !first {
			return nil
		}
		first = false
		return fn(s.Group, fresh)
	}
}
