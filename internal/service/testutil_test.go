package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
	"github.com/lalith-99/pilgrimlink/internal/repository/memory"
	"go.uber.org/zap/zaptest"
)

type announcement struct {
	groupID uuid.UUID
	text    string
}

type recordingAnnouncer struct {
	mu    sync.Mutex
	calls []announcement
}

func (r *recordingAnnouncer) Announce(groupID uuid.UUID, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, announcement{groupID, text})
}

func (r *recordingAnnouncer) all() []announcement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]announcement(nil), r.calls...)
}

type fakeBlobs struct {
	mu   sync.Mutex
	keys []string
	err  error
	// onPut runs before the object is accepted.
	onPut func()
}

func (f *fakeBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if f.onPut != nil {
		f.onPut()
	}
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "/uploads/" + key, nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

type testEnv struct {
	svc       *Service
	store     *memory.Store
	announcer *recordingAnnouncer
	blobs     *fakeBlobs
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	store := memory.New()
	env := &testEnv{
		store:     store,
		announcer: &recordingAnnouncer{},
		blobs:     &fakeBlobs{},
	}
	env.svc = New(store.Users(), store.Groups(), store.Messages(), env.blobs, env.announcer, zaptest.NewLogger(t), opts...)
	return env
}

func (e *testEnv) user(t *testing.T, name string, role models.Role) *models.User {
	t.Helper()
	u, err := e.store.Users().Create(context.Background(), repository.NewUser{
		Email:        name + "@example.com",
		Name:         name,
		Role:         role,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *models.User {
	t.Helper()
	u, err := e.store.Users().GetByID(context.Background(), id)
	if err != nil || u == nil {
		t.Fatalf("reload user %s: %v", id, err)
	}
	return u
}

// groupWithPilgrim creates a guide, a group and a pilgrim who joined it.
func (e *testEnv) groupWithPilgrim(t *testing.T) (guide, pilgrim *models.User, group *models.GroupSummary) {
	t.Helper()
	ctx := context.Background()
	guide = e.user(t, "G1", models.RoleGuide)
	pilgrim = e.user(t, "P1", models.RolePilgrim)

	group, err := e.svc.CreateGroup(ctx, guide.ID, "Batch 1")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := e.svc.JoinByCode(ctx, pilgrim.ID, group.Code); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := e.svc.OpenGroup(ctx, guide.ID, group.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	return guide, pilgrim, group
}

// countingUsers counts GetByID calls.
type countingUsers struct {
	repository.UserRepository
	mu    sync.Mutex
	reads int
}

func (c *countingUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.UserRepository.GetByID(ctx, id)
}

func (c *countingUsers) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// racingGroups reports every code as free but rejects the first conflicts
// inserts with ErrCodeTaken, as if another creator won each code between
// the existence check and the insert.
type racingGroups struct {
	repository.GroupRepository
	mu        sync.Mutex
	conflicts int
	inserts   int
}

func (r *racingGroups) CodeExists(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func (r *racingGroups) Create(ctx context.Context, guideID uuid.UUID, name, code string) (*models.Group, error) {
	r.mu.Lock()
	r.inserts++
	lose := r.inserts <= r.conflicts
	r.mu.Unlock()
	if lose {
		return nil, repository.ErrCodeTaken
	}
	return r.GroupRepository.Create(ctx, guideID, name, code)
}
