// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same uniqueness rules as the Postgres schema
// (unique email, unique group code) and is used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
)

// Store holds users, groups and messages behind one mutex. Users, Groups
// and Messages return the repository views over that shared state; counts
// and joins need all three tables, so they cannot live apart.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*models.User
	groups   map[uuid.UUID]*models.Group
	codes    map[string]uuid.UUID
	messages []models.Message
	seq      int64
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:  make(map[uuid.UUID]*models.User),
		groups: make(map[uuid.UUID]*models.Group),
		codes:  make(map[string]uuid.UUID),
		now:    time.Now,
	}
}

// WithClock replaces the timestamp source. Tests use it to force ties.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

type (
	UserStore    struct{ s *Store }
	GroupStore   struct{ s *Store }
	MessageStore struct{ s *Store }
)

var (
	_ repository.UserRepository    = UserStore{}
	_ repository.GroupRepository   = GroupStore{}
	_ repository.MessageRepository = MessageStore{}
	_ repository.Pinger            = (*Store)(nil)
)

func (s *Store) Users() UserStore       { return UserStore{s} }
func (s *Store) Groups() GroupStore     { return GroupStore{s} }
func (s *Store) Messages() MessageStore { return MessageStore{s} }

func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

// ---------------------------------------------------------------
// Users
// ---------------------------------------------------------------

func cloneUser(u *models.User) *models.User {
	c := *u
	if u.Phone != nil {
		p := *u.Phone
		c.Phone = &p
	}
	if u.CurrentGroupID != nil {
		g := *u.CurrentGroupID
		c.CurrentGroupID = &g
	}
	return &c
}

func (r UserStore) Create(ctx context.Context, nu repository.NewUser) (*models.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == nu.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	u := &models.User{
		ID:           uuid.New(),
		Email:        nu.Email,
		Name:         nu.Name,
		Phone:        nu.Phone,
		Role:         nu.Role,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (r UserStore) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r UserStore) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		u.Role = role
	}
	return nil
}

func (r UserStore) SetCurrentGroup(ctx context.Context, userID uuid.UUID, groupID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		g := groupID
		u.CurrentGroupID = &g
	}
	return nil
}

func (r UserStore) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]models.User, 0)
	for _, u := range s.users {
		if u.CurrentGroupID != nil && *u.CurrentGroupID == groupID {
			members = append(members, *cloneUser(u))
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})
	return members, nil
}

// SetPhone is a test helper; the HTTP surface sets phones only at registration.
func (s *Store) SetPhone(userID uuid.UUID, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		u.Phone = &phone
	}
}

// ---------------------------------------------------------------
// Groups
// ---------------------------------------------------------------

func (r GroupStore) Create(ctx context.Context, guideID uuid.UUID, name, code string) (*models.Group, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[code]; taken {
		return nil, repository.ErrCodeTaken
	}
	g := &models.Group{
		ID:        uuid.New(),
		Name:      name,
		Code:      code,
		GuideID:   guideID,
		CreatedAt: s.now(),
	}
	s.groups[g.ID] = g
	s.codes[code] = g.ID
	c := *g
	return &c, nil
}

func (r GroupStore) CodeExists(ctx context.Context, code string) (bool, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.codes[code]
	return ok, nil
}

// summary must be called with mu held.
func (s *Store) summary(g *models.Group) *models.GroupSummary {
	gs := &models.GroupSummary{Group: *g}
	if guide, ok := s.users[g.GuideID]; ok {
		gs.GuideName = guide.Name
	}
	return gs
}

func (r GroupStore) GetByID(ctx context.Context, groupID uuid.UUID) (*models.GroupSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, nil
	}
	return s.summary(g), nil
}

func (r GroupStore) GetByCode(ctx context.Context, code string) (*models.GroupSummary, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[code]
	if !ok {
		return nil, nil
	}
	return s.summary(s.groups[id]), nil
}

func (r GroupStore) ListByGuide(ctx context.Context, guideID uuid.UUID) ([]models.GroupStats, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]models.GroupStats, 0)
	for _, g := range s.groups {
		if g.GuideID != guideID {
			continue
		}
		st := models.GroupStats{GroupSummary: *s.summary(g)}
		for _, u := range s.users {
			if u.CurrentGroupID != nil && *u.CurrentGroupID == g.ID {
				st.MemberCount++
			}
		}
		for _, m := range s.messages {
			if m.GroupID == g.ID {
				st.MessageCount++
			}
		}
		stats = append(stats, st)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CreatedAt.After(stats[j].CreatedAt)
	})
	return stats, nil
}

// DeleteGroup removes a group and its messages and clears dangling
// current-group pointers, mirroring the schema's cascade rules.
func (s *Store) DeleteGroup(groupID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return
	}
	delete(s.codes, g.Code)
	delete(s.groups, groupID)

	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.GroupID != groupID {
			kept = append(kept, m)
		}
	}
	s.messages = kept

	for _, u := range s.users {
		if u.CurrentGroupID != nil && *u.CurrentGroupID == groupID {
			u.CurrentGroupID = nil
		}
	}
}

// ---------------------------------------------------------------
// Messages
// ---------------------------------------------------------------

func (r MessageStore) Create(ctx context.Context, msg models.Message) (*models.Message, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	msg.ID = s.seq
	msg.CreatedAt = s.now()
	s.messages = append(s.messages, msg)
	m := msg
	return &m, nil
}

func (r MessageStore) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.MessageView, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]models.MessageView, 0)
	for i := range s.messages {
		m := &s.messages[i]
		if m.GroupID != groupID {
			continue
		}
		var name string
		if u, ok := s.users[m.SenderID]; ok {
			name = u.Name
		}
		views = append(views, models.NewView(m, name))
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID < views[j].ID
		}
		return views[i].CreatedAt.Before(views[j].CreatedAt)
	})
	return views, nil
}
