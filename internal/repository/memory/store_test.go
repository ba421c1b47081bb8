package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
)

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, err := s.Users().Create(ctx, repository.NewUser{Email: "a@example.com", Name: "A"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := s.Users().Create(ctx, repository.NewUser{Email: "a@example.com", Name: "B"})
	if !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}

	u, err := s.Users().GetByEmail(ctx, "missing@example.com")
	if u != nil || err != nil {
		t.Fatalf("missing lookup = %v, %v; want nil, nil", u, err)
	}
}

func TestGroupCodeUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	guide := uuid.New()

	if _, err := s.Groups().Create(ctx, guide, "One", "ABCDEF"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Groups().Create(ctx, guide, "Two", "ABCDEF"); !errors.Is(err, repository.ErrCodeTaken) {
		t.Fatalf("err = %v, want ErrCodeTaken", err)
	}
	exists, _ := s.Groups().CodeExists(ctx, "ABCDEF")
	if !exists {
		t.Fatalf("CodeExists = false")
	}
}

func TestReturnedUsersAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u, _ := s.Users().Create(ctx, repository.NewUser{Email: "a@example.com", Name: "A"})
	u.Name = "mutated"

	again, _ := s.Users().GetByID(ctx, u.ID)
	if again.Name != "A" {
		t.Fatalf("store state changed through a returned pointer")
	}
}

func TestMembersAndCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	guide, _ := s.Users().Create(ctx, repository.NewUser{Email: "g@example.com", Name: "G", Role: models.RoleGuide})
	older, _ := s.Groups().Create(ctx, guide.ID, "Older", "AAAAAA")
	newer, _ := s.Groups().Create(ctx, guide.ID, "Newer", "BBBBBB")

	for i, email := range []string{"p1@example.com", "p2@example.com"} {
		p, _ := s.Users().Create(ctx, repository.NewUser{Email: email, Name: email, Role: models.RolePilgrim})
		if err := s.Users().SetCurrentGroup(ctx, p.ID, newer.ID); err != nil {
			t.Fatalf("SetCurrentGroup: %v", err)
		}
		text := "hi"
		if _, err := s.Messages().Create(ctx, models.Message{GroupID: newer.ID, SenderID: p.ID, Type: models.MessageText, Text: &text}); err != nil {
			t.Fatalf("message %d: %v", i, err)
		}
	}

	members, _ := s.Users().ListMembers(ctx, newer.ID)
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	stats, _ := s.Groups().ListByGuide(ctx, guide.ID)
	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	byID := map[uuid.UUID]models.GroupStats{stats[0].ID: stats[0], stats[1].ID: stats[1]}
	if byID[newer.ID].MemberCount != 2 || byID[newer.ID].MessageCount != 2 {
		t.Fatalf("newer = %+v", byID[newer.ID])
	}
	if byID[older.ID].MemberCount != 0 || byID[older.ID].GuideName != "G" {
		t.Fatalf("older = %+v", byID[older.ID])
	}

	none, _ := s.Groups().ListByGuide(ctx, uuid.New())
	if none == nil || len(none) != 0 {
		t.Fatalf("no groups should be an empty, non-nil slice")
	}
}

func TestMessagesOrderedByTimeThenID(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	// Two messages per timestamp, so half the comparisons are ties.
	s := New().WithClock(func() time.Time {
		ts := base.Add(time.Duration(tick/2) * time.Second)
		tick++
		return ts
	})
	group := uuid.New()
	sender, _ := s.Users().Create(ctx, repository.NewUser{Email: "s@example.com", Name: "S"})

	var ids []int64
	for i := 0; i < 6; i++ {
		text := "m"
		m, err := s.Messages().Create(ctx, models.Message{GroupID: group, SenderID: sender.ID, Type: models.MessageText, Text: &text})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, m.ID)
	}

	views, _ := s.Messages().ListByGroup(ctx, group)
	if len(views) != len(ids) {
		t.Fatalf("len = %d", len(views))
	}
	for i, v := range views {
		if v.ID != ids[i] || v.SenderName != "S" {
			t.Fatalf("views[%d] = %+v, want id %d", i, v, ids[i])
		}
	}
}

func TestDeleteGroupClearsPointers(t *testing.T) {
	ctx := context.Background()
	s := New()
	guide, _ := s.Users().Create(ctx, repository.NewUser{Email: "g@example.com", Name: "G"})
	g, _ := s.Groups().Create(ctx, guide.ID, "G", "CCCCCC")
	_ = s.Users().SetCurrentGroup(ctx, guide.ID, g.ID)

	s.DeleteGroup(g.ID)

	u, _ := s.Users().GetByID(ctx, guide.ID)
	if u.CurrentGroupID != nil {
		t.Fatalf("pointer still set after delete")
	}
	if exists, _ := s.Groups().CodeExists(ctx, "CCCCCC"); exists {
		t.Fatalf("code still reserved after delete")
	}
}
