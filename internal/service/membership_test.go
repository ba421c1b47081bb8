package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

func TestJoinByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("pilgrim joins and snapshot shows the group", func(t *testing.T) {
		env := newTestEnv(t)
		guide := env.user(t, "G1", models.RoleGuide)
		pilgrim := env.user(t, "P1", models.RolePilgrim)
		group, err := env.svc.CreateGroup(ctx, guide.ID, "Batch 1")
		if err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}

		joined, err := env.svc.JoinByCode(ctx, pilgrim.ID, group.Code)
		if err != nil {
			t.Fatalf("JoinByCode: %v", err)
		}
		if joined.ID != group.ID {
			t.Fatalf("joined %s, want %s", joined.ID, group.ID)
		}
		if got := env.reload(t, pilgrim.ID).CurrentGroupID; got == nil || *got != group.ID {
			t.Fatalf("currentGroupId = %v, want %s", got, group.ID)
		}

		snap, err := env.svc.Snapshot(ctx, pilgrim.ID)
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if snap.Group.ID != group.ID || len(snap.Messages) != 0 {
			t.Fatalf("snapshot = %+v, want empty ledger for %s", snap, group.ID)
		}
	})

	t.Run("code is trimmed and case-insensitive", func(t *testing.T) {
		env := newTestEnv(t, WithCodeGenerator(func() (string, error) { return "K7M2QX", nil }))
		guide := env.user(t, "G1", models.RoleGuide)
		pilgrim := env.user(t, "P1", models.RolePilgrim)
		if _, err := env.svc.CreateGroup(ctx, guide.ID, "Batch"); err != nil {
			t.Fatalf("CreateGroup: %v", err)
		}
		if _, err := env.svc.JoinByCode(ctx, pilgrim.ID, "  k7m2qx "); err != nil {
			t.Fatalf("JoinByCode: %v", err)
		}
	})

	t.Run("unknown code leaves pointer unchanged", func(t *testing.T) {
		env := newTestEnv(t)
		_, pilgrim, group := env.groupWithPilgrim(t)

		for _, code := range []string{"ZZZZZZ", "nope", "222222"} {
			_, err := env.svc.JoinByCode(ctx, pilgrim.ID, code)
			if !errors.Is(err, apperr.ErrNotFound) {
				t.Fatalf("code %q: err = %v, want NotFound", code, err)
			}
			if got := env.reload(t, pilgrim.ID).CurrentGroupID; got == nil || *got != group.ID {
				t.Fatalf("pointer moved to %v", got)
			}
		}
	})

	t.Run("empty code is a validation error", func(t *testing.T) {
		env := newTestEnv(t)
		pilgrim := env.user(t, "P1", models.RolePilgrim)
		if _, err := env.svc.JoinByCode(ctx, pilgrim.ID, "   "); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("err = %v, want Validation", err)
		}
	})

	t.Run("only pilgrims join", func(t *testing.T) {
		env := newTestEnv(t)
		guide := env.user(t, "G1", models.RoleGuide)
		g, _ := env.svc.CreateGroup(ctx, guide.ID, "Batch")
		nobody := env.user(t, "N1", models.RoleUnassigned)

		for _, u := range []*models.User{guide, nobody} {
			if _, err := env.svc.JoinByCode(ctx, u.ID, g.Code); !errors.Is(err, apperr.ErrForbidden) {
				t.Fatalf("%s: err = %v, want Forbidden", u.Name, err)
			}
		}
	})

	t.Run("unknown caller is unauthorized", func(t *testing.T) {
		env := newTestEnv(t)
		if _, err := env.svc.JoinByCode(ctx, uuid.New(), "AAAAAA"); !errors.Is(err, apperr.ErrUnauthorized) {
			t.Fatalf("err = %v, want Unauthorized", err)
		}
	})
}

func TestOpenGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("guide opens own group and snapshot follows", func(t *testing.T) {
		env := newTestEnv(t)
		guide := env.user(t, "G1", models.RoleGuide)
		first, _ := env.svc.CreateGroup(ctx, guide.ID, "First")
		second, _ := env.svc.CreateGroup(ctx, guide.ID, "Second")

		for _, g := range []*models.GroupSummary{first, second, first} {
			if _, err := env.svc.OpenGroup(ctx, guide.ID, g.ID); err != nil {
				t.Fatalf("OpenGroup(%s): %v", g.Name, err)
			}
			snap, err := env.svc.Snapshot(ctx, guide.ID)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if snap.Group.ID != g.ID {
				t.Fatalf("snapshot group = %s, want %s", snap.Group.ID, g.ID)
			}
		}
	})

	t.Run("guide cannot open another guide's group", func(t *testing.T) {
		env := newTestEnv(t)
		owner := env.user(t, "G1", models.RoleGuide)
		other := env.user(t, "G2", models.RoleGuide)
		g, _ := env.svc.CreateGroup(ctx, owner.ID, "Batch")

		if _, err := env.svc.OpenGroup(ctx, other.ID, g.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v, want Forbidden", err)
		}
		if env.reload(t, other.ID).CurrentGroupID != nil {
			t.Fatalf("pointer set on forbidden open")
		}
	})

	t.Run("pilgrim can reopen only the current group", func(t *testing.T) {
		env := newTestEnv(t)
		guide, pilgrim, group := env.groupWithPilgrim(t)
		other, _ := env.svc.CreateGroup(ctx, guide.ID, "Other")

		if _, err := env.svc.OpenGroup(ctx, pilgrim.ID, group.ID); err != nil {
			t.Fatalf("reopen: %v", err)
		}
		if _, err := env.svc.OpenGroup(ctx, pilgrim.ID, other.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v, want Forbidden", err)
		}
	})

	t.Run("unassigned users are forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		guide := env.user(t, "G1", models.RoleGuide)
		g, _ := env.svc.CreateGroup(ctx, guide.ID, "Batch")
		nobody := env.user(t, "N1", models.RoleUnassigned)

		if _, err := env.svc.OpenGroup(ctx, nobody.ID, g.ID); !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("err = %v, want Forbidden", err)
		}
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		env := newTestEnv(t)
		guide := env.user(t, "G1", models.RoleGuide)
		if _, err := env.svc.OpenGroup(ctx, guide.ID, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("err = %v, want NotFound", err)
		}
	})
}

func TestDeletedGroupResolvesToNone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, pilgrim, group := env.groupWithPilgrim(t)

	env.store.DeleteGroup(group.ID)

	if _, err := env.svc.Snapshot(ctx, pilgrim.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("snapshot err = %v, want NotFound", err)
	}
	if _, err := env.svc.AppendText(ctx, pilgrim.ID, "hi"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("append err = %v, want Validation", err)
	}
	u := env.reload(t, pilgrim.ID)
	next, err := env.svc.NextStep(ctx, u)
	if err != nil || next != StepJoin {
		t.Fatalf("next = %q, %v; want %q", next, err, StepJoin)
	}
}

func TestAssignRoleAndNextStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.user(t, "U1", models.RoleUnassigned)

	next, err := env.svc.NextStep(ctx, u)
	if err != nil || next != StepRole {
		t.Fatalf("next = %q, %v; want %q", next, err, StepRole)
	}

	for _, bad := range []models.Role{"", "ADMIN", "guide"} {
		if err := env.svc.AssignRole(ctx, u.ID, bad); !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("role %q: err = %v, want Validation", bad, err)
		}
	}

	if err := env.svc.AssignRole(ctx, u.ID, models.RolePilgrim); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	u = env.reload(t, u.ID)
	if u.Role != models.RolePilgrim {
		t.Fatalf("role = %q", u.Role)
	}
	if next, _ := env.svc.NextStep(ctx, u); next != StepJoin {
		t.Fatalf("pilgrim without group next = %q, want %q", next, StepJoin)
	}

	// Roles stay revisable; the next request sees the new one.
	if err := env.svc.AssignRole(ctx, u.ID, models.RoleGuide); err != nil {
		t.Fatalf("AssignRole again: %v", err)
	}
	u = env.reload(t, u.ID)
	if next, _ := env.svc.NextStep(ctx, u); next != StepGuide {
		t.Fatalf("guide next = %q, want %q", next, StepGuide)
	}
	if _, err := env.svc.CreateGroup(ctx, u.ID, "Now a guide"); err != nil {
		t.Fatalf("CreateGroup after role change: %v", err)
	}
}
