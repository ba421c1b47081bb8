package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"go.uber.org/zap"
)

// JoinByCode moves a pilgrim into the group holding code. Knowing the code
// is the whole grant; joining the same group again is a no-op write.
func (s *Service) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*models.GroupSummary, error) {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RolePilgrim {
		return nil, apperr.Forbidden("Only pilgrims can join groups")
	}

	code = NormalizeCode(code)
	if code == "" {
		return nil, apperr.Validation("Group code is required")
	}

	g, err := s.groups.GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Internal("find group by code", err)
	}
	if g == nil {
		return nil, apperr.NotFound("Invalid group code")
	}

	if err := s.users.SetCurrentGroup(ctx, userID, g.ID); err != nil {
		return nil, apperr.Internal("set current group", err)
	}

	s.logger.Info("pilgrim joined group",
		zap.String("user_id", userID.String()),
		zap.String("group_id", g.ID.String()),
	)
	return g, nil
}

// OpenGroup makes groupID the caller's current group without granting new
// access. Guides may open groups they own. Pilgrims may only re-open the
// group they are already in, so for them the write changes nothing.
// Concurrent opens by the same user are last-write-wins.
func (s *Service) OpenGroup(ctx context.Context, userID, groupID uuid.UUID) (*models.GroupSummary, error) {
	u, err := s.caller(ctx, userID)
	if err != nil {
		return nil, err
	}

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("find group", err)
	}
	if g == nil {
		return nil, apperr.NotFound("Group not found")
	}

	switch u.Role {
	case models.RoleGuide:
		if g.GuideID != userID {
			return nil, apperr.Forbidden("You can only open your own groups")
		}
	case models.RolePilgrim:
		if u.CurrentGroupID == nil || *u.CurrentGroupID != groupID {
			return nil, apperr.Forbidden("You are not a member of this group")
		}
	default:
		return nil, apperr.Forbidden("Choose a role before opening a group")
	}

	if err := s.users.SetCurrentGroup(ctx, userID, groupID); err != nil {
		return nil, apperr.Internal("set current group", err)
	}
	return g, nil
}
