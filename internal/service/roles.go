package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"go.uber.org/zap"
)

// AssignRole sets the caller's role. Only Guide and Pilgrim are accepted.
//
// The role is freely settable here; onboarding only prompts while the role
// is unassigned. A switch between two assigned roles is logged so it can be
// audited.
func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !role.Assignable() {
		return apperr.Validation("Invalid role")
	}

	u, err := s.caller(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return apperr.Internal("set role", err)
	}

	if u.Role != models.RoleUnassigned && u.Role != role {
		s.logger.Warn("user changed role",
			zap.String("user_id", userID.String()),
			zap.String("from", string(u.Role)),
			zap.String("to", string(role)),
		)
	}
	return nil
}

// Onboarding destinations returned by NextStep.
const (
	StepRole  = "role"
	StepGuide = "guide"
	StepChat  = "chat"
	StepJoin  = "join"
)

// NextStep tells a client where the user belongs after sign-in.
func (s *Service) NextStep(ctx context.Context, u *models.User) (string, error) {
	switch u.Role {
	case models.RoleGuide:
		return StepGuide, nil
	case models.RolePilgrim:
		g, err := s.currentGroup(ctx, u)
		if err != nil {
			return "", err
		}
		if g != nil {
			return StepChat, nil
		}
		return StepJoin, nil
	default:
		return StepRole, nil
	}
}
