package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
	"go.uber.org/zap"
)

// CreateGroup creates a group owned by the calling guide under a fresh
// unique join code.
//
// How a code is picked, per attempt:
//  1. Draw a random code.
//  2. Skip it if CodeExists says another group holds it.
//  3. Insert. The store's insert is atomic on the code (a unique index and
//     ON CONFLICT DO NOTHING in Postgres, the mutex in memory), so a
//     creator that won the same code between steps 2 and 3 turns our
//     insert into ErrCodeTaken.
//
// Why check first when the insert catches duplicates anyway?
//   - Most collisions are with long-lived groups, and the read is cheaper
//     than a failed insert.
//   - The insert is what guarantees uniqueness; the check alone could
//     not, since two creators can both see "free".
//
// Both kinds of collision cost one of maxCodeAttempts. Once they run out
// the call fails with an Exhausted error, which is transient: the caller
// can simply retry.
func (s *Service) CreateGroup(ctx context.Context, guideID uuid.UUID, name string) (*models.GroupSummary, error) {
	u, err := s.caller(ctx, guideID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleGuide {
		return nil, apperr.Forbidden("Only guides can create groups")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Group name is required")
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, apperr.Internal("generate group code", err)
		}

		exists, err := s.groups.CodeExists(ctx, code)
		if err != nil {
			return nil, apperr.Internal("check group code", err)
		}
		if exists {
			s.logger.Debug("group code collision", zap.Int("attempt", attempt))
			continue
		}

		g, err := s.groups.Create(ctx, guideID, name, code)
		if errors.Is(err, repository.ErrCodeTaken) {
			s.logger.Debug("group code taken at insert", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, apperr.Internal("create group", err)
		}

		s.logger.Info("group created",
			zap.String("group_id", g.ID.String()),
			zap.String("guide_id", guideID.String()),
			zap.String("code", g.Code),
		)
		return &models.GroupSummary{Group: *g, GuideName: u.Name}, nil
	}

	s.logger.Warn("group code generation exhausted",
		zap.String("guide_id", guideID.String()),
		zap.Int("attempts", maxCodeAttempts),
	)
	return nil, apperr.Exhausted("Failed to generate unique code. Please try again.")
}

// ListGroupsForGuide returns the guide's groups newest first with derived
// member and message counts.
func (s *Service) ListGroupsForGuide(ctx context.Context, guideID uuid.UUID) ([]models.GroupStats, error) {
	u, err := s.caller(ctx, guideID)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleGuide {
		return nil, apperr.Forbidden("Only guides can view their groups")
	}

	groups, err := s.groups.ListByGuide(ctx, guideID)
	if err != nil {
		return nil, apperr.Internal("list groups", err)
	}
	return groups, nil
}
