// Package service implements group membership and the message ledger:
// role assignment, group creation, current-group switching, message
// appends and the polling snapshot.
//
// Every method takes the caller's user id as resolved by the identity
// layer and re-reads the user record, so role and current group are
// always the stored values, never a cached token claim.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/blob"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
	"go.uber.org/zap"
)

// Announcer receives announcements after they are written to the ledger.
// Announce must not block on delivery.
type Announcer interface {
	Announce(groupID uuid.UUID, text string)
}

type Service struct {
	users    repository.UserRepository
	groups   repository.GroupRepository
	messages repository.MessageRepository
	blobs    blob.Store
	announce Announcer
	newCode  CodeGenerator
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes a Service. Used by tests and by main for wiring.
type Option func(*Service)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.newCode = gen }
}

// WithClock replaces time.Now for upload object names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	users repository.UserRepository,
	groups repository.GroupRepository,
	messages repository.MessageRepository,
	blobs blob.Store,
	announce Announcer,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		groups:   groups,
		messages: messages,
		blobs:    blobs,
		announce: announce,
		newCode:  RandomCode,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// caller loads the acting user. A token for a user that no longer exists
// is treated as no identity at all.
func (s *Service) caller(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if u == nil {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return u, nil
}

// Me returns the caller's user record.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.caller(ctx, userID)
}

// currentGroup resolves the weak current-group pointer. A nil pointer and a
// pointer to a group that no longer exists both yield nil.
func (s *Service) currentGroup(ctx context.Context, u *models.User) (*models.GroupSummary, error) {
	if u.CurrentGroupID == nil {
		return nil, nil
	}
	g, err := s.groups.GetByID(ctx, *u.CurrentGroupID)
	if err != nil {
		return nil, apperr.Internal("load current group", err)
	}
	return g, nil
}
