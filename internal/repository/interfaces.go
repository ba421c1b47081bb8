package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

// Every method takes ctx first: the request context flows down to the
// store so a disconnected client cancels its query.
//
// Lookups return nil, nil when the row does not exist. Callers decide
// whether absence is an error.

var (
	// ErrCodeTaken is returned by GroupRepository.Create when another group
	// already holds the code. The insert is atomic, so this also catches a
	// concurrent creator that passed the same existence check.
	ErrCodeTaken = errors.New("group code already taken")

	// ErrEmailTaken is returned by UserRepository.Create on a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// NewUser is the registration payload handed to UserRepository.Create.
type NewUser struct {
	Email        string
	Name         string
	Phone        *string
	Role         models.Role
	PasswordHash string
}

// UserRepository covers identity records and the current-group pointer.
type UserRepository interface {
	Create(ctx context.Context, u NewUser) (*models.User, error)

	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail is global (not group scoped). Used for login.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error

	// SetCurrentGroup overwrites the pointer. Last write wins.
	SetCurrentGroup(ctx context.Context, userID uuid.UUID, groupID uuid.UUID) error

	// ListMembers returns the users whose current group is groupID.
	// Membership is derived from this pointer; there is no member table.
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error)
}

// GroupRepository handles group rows. Groups are never updated.
type GroupRepository interface {
	// Create inserts a group with the given code, or returns ErrCodeTaken.
	Create(ctx context.Context, guideID uuid.UUID, name, code string) (*models.Group, error)

	CodeExists(ctx context.Context, code string) (bool, error)

	GetByID(ctx context.Context, groupID uuid.UUID) (*models.GroupSummary, error)

	// GetByCode expects an already normalized (trimmed, upper-case) code.
	GetByCode(ctx context.Context, code string) (*models.GroupSummary, error)

	// ListByGuide returns the guide's groups newest first with member and
	// message counts. Returns an empty slice (not nil) when there are none.
	ListByGuide(ctx context.Context, guideID uuid.UUID) ([]models.GroupStats, error)
}

// MessageRepository is the append-only ledger.
type MessageRepository interface {
	// Create appends a message stamped with the store's clock.
	Create(ctx context.Context, msg models.Message) (*models.Message, error)

	// ListByGroup returns the full history oldest first, ties broken by id.
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.MessageView, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Health(ctx context.Context) error
}
