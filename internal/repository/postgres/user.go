package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
)

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, email, name, phone, COALESCE(role, ''), current_group_id, password_hash, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Phone,
		&u.Role,
		&u.CurrentGroupID,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// nullableRole maps the unassigned role to SQL NULL.
func nullableRole(r models.Role) *string {
	if r == models.RoleUnassigned {
		return nil
	}
	s := string(r)
	return &s
}

// Create inserts a new user row. Postgres generates the timestamp.
func (s *UserStore) Create(ctx context.Context, nu repository.NewUser) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, name, phone, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query,
		uuid.New(), nu.Email, nu.Name, nu.Phone, nullableRole(nu.Role), nu.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks up a user by email. Used for login.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, userID, nullableRole(role)); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
