package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

// Membership lives on the users table: a user belongs to the group named
// by current_group_id. These methods are part of UserStore.

func (s *UserStore) SetCurrentGroup(ctx context.Context, userID uuid.UUID, groupID uuid.UUID) error {
	// Plain overwrite. Two tabs switching at once leave whichever UPDATE
	// committed last.
	query := `UPDATE users SET current_group_id = $2 WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, userID, groupID); err != nil {
		return fmt.Errorf("set current group: %w", err)
	}
	return nil
}

func (s *UserStore) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE current_group_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}
