package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/pilgrimlink/internal/models"
	"github.com/lalith-99/pilgrimlink/internal/repository"
)

type GroupStore struct {
	pool *pgxpool.Pool
}

func NewGroupStore(pool *pgxpool.Pool) *GroupStore {
	return &GroupStore{pool: pool}
}

func (s *GroupStore) Create(ctx context.Context, guideID uuid.UUID, name, code string) (*models.Group, error) {
	// ON CONFLICT DO NOTHING turns a duplicate code into "no row returned"
	// instead of an aborted statement. The unique index on code is the
	// actual guarantee; the service-level existence check is only a fast path.
	query := `
		INSERT INTO groups (id, name, code, guide_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (code) DO NOTHING
		RETURNING id, name, code, guide_id, created_at`

	var g models.Group
	err := s.pool.QueryRow(ctx, query, uuid.New(), name, code, guideID).Scan(
		&g.ID,
		&g.Name,
		&g.Code,
		&g.GuideID,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrCodeTaken
		}
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return &g, nil
}

func (s *GroupStore) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM groups WHERE code = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check group code: %w", err)
	}
	return exists, nil
}

const summaryColumns = `g.id, g.name, g.code, g.guide_id, g.created_at, u.name`

func scanSummary(row pgx.Row) (*models.GroupSummary, error) {
	var gs models.GroupSummary
	err := row.Scan(
		&gs.ID,
		&gs.Name,
		&gs.Code,
		&gs.GuideID,
		&gs.CreatedAt,
		&gs.GuideName,
	)
	if err != nil {
		return nil, err
	}
	return &gs, nil
}

func (s *GroupStore) GetByID(ctx context.Context, groupID uuid.UUID) (*models.GroupSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM groups g
		JOIN users u ON u.id = g.guide_id
		WHERE g.id = $1`

	gs, err := scanSummary(s.pool.QueryRow(ctx, query, groupID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return gs, nil
}

func (s *GroupStore) GetByCode(ctx context.Context, code string) (*models.GroupSummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM groups g
		JOIN users u ON u.id = g.guide_id
		WHERE g.code = $1`

	gs, err := scanSummary(s.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group by code: %w", err)
	}
	return gs, nil
}

func (s *GroupStore) ListByGuide(ctx context.Context, guideID uuid.UUID) ([]models.GroupStats, error) {
	// Counts are correlated subqueries rather than joins so one group with
	// many messages does not multiply its member rows.
	query := `
		SELECT ` + summaryColumns + `,
			(SELECT COUNT(*) FROM users m WHERE m.current_group_id = g.id),
			(SELECT COUNT(*) FROM messages msg WHERE msg.group_id = g.id)
		FROM groups g
		JOIN users u ON u.id = g.guide_id
		WHERE g.guide_id = $1
		ORDER BY g.created_at DESC`

	rows, err := s.pool.Query(ctx, query, guideID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.GroupStats, 0)
	for rows.Next() {
		var st models.GroupStats
		if err := rows.Scan(
			&st.ID,
			&st.Name,
			&st.Code,
			&st.GuideID,
			&st.CreatedAt,
			&st.GuideName,
			&st.MemberCount,
			&st.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}
