package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Create(ctx context.Context, msg models.Message) (*models.Message, error) {
	// Messages use bigserial, so we don't pass an ID. created_at comes from
	// the database clock, never the client.
	query := `
		INSERT INTO messages (group_id, sender_id, type, text, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, group_id, sender_id, type, text, image_url, created_at`

	var m models.Message
	err := s.pool.QueryRow(ctx, query, msg.GroupID, msg.SenderID, msg.Type, msg.Text, msg.ImageURL).Scan(
		&m.ID,
		&m.GroupID,
		&m.SenderID,
		&m.Type,
		&m.Text,
		&m.ImageURL,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (s *MessageStore) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.MessageView, error) {
	// Full history, no pagination. id breaks ties between rows stamped in
	// the same microsecond, which keeps the order stable across polls.
	query := `
		SELECT m.id, m.type, m.text, m.image_url, m.sender_id, u.name, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC, m.id ASC`

	rows, err := s.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.MessageView, 0)
	for rows.Next() {
		var v models.MessageView
		if err := rows.Scan(
			&v.ID,
			&v.Type,
			&v.Text,
			&v.ImageURL,
			&v.SenderID,
			&v.SenderName,
			&v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
