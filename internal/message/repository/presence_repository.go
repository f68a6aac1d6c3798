package repository

import (
	"context"

	"ephemeral_message_service/internal/message/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// PresenceRepository definition chat presence store
type PresenceRepository interface {
	EnsureSchema(ctx context.Context) error
	// Upsert last-writer-wins，較舊的 updated_at 不會蓋掉較新的
	Upsert(ctx context.Context, p *domain.ChatPresence) error
	FindByChat(ctx context.Context, chatID string) ([]domain.ChatPresence, error)
	FindOne(ctx context.Context, chatID, userID string) (*domain.ChatPresence, error)
}

type presenceRepository struct {
	db *pgxpool.Pool
}

// NewPresenceRepository create a PresenceRepository
func NewPresenceRepository(db *pgxpool.Pool) PresenceRepository {
	return &presenceRepository{db: db}
}

func (r *presenceRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chat_presence (
			chat_id    TEXT        NOT NULL,
			user_id    TEXT        NOT NULL,
			is_active  BOOLEAN     NOT NULL DEFAULT FALSE,
			last_seen  TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (chat_id, user_id)
		)`)
	return err
}

func (r *presenceRepository) Upsert(ctx context.Context, p *domain.ChatPresence) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO chat_presence (chat_id, user_id, is_active, last_seen, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET is_active  = EXCLUDED.is_active,
		    last_seen  = EXCLUDED.last_seen,
		    updated_at = EXCLUDED.updated_at
		WHERE chat_presence.updated_at <= EXCLUDED.updated_at`,
		p.ChatID, p.UserID, p.IsActive, p.LastSeen, p.UpdatedAt)
	return err
}

func (r *presenceRepository) FindByChat(ctx context.Context, chatID string) ([]domain.ChatPresence, error) {
	rows, err := r.db.Query(ctx,
		"SELECT chat_id, user_id, is_active, last_seen, updated_at FROM chat_presence WHERE chat_id = $1",
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var presences []domain.ChatPresence
	for rows.Next() {
		var p domain.ChatPresence
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.IsActive, &p.LastSeen, &p.UpdatedAt); err != nil {
			return nil, err
		}
		presences = append(presences, p)
	}
	return presences, rows.Err()
}

func (r *presenceRepository) FindOne(ctx context.Context, chatID, userID string) (*domain.ChatPresence, error) {
	row := r.db.QueryRow(ctx,
		"SELECT chat_id, user_id, is_active, last_seen, updated_at FROM chat_presence WHERE chat_id = $1 AND user_id = $2",
		chatID, userID)

	var p domain.ChatPresence
	if err := row.Scan(&p.ChatID, &p.UserID, &p.IsActive, &p.LastSeen, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
