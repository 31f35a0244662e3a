package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/docbook-api/internal/repository"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

func (r *tokenRepository) Store(ctx context.Context, userID, tokenID uuid.UUID, expiresAt time.Time) error {
	query := `
		INSERT INTO user_tokens (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.conn(ctx).ExecContext(ctx, query, tokenID, userID, expiresAt)
	return mapError(err, "token")
}

func (r *tokenRepository) Exists(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_tokens WHERE id = $1 AND expires_at > NOW())`

	var ok bool
	if err := r.conn(ctx).GetContext(ctx, &ok, query, tokenID); err != nil {
		return false, fmt.Errorf("failed to look up token: %w", err)
	}
	return ok, nil
}

// DeleteByUser revokes every token of the user and returns their ids.
func (r *tokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.conn(ctx).SelectContext(ctx, &ids, `DELETE FROM user_tokens WHERE user_id = $1 RETURNING id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return ids, nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return res.RowsAffected()
}
