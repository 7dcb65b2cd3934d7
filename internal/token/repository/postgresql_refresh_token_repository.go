// Package repository provides refresh token persistence.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/token/domain"
)

// PostgreSQLRefreshTokenRepository implements refresh token persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLRefreshTokenRepository struct {
	db *sql.DB
}

// NewPostgreSQLRefreshTokenRepository creates a new PostgreSQL refresh token repository.
func NewPostgreSQLRefreshTokenRepository(db *sql.DB) *PostgreSQLRefreshTokenRepository {
	return &PostgreSQLRefreshTokenRepository{db: db}
}

// Create inserts a new refresh token record.
func (r *PostgreSQLRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO refresh_tokens (id, token_hash, user_id, expires_at, revoked_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.RevokedAt,
		token.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create refresh token")
	}
	return nil
}

// GetByTokenHash retrieves a refresh token by its hash, regardless of its
// revoked or expired state. Used to classify a failed consume.
func (r *PostgreSQLRefreshTokenRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, token_hash, user_id, expires_at, revoked_at, created_at
			  FROM refresh_tokens WHERE token_hash = $1`

	var token domain.RefreshToken
	err := querier.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get refresh token")
	}
	return &token, nil
}

// Consume atomically invalidates a live refresh token and returns it. The
// single conditional UPDATE guarantees that two concurrent refresh calls with
// the same token cannot both succeed: the first wins, the second sees no rows
// and gets ErrRefreshTokenNotFound.
func (r *PostgreSQLRefreshTokenRepository) Consume(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*domain.RefreshToken, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = $2
			  WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
			  RETURNING id, token_hash, user_id, expires_at, revoked_at, created_at`

	var token domain.RefreshToken
	err := querier.QueryRowContext(ctx, query, tokenHash, now).Scan(
		&token.ID,
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, apperrors.Wrap(err, "failed to consume refresh token")
	}
	return &token, nil
}

// Revoke invalidates one live refresh token owned by the given user. The
// user id is part of the condition so one user cannot revoke another user's
// token. Returns ErrRefreshTokenNotFound when nothing matched.
func (r *PostgreSQLRefreshTokenRepository) Revoke(
	ctx context.Context,
	tokenHash string,
	userID uuid.UUID,
	now time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE refresh_tokens
			  SET revoked_at = $3
			  WHERE token_hash = $1 AND user_id = $2 AND revoked_at IS NULL`

	result, err := querier.ExecContext(ctx, query, tokenHash, userID, now)
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke refresh token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to revoke refresh token")
	}
	if rows == 0 {
		return domain.ErrRefreshTokenNotFound
	}
	return nil
}

// DeleteExpired removes refresh tokens that are expired or revoked. Used by
// the maintenance command; live tokens are lazily rejected at use-time either
// way.
func (r *PostgreSQLRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM refresh_tokens WHERE expires_at <= $1 OR revoked_at IS NOT NULL`

	result, err := querier.ExecContext(ctx, query, now)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired refresh tokens")
	}
	return rows, nil
}
