// Package repository provides backup code persistence.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/twofactor/domain"
)

// PostgreSQLBackupCodeRepository implements backup code persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLBackupCodeRepository struct {
	db *sql.DB
}

// NewPostgreSQLBackupCodeRepository creates a new PostgreSQL backup code repository.
func NewPostgreSQLBackupCodeRepository(db *sql.DB) *PostgreSQLBackupCodeRepository {
	return &PostgreSQLBackupCodeRepository{db: db}
}

// ReplaceForUser deletes any existing codes for the user and inserts the new
// set. Call it inside a transaction so activation is all-or-nothing.
func (r *PostgreSQLBackupCodeRepository) ReplaceForUser(
	ctx context.Context,
	userID uuid.UUID,
	codes []*domain.BackupCode,
) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return apperrors.Wrap(err, "failed to clear backup codes")
	}

	query := `INSERT INTO backup_codes (id, user_id, code_hash, used_at, created_at)
			  VALUES ($1, $2, $3, $4, $5)`
	for _, code := range codes {
		if _, err := querier.ExecContext(
			ctx, query, code.ID, code.UserID, code.CodeHash, code.UsedAt, code.CreatedAt,
		); err != nil {
			return apperrors.Wrap(err, "failed to insert backup code")
		}
	}
	return nil
}

// ListActiveByUser returns the unused codes for a user. Argon2id hashes are
// not addressable by value, so verification walks this list.
func (r *PostgreSQLBackupCodeRepository) ListActiveByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.BackupCode, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, code_hash, used_at, created_at
			  FROM backup_codes
			  WHERE user_id = $1 AND used_at IS NULL
			  ORDER BY created_at`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list backup codes")
	}
	defer func() { _ = rows.Close() }()

	var codes []*domain.BackupCode
	for rows.Next() {
		var code domain.BackupCode
		if err := rows.Scan(&code.ID, &code.UserID, &code.CodeHash, &code.UsedAt, &code.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan backup code")
		}
		codes = append(codes, &code)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to list backup codes")
	}
	return codes, nil
}

// MarkUsed consumes a backup code. The used_at IS NULL condition makes the
// consume atomic: a code spent by a concurrent login matches nothing here.
func (r *PostgreSQLBackupCodeRepository) MarkUsed(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE backup_codes SET used_at = $2 WHERE id = $1 AND used_at IS NULL`

	result, err := querier.ExecContext(ctx, query, id, now)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark backup code used")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to mark backup code used")
	}
	if rows == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "backup code not found")
	}
	return nil
}

// DeleteByUser removes every backup code for a user. Used when two-factor is
// disabled.
func (r *PostgreSQLBackupCodeRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return apperrors.Wrap(err, "failed to delete backup codes")
	}
	return nil
}
