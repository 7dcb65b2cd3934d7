// Package repository provides vault share and invitation persistence.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/sharing/domain"
)

// PostgreSQLShareRepository implements vault share persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLShareRepository struct {
	db *sql.DB
}

// NewPostgreSQLShareRepository creates a new PostgreSQL share repository.
func NewPostgreSQLShareRepository(db *sql.DB) *PostgreSQLShareRepository {
	return &PostgreSQLShareRepository{db: db}
}

// Upsert inserts a share or updates the tier of an existing one. The ON
// CONFLICT clause enforces at most one share per (vault, user) pair without a
// read-modify-write race.
func (r *PostgreSQLShareRepository) Upsert(ctx context.Context, share *domain.VaultShare) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vault_shares (vault_id, user_id, tier, granted_by, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (vault_id, user_id)
			  DO UPDATE SET tier = EXCLUDED.tier, granted_by = EXCLUDED.granted_by, updated_at = EXCLUDED.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		share.VaultID,
		share.UserID,
		int(share.Tier),
		share.GrantedBy,
		share.CreatedAt,
		share.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert share")
	}
	return nil
}

// Get retrieves the share for a (vault, user) pair.
func (r *PostgreSQLShareRepository) Get(
	ctx context.Context,
	vaultID, userID uuid.UUID,
) (*domain.VaultShare, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT vault_id, user_id, tier, granted_by, created_at, updated_at
			  FROM vault_shares WHERE vault_id = $1 AND user_id = $2`

	var share domain.VaultShare
	var tier int
	err := querier.QueryRowContext(ctx, query, vaultID, userID).Scan(
		&share.VaultID,
		&share.UserID,
		&tier,
		&share.GrantedBy,
		&share.CreatedAt,
		&share.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrShareNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get share")
	}
	share.Tier = authzDomain.Tier(tier)
	return &share, nil
}

// Delete removes a share. Revoking a share that does not exist is a
// detectable error, never a silent success.
func (r *PostgreSQLShareRepository) Delete(ctx context.Context, vaultID, userID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(
		ctx, `DELETE FROM vault_shares WHERE vault_id = $1 AND user_id = $2`, vaultID, userID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete share")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete share")
	}
	if rows == 0 {
		return domain.ErrShareNotFound
	}
	return nil
}

// ListByVault returns the resolved shares of a vault with target identity
// joined in.
func (r *PostgreSQLShareRepository) ListByVault(
	ctx context.Context,
	vaultID uuid.UUID,
) ([]*domain.ShareInfo, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT s.vault_id, s.user_id, u.email, u.name, s.tier, s.granted_by
			  FROM vault_shares s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.vault_id = $1
			  ORDER BY s.created_at`

	rows, err := querier.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list shares")
	}
	defer func() { _ = rows.Close() }()

	shares := make([]*domain.ShareInfo, 0)
	for rows.Next() {
		var info domain.ShareInfo
		var tier int
		if err := rows.Scan(&info.VaultID, &info.UserID, &info.Email, &info.Name, &tier, &info.GrantedBy); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan share")
		}
		info.Tier = authzDomain.Tier(tier)
		shares = append(shares, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate shares")
	}
	return shares, nil
}

// HasAccess reports whether the user holds a share on the vault at or above
// the minimum tier. This is the query the authorization resolver calls; the
// tier total order makes it a single comparison.
func (r *PostgreSQLShareRepository) HasAccess(
	ctx context.Context,
	vaultID, userID uuid.UUID,
	minTier authzDomain.Tier,
) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS (
				SELECT 1 FROM vault_shares
				WHERE vault_id = $1 AND user_id = $2 AND tier >= $3
			  )`

	var hasAccess bool
	if err := querier.QueryRowContext(ctx, query, vaultID, userID, int(minTier)).Scan(&hasAccess); err != nil {
		return false, apperrors.Wrap(err, "failed to check share access")
	}
	return hasAccess, nil
}
