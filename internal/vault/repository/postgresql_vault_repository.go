// Package repository provides vault and credential persistence.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/vault/domain"
)

const vaultColumns = "id, name, description, icon, owner_id, is_deleted, created_at, updated_at"

// PostgreSQLVaultRepository implements vault persistence for PostgreSQL.
// Normal reads filter soft-deleted rows; GetAnyByID bypasses the filter for
// audit resolution. Uses transaction support via database.GetTx().
type PostgreSQLVaultRepository struct {
	db *sql.DB
}

// NewPostgreSQLVaultRepository creates a new PostgreSQL vault repository.
func NewPostgreSQLVaultRepository(db *sql.DB) *PostgreSQLVaultRepository {
	return &PostgreSQLVaultRepository{db: db}
}

// Create inserts a new vault.
func (r *PostgreSQLVaultRepository) Create(ctx context.Context, vault *domain.Vault) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vaults (` + vaultColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := querier.ExecContext(
		ctx,
		query,
		vault.ID,
		vault.Name,
		vault.Description,
		vault.Icon,
		vault.OwnerID,
		vault.IsDeleted,
		vault.CreatedAt,
		vault.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create vault")
	}
	return nil
}

// GetByID retrieves a live vault. Soft-deleted vaults are invisible here and
// surface as not found.
func (r *PostgreSQLVaultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id = $1 AND is_deleted = FALSE`

	return scanVault(querier.QueryRowContext(ctx, query, id))
}

// GetAnyByID retrieves a vault regardless of its soft-delete state. Only the
// audit read path should use this.
func (r *PostgreSQLVaultRepository) GetAnyByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id = $1`

	return scanVault(querier.QueryRowContext(ctx, query, id))
}

// Update persists mutable vault fields. A soft-deleted vault is ineligible
// for updates and surfaces as not found.
func (r *PostgreSQLVaultRepository) Update(ctx context.Context, vault *domain.Vault) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE vaults
			  SET name = $2, description = $3, icon = $4, updated_at = $5
			  WHERE id = $1 AND is_deleted = FALSE`

	result, err := querier.ExecContext(
		ctx, query, vault.ID, vault.Name, vault.Description, vault.Icon, vault.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update vault")
	}
	return requireRowAffected(result, domain.ErrVaultNotFound, "failed to update vault")
}

// SoftDelete hides a vault from all normal reads. The row stays behind so
// audit entries referencing it remain resolvable.
func (r *PostgreSQLVaultRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE vaults SET is_deleted = TRUE, updated_at = NOW()
			  WHERE id = $1 AND is_deleted = FALSE`

	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to soft delete vault")
	}
	return requireRowAffected(result, domain.ErrVaultNotFound, "failed to soft delete vault")
}

// ListForUser returns live vaults the user owns or has a share on, newest
// first.
func (r *PostgreSQLVaultRepository) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	offset, limit int,
) ([]*domain.Vault, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + vaultColumns + ` FROM vaults
			  WHERE is_deleted = FALSE
			    AND (owner_id = $1 OR id IN (SELECT vault_id FROM vault_shares WHERE user_id = $1))
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list vaults")
	}
	defer func() { _ = rows.Close() }()

	vaults := make([]*domain.Vault, 0)
	for rows.Next() {
		var vault domain.Vault
		if err := rows.Scan(
			&vault.ID,
			&vault.Name,
			&vault.Description,
			&vault.Icon,
			&vault.OwnerID,
			&vault.IsDeleted,
			&vault.CreatedAt,
			&vault.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan vault")
		}
		vaults = append(vaults, &vault)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate vaults")
	}
	return vaults, nil
}

// CountForUser returns the total number of live vaults visible to the user.
func (r *PostgreSQLVaultRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM vaults
			  WHERE is_deleted = FALSE
			    AND (owner_id = $1 OR id IN (SELECT vault_id FROM vault_shares WHERE user_id = $1))`

	var total int
	if err := querier.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to count vaults")
	}
	return total, nil
}

// HardDeleteByOwner physically removes every vault owned by a user. Account
// deletion is the only caller; credentials and shares cascade via foreign
// keys.
func (r *PostgreSQLVaultRepository) HardDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM vaults WHERE owner_id = $1`, ownerID); err != nil {
		return apperrors.Wrap(err, "failed to delete owned vaults")
	}
	return nil
}

func scanVault(row *sql.Row) (*domain.Vault, error) {
	var vault domain.Vault
	err := row.Scan(
		&vault.ID,
		&vault.Name,
		&vault.Description,
		&vault.Icon,
		&vault.OwnerID,
		&vault.IsDeleted,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get vault")
	}
	return &vault, nil
}

func requireRowAffected(result sql.Result, notFound error, message string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, message)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
