package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/vault/domain"
)

const credentialColumns = "id, vault_id, name, username, secret_ciphertext, secret_nonce, url, notes, tags, created_at, updated_at"

// PostgreSQLCredentialRepository implements credential persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQL credential repository.
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{db: db}
}

// Create inserts a new credential.
func (r *PostgreSQLCredentialRepository) Create(ctx context.Context, credential *domain.Credential) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO credentials (` + credentialColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.VaultID,
		credential.Name,
		credential.Username,
		credential.SecretCiphertext,
		credential.SecretNonce,
		credential.URL,
		credential.Notes,
		pq.Array(credential.Tags),
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByID retrieves a credential. Credentials in soft-deleted vaults are
// invisible.
func (r *PostgreSQLCredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT c.id, c.vault_id, c.name, c.username, c.secret_ciphertext, c.secret_nonce,
					 c.url, c.notes, c.tags, c.created_at, c.updated_at
			  FROM credentials c
			  JOIN vaults v ON v.id = c.vault_id
			  WHERE c.id = $1 AND v.is_deleted = FALSE`

	return scanCredential(querier.QueryRowContext(ctx, query, id))
}

// Update persists mutable credential fields, the sealed secret included.
func (r *PostgreSQLCredentialRepository) Update(ctx context.Context, credential *domain.Credential) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE credentials
			  SET name = $2, username = $3, secret_ciphertext = $4, secret_nonce = $5,
				  url = $6, notes = $7, tags = $8, updated_at = $9
			  WHERE id = $1`

	result, err := querier.ExecContext(
		ctx,
		query,
		credential.ID,
		credential.Name,
		credential.Username,
		credential.SecretCiphertext,
		credential.SecretNonce,
		credential.URL,
		credential.Notes,
		pq.Array(credential.Tags),
		credential.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update credential")
	}
	return requireRowAffected(result, domain.ErrCredentialNotFound, "failed to update credential")
}

// Delete removes a credential. Credential deletion is a hard delete; only
// vaults are soft-deleted.
func (r *PostgreSQLCredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete credential")
	}
	return requireRowAffected(result, domain.ErrCredentialNotFound, "failed to delete credential")
}

// ListByVault returns the credentials of a vault, newest first.
func (r *PostgreSQLCredentialRepository) ListByVault(
	ctx context.Context,
	vaultID uuid.UUID,
	offset, limit int,
) ([]*domain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + credentialColumns + ` FROM credentials
			  WHERE vault_id = $1
			  ORDER BY id DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, vaultID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list credentials")
	}
	defer func() { _ = rows.Close() }()

	credentials := make([]*domain.Credential, 0)
	for rows.Next() {
		var credential domain.Credential
		var tags pq.StringArray
		if err := rows.Scan(
			&credential.ID,
			&credential.VaultID,
			&credential.Name,
			&credential.Username,
			&credential.SecretCiphertext,
			&credential.SecretNonce,
			&credential.URL,
			&credential.Notes,
			&tags,
			&credential.CreatedAt,
			&credential.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan credential")
		}
		credential.Tags = tags
		credentials = append(credentials, &credential)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate credentials")
	}
	return credentials, nil
}

// CountByVault returns the total number of credentials in a vault.
func (r *PostgreSQLCredentialRepository) CountByVault(ctx context.Context, vaultID uuid.UUID) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var total int
	if err := querier.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM credentials WHERE vault_id = $1`, vaultID,
	).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to count credentials")
	}
	return total, nil
}

func scanCredential(row *sql.Row) (*domain.Credential, error) {
	var credential domain.Credential
	var tags pq.StringArray
	err := row.Scan(
		&credential.ID,
		&credential.VaultID,
		&credential.Name,
		&credential.Username,
		&credential.SecretCiphertext,
		&credential.SecretNonce,
		&credential.URL,
		&credential.Notes,
		&tags,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}
	credential.Tags = tags
	return &credential, nil
}
