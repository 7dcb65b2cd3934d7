package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/sharing/domain"
)

const invitationColumns = "id, vault_id, email, tier, token_hash, created_by, expires_at, consumed_at, created_at"

// PostgreSQLInvitationRepository implements invitation persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLInvitationRepository struct {
	db *sql.DB
}

// NewPostgreSQLInvitationRepository creates a new PostgreSQL invitation repository.
func NewPostgreSQLInvitationRepository(db *sql.DB) *PostgreSQLInvitationRepository {
	return &PostgreSQLInvitationRepository{db: db}
}

// Create inserts a new invitation.
func (r *PostgreSQLInvitationRepository) Create(ctx context.Context, invitation *domain.Invitation) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO vault_invitations (` + invitationColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		invitation.ID,
		invitation.VaultID,
		invitation.Email,
		int(invitation.Tier),
		invitation.TokenHash,
		invitation.CreatedBy,
		invitation.ExpiresAt,
		invitation.ConsumedAt,
		invitation.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create invitation")
	}
	return nil
}

// GetByTokenHash retrieves an invitation regardless of its consumed or
// expired state. Used to classify a failed consume.
func (r *PostgreSQLInvitationRepository) GetByTokenHash(
	ctx context.Context,
	tokenHash string,
) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + invitationColumns + ` FROM vault_invitations WHERE token_hash = $1`

	return scanInvitation(querier.QueryRowContext(ctx, query, tokenHash))
}

// Consume atomically marks a live invitation as used and returns it. Two
// concurrent accepts of the same token cannot both succeed.
func (r *PostgreSQLInvitationRepository) Consume(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*domain.Invitation, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE vault_invitations
			  SET consumed_at = $2
			  WHERE token_hash = $1 AND consumed_at IS NULL AND expires_at > $2
			  RETURNING ` + invitationColumns

	return scanInvitation(querier.QueryRowContext(ctx, query, tokenHash, now))
}

func scanInvitation(row *sql.Row) (*domain.Invitation, error) {
	var invitation domain.Invitation
	var tier int
	err := row.Scan(
		&invitation.ID,
		&invitation.VaultID,
		&invitation.Email,
		&tier,
		&invitation.TokenHash,
		&invitation.CreatedBy,
		&invitation.ExpiresAt,
		&invitation.ConsumedAt,
		&invitation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get invitation")
	}
	invitation.Tier = authzDomain.Tier(tier)
	return &invitation, nil
}
