// Package repository provides audit trail persistence. The table is
// append-only: there is no update or delete here.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/audit/domain"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
)

const auditLogColumns = "id, user_id, action, vault_id, credential_id, details, ip_address, user_agent, created_at"

// PostgreSQLAuditLogRepository implements audit log persistence for
// PostgreSQL. Uses transaction support via database.GetTx().
type PostgreSQLAuditLogRepository struct {
	db *sql.DB
}

// NewPostgreSQLAuditLogRepository creates a new PostgreSQL audit log repository.
func NewPostgreSQLAuditLogRepository(db *sql.DB) *PostgreSQLAuditLogRepository {
	return &PostgreSQLAuditLogRepository{db: db}
}

// Create inserts a new audit log entry.
func (r *PostgreSQLAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO audit_logs (` + auditLogColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := querier.ExecContext(
		ctx,
		query,
		auditLog.ID,
		auditLog.UserID,
		string(auditLog.Action),
		auditLog.VaultID,
		auditLog.CredentialID,
		auditLog.Details,
		auditLog.IPAddress,
		auditLog.UserAgent,
		auditLog.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create audit log")
	}
	return nil
}

// GetByID retrieves a single audit log entry.
func (r *PostgreSQLAuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + auditLogColumns + ` FROM audit_logs WHERE id = $1`

	auditLog, err := scanAuditLog(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuditLogNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get audit log")
	}
	return auditLog, nil
}

// ListByUser retrieves a user's audit log entries, newest first.
func (r *PostgreSQLAuditLogRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.Filter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	return r.list(ctx, "user_id = $1", []any{userID}, filter, offset, limit)
}

// CountByUser returns the number of entries ListByUser would page through.
func (r *PostgreSQLAuditLogRepository) CountByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter domain.Filter,
) (int64, error) {
	return r.count(ctx, "user_id = $1", []any{userID}, filter)
}

// ListByVault retrieves a vault's audit log entries, newest first.
func (r *PostgreSQLAuditLogRepository) ListByVault(
	ctx context.Context,
	vaultID uuid.UUID,
	filter domain.Filter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	return r.list(ctx, "vault_id = $1", []any{vaultID}, filter, offset, limit)
}

// CountByVault returns the number of entries ListByVault would page through.
func (r *PostgreSQLAuditLogRepository) CountByVault(
	ctx context.Context,
	vaultID uuid.UUID,
	filter domain.Filter,
) (int64, error) {
	return r.count(ctx, "vault_id = $1", []any{vaultID}, filter)
}

// ListAll retrieves audit log entries across all users, newest first.
func (r *PostgreSQLAuditLogRepository) ListAll(
	ctx context.Context,
	filter domain.Filter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	return r.list(ctx, "", nil, filter, offset, limit)
}

// CountAll returns the number of entries ListAll would page through.
func (r *PostgreSQLAuditLogRepository) CountAll(ctx context.Context, filter domain.Filter) (int64, error) {
	return r.count(ctx, "", nil, filter)
}

func (r *PostgreSQLAuditLogRepository) list(
	ctx context.Context,
	baseClause string,
	baseArgs []any,
	filter domain.Filter,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := buildWhere(baseClause, baseArgs, filter)
	query := fmt.Sprintf(
		`SELECT %s FROM audit_logs%s ORDER BY id DESC LIMIT $%d OFFSET $%d`,
		auditLogColumns, where, len(args)+1, len(args)+2,
	)
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit logs")
	}
	defer func() { _ = rows.Close() }()

	auditLogs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		auditLog, err := scanAuditLog(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit log")
		}
		auditLogs = append(auditLogs, auditLog)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit logs")
	}
	return auditLogs, nil
}

func (r *PostgreSQLAuditLogRepository) count(
	ctx context.Context,
	baseClause string,
	baseArgs []any,
	filter domain.Filter,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := buildWhere(baseClause, baseArgs, filter)
	query := `SELECT COUNT(*) FROM audit_logs` + where

	var count int64
	if err := querier.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count audit logs")
	}
	return count, nil
}

// buildWhere appends the filter conditions to an optional base clause. Time
// boundaries are inclusive on both ends.
func buildWhere(baseClause string, baseArgs []any, filter domain.Filter) (string, []any) {
	clauses := make([]string, 0, 4)
	args := baseArgs
	if baseClause != "" {
		clauses = append(clauses, baseClause)
	}
	if filter.Action != nil {
		args = append(args, string(*filter.Action))
		clauses = append(clauses, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.CreatedAtFrom != nil {
		args = append(args, *filter.CreatedAtFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedAtTo != nil {
		args = append(args, *filter.CreatedAtTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditLog(row rowScanner) (*domain.AuditLog, error) {
	var auditLog domain.AuditLog
	var action string
	err := row.Scan(
		&auditLog.ID,
		&auditLog.UserID,
		&action,
		&auditLog.VaultID,
		&auditLog.CredentialID,
		&auditLog.Details,
		&auditLog.IPAddress,
		&auditLog.UserAgent,
		&auditLog.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	auditLog.Action = domain.Action(action)
	return &auditLog, nil
}
