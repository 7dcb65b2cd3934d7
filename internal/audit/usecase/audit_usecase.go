package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	authzUsecase "github.com/allisson/passvault/internal/authz/usecase"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
)

// auditUseCase implements AuditUseCase.
type auditUseCase struct {
	auditLogRepo AuditLogRepository
	vaultReader  VaultReader
	authorizer   authzUsecase.Authorizer
	logger       *slog.Logger
}

// NewAuditUseCase creates a new AuditUseCase.
func NewAuditUseCase(
	auditLogRepo AuditLogRepository,
	vaultReader VaultReader,
	authorizer authzUsecase.Authorizer,
	logger *slog.Logger,
) AuditUseCase {
	return &auditUseCase{
		auditLogRepo: auditLogRepo,
		vaultReader:  vaultReader,
		authorizer:   authorizer,
		logger:       logger,
	}
}

// Log appends an entry describing an action that already succeeded. A
// persistence failure is logged and swallowed so it cannot undo or fail the
// primary operation.
func (u *auditUseCase) Log(
	ctx context.Context,
	userID uuid.UUID,
	action domain.Action,
	vaultID, credentialID *uuid.UUID,
	details string,
) {
	info := domain.RequestInfoFromContext(ctx)
	entry := &domain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       userID,
		Action:       action,
		VaultID:      vaultID,
		CredentialID: credentialID,
		Details:      details,
		IPAddress:    info.IPAddress,
		UserAgent:    info.UserAgent,
		CreatedAt:    time.Now().UTC(),
	}
	if err := u.auditLogRepo.Create(ctx, entry); err != nil {
		u.logger.ErrorContext(ctx, "failed to record audit log entry",
			slog.String("action", string(action)),
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// QueryForUser returns a user's own entries, or any user's entries when the
// caller holds the audit read permission.
func (u *auditUseCase) QueryForUser(
	ctx context.Context,
	subject authzDomain.Subject,
	targetUserID uuid.UUID,
	filter domain.Filter,
	page httputil.Page,
) (*httputil.PaginatedResult[*domain.AuditLog], error) {
	if subject.UserID != targetUserID && !hasAuditRead(subject) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "access denied")
	}

	page = httputil.ClampPage(page.Number, page.Size)
	return u.paginate(ctx, page,
		func(ctx context.Context) ([]*domain.AuditLog, error) {
			return u.auditLogRepo.ListByUser(ctx, targetUserID, filter, page.Offset(), page.Size)
		},
		func(ctx context.Context) (int64, error) {
			return u.auditLogRepo.CountByUser(ctx, targetUserID, filter)
		},
	)
}

// QueryForVault returns a vault's entries. Access follows the vault read
// rules, with soft-deleted vaults still resolvable so their history remains
// readable after deletion.
func (u *auditUseCase) QueryForVault(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	filter domain.Filter,
	page httputil.Page,
) (*httputil.PaginatedResult[*domain.AuditLog], error) {
	vault, err := u.vaultReader.GetAnyByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	decision, err := u.authorizer.Authorize(ctx, subject, authzDomain.ActionVaultAuditRead, vault.Resource())
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, decision.Reason)
	}

	page = httputil.ClampPage(page.Number, page.Size)
	return u.paginate(ctx, page,
		func(ctx context.Context) ([]*domain.AuditLog, error) {
			return u.auditLogRepo.ListByVault(ctx, vaultID, filter, page.Offset(), page.Size)
		},
		func(ctx context.Context) (int64, error) {
			return u.auditLogRepo.CountByVault(ctx, vaultID, filter)
		},
	)
}

// QueryAll returns entries across all users without ownership filtering.
func (u *auditUseCase) QueryAll(
	ctx context.Context,
	subject authzDomain.Subject,
	filter domain.Filter,
	page httputil.Page,
) (*httputil.PaginatedResult[*domain.AuditLog], error) {
	if !hasAuditRead(subject) {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "access denied")
	}

	page = httputil.ClampPage(page.Number, page.Size)
	return u.paginate(ctx, page,
		func(ctx context.Context) ([]*domain.AuditLog, error) {
			return u.auditLogRepo.ListAll(ctx, filter, page.Offset(), page.Size)
		},
		func(ctx context.Context) (int64, error) {
			return u.auditLogRepo.CountAll(ctx, filter)
		},
	)
}

// GetByID returns one entry when the caller authored it, holds the audit
// read permission, or owns the vault the entry references.
func (u *auditUseCase) GetByID(
	ctx context.Context,
	subject authzDomain.Subject,
	id uuid.UUID,
) (*domain.AuditLog, error) {
	entry, err := u.auditLogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if entry.UserID == subject.UserID || hasAuditRead(subject) {
		return entry, nil
	}
	if entry.VaultID != nil {
		vault, err := u.vaultReader.GetAnyByID(ctx, *entry.VaultID)
		if err == nil && vault.OwnerID == subject.UserID {
			return entry, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrForbidden, "access denied")
}

// paginate runs the row query and the total count concurrently; the two are
// independent statements against the same filtered set.
func (u *auditUseCase) paginate(
	ctx context.Context,
	page httputil.Page,
	list func(ctx context.Context) ([]*domain.AuditLog, error),
	count func(ctx context.Context) (int64, error),
) (*httputil.PaginatedResult[*domain.AuditLog], error) {
	var (
		entries []*domain.AuditLog
		total   int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = list(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return httputil.NewPaginatedResult(entries, page, total), nil
}

func hasAuditRead(subject authzDomain.Subject) bool {
	return authzDomain.EffectivePermissions(subject.Roles).Has(authzDomain.PermissionAuditRead)
}
