package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	authzUsecase "github.com/allisson/passvault/internal/authz/usecase"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	appValidation "github.com/allisson/passvault/internal/validation"
	"github.com/allisson/passvault/internal/vault/domain"
)

// vaultUseCase implements VaultUseCase.
type vaultUseCase struct {
	vaultRepo  VaultRepository
	authorizer authzUsecase.Authorizer
	audit      AuditLogger
}

// NewVaultUseCase creates a new VaultUseCase.
func NewVaultUseCase(
	vaultRepo VaultRepository,
	authorizer authzUsecase.Authorizer,
	audit AuditLogger,
) VaultUseCase {
	return &vaultUseCase{
		vaultRepo:  vaultRepo,
		authorizer: authorizer,
		audit:      audit,
	}
}

func validateVaultInput(input *VaultInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Description,
			validation.Length(0, 1000).Error("description must be at most 1000 characters"),
		),
		validation.Field(&input.Icon,
			validation.Length(0, 255).Error("icon must be at most 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// authorize runs the resolver and maps a deny to a forbidden error.
func authorize(
	ctx context.Context,
	authorizer authzUsecase.Authorizer,
	subject authzDomain.Subject,
	action authzDomain.Action,
	resource *authzDomain.Resource,
) error {
	decision, err := authorizer.Authorize(ctx, subject, action, resource)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return apperrors.Wrap(apperrors.ErrForbidden, decision.Reason)
	}
	return nil
}

// Create makes a new vault owned by the subject.
func (u *vaultUseCase) Create(
	ctx context.Context,
	subject authzDomain.Subject,
	input *VaultInput,
) (*domain.Vault, error) {
	if err := validateVaultInput(input); err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionVaultCreate, nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	vault := &domain.Vault{
		ID:          uuid.Must(uuid.NewV7()),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Icon:        input.Icon,
		OwnerID:     subject.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.vaultRepo.Create(ctx, vault); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionVaultCreated, &vault.ID, nil, vault.Name)
	return vault, nil
}

// Get retrieves a vault. An absent or soft-deleted vault surfaces as not
// found before authorization runs.
func (u *vaultUseCase) Get(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
) (*domain.Vault, error) {
	vault, err := u.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionVaultRead, vault.Resource()); err != nil {
		return nil, err
	}
	return vault, nil
}

// List returns the vaults the subject owns or has a share on. The query is
// already subject-scoped, so no per-row authorization runs.
func (u *vaultUseCase) List(
	ctx context.Context,
	subject authzDomain.Subject,
	page httputil.Page,
) (*httputil.PaginatedResult[*domain.Vault], error) {
	page = httputil.ClampPage(page.Number, page.Size)

	total, err := u.vaultRepo.CountForUser(ctx, subject.UserID)
	if err != nil {
		return nil, err
	}
	vaults, err := u.vaultRepo.ListForUser(ctx, subject.UserID, page.Offset(), page.Size)
	if err != nil {
		return nil, err
	}
	return httputil.NewPaginatedResult(vaults, page, int64(total)), nil
}

// Update modifies a vault's mutable fields.
func (u *vaultUseCase) Update(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	input *VaultInput,
) (*domain.Vault, error) {
	if err := validateVaultInput(input); err != nil {
		return nil, err
	}

	vault, err := u.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionVaultUpdate, vault.Resource()); err != nil {
		return nil, err
	}

	vault.Name = strings.TrimSpace(input.Name)
	vault.Description = input.Description
	vault.Icon = input.Icon
	vault.UpdatedAt = time.Now().UTC()
	if err := u.vaultRepo.Update(ctx, vault); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionVaultUpdated, &vault.ID, nil, vault.Name)
	return vault, nil
}

// Delete soft-deletes a vault. The row stays behind for audit resolution.
func (u *vaultUseCase) Delete(ctx context.Context, subject authzDomain.Subject, vaultID uuid.UUID) error {
	vault, err := u.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionVaultDelete, vault.Resource()); err != nil {
		return err
	}

	if err := u.vaultRepo.SoftDelete(ctx, vaultID); err != nil {
		return err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionVaultDeleted, &vaultID, nil, vault.Name)
	return nil
}
