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
	"github.com/allisson/passvault/internal/httputil"
	appValidation "github.com/allisson/passvault/internal/validation"
	"github.com/allisson/passvault/internal/vault/domain"
	"github.com/allisson/passvault/internal/vault/service"
)

// credentialUseCase implements CredentialUseCase.
type credentialUseCase struct {
	credentialRepo CredentialRepository
	vaultRepo      VaultRepository
	encryptor      service.CredentialEncryptor
	authorizer     authzUsecase.Authorizer
	audit          AuditLogger
}

// NewCredentialUseCase creates a new CredentialUseCase.
func NewCredentialUseCase(
	credentialRepo CredentialRepository,
	vaultRepo VaultRepository,
	encryptor service.CredentialEncryptor,
	authorizer authzUsecase.Authorizer,
	audit AuditLogger,
) CredentialUseCase {
	return &credentialUseCase{
		credentialRepo: credentialRepo,
		vaultRepo:      vaultRepo,
		encryptor:      encryptor,
		authorizer:     authorizer,
		audit:          audit,
	}
}

func validateCredentialInput(input *CredentialInput, secretRequired bool) error {
	secretRules := []validation.Rule{
		validation.Length(0, 4096).Error("secret must be at most 4096 characters"),
	}
	if secretRequired {
		secretRules = append(secretRules, validation.Required.Error("secret is required"))
	}

	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Username,
			validation.Length(0, 255).Error("username must be at most 255 characters"),
		),
		validation.Field(&input.Secret, secretRules...),
		validation.Field(&input.URL,
			validation.Length(0, 2048).Error("url must be at most 2048 characters"),
		),
		validation.Field(&input.Notes,
			validation.Length(0, 4096).Error("notes must be at most 4096 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Create seals the secret and stores a new credential in the vault. The seal
// binds the ciphertext to the credential id.
func (u *credentialUseCase) Create(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	input *CredentialInput,
) (*domain.Credential, error) {
	if err := validateCredentialInput(input, true); err != nil {
		return nil, err
	}

	vault, err := u.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionCredentialCreate, vault.Resource()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	credential := &domain.Credential{
		ID:        uuid.Must(uuid.NewV7()),
		VaultID:   vault.ID,
		Name:      strings.TrimSpace(input.Name),
		Username:  input.Username,
		URL:       input.URL,
		Notes:     input.Notes,
		Tags:      normalizeTags(input.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	ciphertext, nonce, err := u.encryptor.Seal([]byte(input.Secret), credential.ID[:])
	if err != nil {
		return nil, err
	}
	credential.SecretCiphertext = ciphertext
	credential.SecretNonce = nonce

	if err := u.credentialRepo.Create(ctx, credential); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionCredentialCreated, &vault.ID, &credential.ID, credential.Name)
	return credential, nil
}

// Get retrieves a credential and reveals its secret. Revealing is audited.
func (u *credentialUseCase) Get(
	ctx context.Context,
	subject authzDomain.Subject,
	credentialID uuid.UUID,
) (*CredentialOutput, error) {
	credential, vault, err := u.loadCredential(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionCredentialRead, vault.Resource()); err != nil {
		return nil, err
	}

	secret, err := u.encryptor.Open(credential.SecretCiphertext, credential.SecretNonce, credential.ID[:])
	if err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionCredentialRead, &vault.ID, &credential.ID, credential.Name)
	return &CredentialOutput{Credential: credential, Secret: string(secret)}, nil
}

// List returns the credentials of a vault without revealing secrets.
func (u *credentialUseCase) List(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	page httputil.Page,
) (*httputil.PaginatedResult[*domain.Credential], error) {
	vault, err := u.vaultRepo.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionCredentialRead, vault.Resource()); err != nil {
		return nil, err
	}

	page = httputil.ClampPage(page.Number, page.Size)
	total, err := u.credentialRepo.CountByVault(ctx, vault.ID)
	if err != nil {
		return nil, err
	}
	credentials, err := u.credentialRepo.ListByVault(ctx, vault.ID, page.Offset(), page.Size)
	if err != nil {
		return nil, err
	}
	return httputil.NewPaginatedResult(credentials, page, int64(total)), nil
}

// Update modifies a credential. An empty input secret keeps the stored
// ciphertext; a new one is sealed in its place.
func (u *credentialUseCase) Update(
	ctx context.Context,
	subject authzDomain.Subject,
	credentialID uuid.UUID,
	input *CredentialInput,
) (*domain.Credential, error) {
	if err := validateCredentialInput(input, false); err != nil {
		return nil, err
	}

	credential, vault, err := u.loadCredential(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionCredentialUpdate, vault.Resource()); err != nil {
		return nil, err
	}

	credential.Name = strings.TrimSpace(input.Name)
	credential.Username = input.Username
	credential.URL = input.URL
	credential.Notes = input.Notes
	credential.Tags = normalizeTags(input.Tags)
	credential.UpdatedAt = time.Now().UTC()

	if input.Secret != "" {
		ciphertext, nonce, err := u.encryptor.Seal([]byte(input.Secret), credential.ID[:])
		if err != nil {
			return nil, err
		}
		credential.SecretCiphertext = ciphertext
		credential.SecretNonce = nonce
	}

	if err := u.credentialRepo.Update(ctx, credential); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionCredentialUpdated, &vault.ID, &credential.ID, credential.Name)
	return credential, nil
}

// UpdateTags replaces a credential's tags without touching anything else.
func (u *credentialUseCase) UpdateTags(
	ctx context.Context,
	subject authzDomain.Subject,
	credentialID uuid.UUID,
	tags []string,
) (*domain.Credential, error) {
	credential, vault, err := u.loadCredential(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionTagManage, vault.Resource()); err != nil {
		return nil, err
	}

	credential.Tags = normalizeTags(tags)
	credential.UpdatedAt = time.Now().UTC()
	if err := u.credentialRepo.Update(ctx, credential); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionCredentialUpdated, &vault.ID, &credential.ID, "tags updated")
	return credential, nil
}

// Delete removes a credential permanently.
func (u *credentialUseCase) Delete(
	ctx context.Context,
	subject authzDomain.Subject,
	credentialID uuid.UUID,
) error {
	credential, vault, err := u.loadCredential(ctx, credentialID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, u.authorizer, subject, authzDomain.ActionCredentialDelete, vault.Resource()); err != nil {
		return err
	}

	if err := u.credentialRepo.Delete(ctx, credentialID); err != nil {
		return err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionCredentialDeleted, &vault.ID, &credentialID, credential.Name)
	return nil
}

// loadCredential resolves a credential and its parent vault. Absent rows map
// to not-found before any authorization decision.
func (u *credentialUseCase) loadCredential(
	ctx context.Context,
	credentialID uuid.UUID,
) (*domain.Credential, *domain.Vault, error) {
	credential, err := u.credentialRepo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, nil, err
	}
	vault, err := u.vaultRepo.GetByID(ctx, credential.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return credential, vault, nil
}

// normalizeTags trims, drops empties, and de-duplicates while keeping order.
func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
	}
	return normalized
}
