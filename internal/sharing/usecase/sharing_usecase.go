package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	authzUsecase "github.com/allisson/passvault/internal/authz/usecase"
	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	"github.com/allisson/passvault/internal/sharing/domain"
	"github.com/allisson/passvault/internal/sharing/service"
)

// sharingUseCase implements SharingUseCase.
type sharingUseCase struct {
	shareRepo       ShareRepository
	invitationRepo  InvitationRepository
	vaultReader     VaultReader
	userReader      UserReader
	invitationToken service.InvitationTokenService
	authorizer      authzUsecase.Authorizer
	audit           AuditLogger
	txManager       database.TxManager
	cfg             *config.Config
}

// NewSharingUseCase creates a new SharingUseCase.
func NewSharingUseCase(
	shareRepo ShareRepository,
	invitationRepo InvitationRepository,
	vaultReader VaultReader,
	userReader UserReader,
	invitationToken service.InvitationTokenService,
	authorizer authzUsecase.Authorizer,
	audit AuditLogger,
	txManager database.TxManager,
	cfg *config.Config,
) SharingUseCase {
	return &sharingUseCase{
		shareRepo:       shareRepo,
		invitationRepo:  invitationRepo,
		vaultReader:     vaultReader,
		userReader:      userReader,
		invitationToken: invitationToken,
		authorizer:      authorizer,
		audit:           audit,
		txManager:       txManager,
		cfg:             cfg,
	}
}

func validateTier(tier authzDomain.Tier) error {
	if tier < authzDomain.TierView || tier > authzDomain.TierAdmin {
		return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("invalid tier %d", tier))
	}
	return nil
}

// gate loads the vault and checks the caller may manage its shares: only the
// owner or an admin-tier sharer passes.
func (u *sharingUseCase) gate(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
) (*vaultResource, error) {
	vault, err := u.vaultReader.GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}

	decision, err := u.authorizer.Authorize(ctx, subject, authzDomain.ActionVaultShare, vault.Resource())
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, decision.Reason)
	}
	return &vaultResource{ID: vault.ID, OwnerID: vault.OwnerID}, nil
}

type vaultResource struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// Share grants targetEmail a tier on the vault, updating in place when a
// share already exists.
func (u *sharingUseCase) Share(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	targetEmail string,
	tier authzDomain.Tier,
) (*domain.ShareInfo, error) {
	if err := validateTier(tier); err != nil {
		return nil, err
	}

	vault, err := u.gate(ctx, subject, vaultID)
	if err != nil {
		return nil, err
	}

	target, err := u.userReader.GetByEmail(ctx, identityDomain.NormalizeEmail(targetEmail))
	if err != nil {
		return nil, err
	}
	if target.ID == vault.OwnerID {
		return nil, domain.ErrSelfShare
	}

	now := time.Now().UTC()
	share := &domain.VaultShare{
		VaultID:   vault.ID,
		UserID:    target.ID,
		Tier:      tier,
		GrantedBy: subject.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.shareRepo.Upsert(ctx, share); err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionVaultShared, &vault.ID, nil,
		fmt.Sprintf("shared with %s at tier %s", target.Email, tier))

	return &domain.ShareInfo{
		VaultID:   vault.ID,
		UserID:    target.ID,
		Email:     target.Email,
		Name:      target.Name,
		Tier:      tier,
		GrantedBy: subject.UserID,
	}, nil
}

// Revoke removes a user's share from the vault.
func (u *sharingUseCase) Revoke(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID, targetUserID uuid.UUID,
) error {
	vault, err := u.gate(ctx, subject, vaultID)
	if err != nil {
		return err
	}
	if targetUserID == vault.OwnerID {
		return domain.ErrOwnerRevoke
	}

	if err := u.shareRepo.Delete(ctx, vault.ID, targetUserID); err != nil {
		return err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionShareRevoked, &vault.ID, nil,
		fmt.Sprintf("revoked access for user %s", targetUserID))
	return nil
}

// ChangeTier updates an existing share's tier in place. Unlike Share, a
// missing share is an error rather than an implicit grant.
func (u *sharingUseCase) ChangeTier(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID, targetUserID uuid.UUID,
	newTier authzDomain.Tier,
) (*domain.ShareInfo, error) {
	if err := validateTier(newTier); err != nil {
		return nil, err
	}

	vault, err := u.gate(ctx, subject, vaultID)
	if err != nil {
		return nil, err
	}
	if targetUserID == vault.OwnerID {
		return nil, domain.ErrOwnerRevoke
	}

	share, err := u.shareRepo.Get(ctx, vault.ID, targetUserID)
	if err != nil {
		return nil, err
	}

	share.Tier = newTier
	share.GrantedBy = subject.UserID
	share.UpdatedAt = time.Now().UTC()
	if err := u.shareRepo.Upsert(ctx, share); err != nil {
		return nil, err
	}

	target, err := u.userReader.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionShareTierChanged, &vault.ID, nil,
		fmt.Sprintf("changed tier for %s to %s", target.Email, newTier))

	return &domain.ShareInfo{
		VaultID:   vault.ID,
		UserID:    target.ID,
		Email:     target.Email,
		Name:      target.Name,
		Tier:      newTier,
		GrantedBy: subject.UserID,
	}, nil
}

// ListShares returns the resolved shares of a vault.
func (u *sharingUseCase) ListShares(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
) ([]*domain.ShareInfo, error) {
	vault, err := u.gate(ctx, subject, vaultID)
	if err != nil {
		return nil, err
	}
	return u.shareRepo.ListByVault(ctx, vault.ID)
}

// HasAccess reports whether the user can act on the vault at the given tier.
// The owner always has access; soft-deleted vaults resolve so audit paths
// keep working.
func (u *sharingUseCase) HasAccess(
	ctx context.Context,
	vaultID, userID uuid.UUID,
	minTier authzDomain.Tier,
) (bool, error) {
	vault, err := u.vaultReader.GetAnyByID(ctx, vaultID)
	if err != nil {
		return false, err
	}
	if vault.OwnerID == userID {
		return true, nil
	}
	return u.shareRepo.HasAccess(ctx, vaultID, userID, minTier)
}

// Invite creates a time-boxed, single-use, email-bound invitation.
func (u *sharingUseCase) Invite(
	ctx context.Context,
	subject authzDomain.Subject,
	vaultID uuid.UUID,
	targetEmail string,
	tier authzDomain.Tier,
) (string, *domain.Invitation, error) {
	if err := validateTier(tier); err != nil {
		return "", nil, err
	}

	vault, err := u.gate(ctx, subject, vaultID)
	if err != nil {
		return "", nil, err
	}

	email := identityDomain.NormalizeEmail(targetEmail)
	if target, err := u.userReader.GetByEmail(ctx, email); err == nil && target.ID == vault.OwnerID {
		return "", nil, domain.ErrSelfShare
	}

	plainToken, tokenHash, err := u.invitationToken.Generate()
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	invitation := &domain.Invitation{
		ID:        uuid.Must(uuid.NewV7()),
		VaultID:   vault.ID,
		Email:     email,
		Tier:      tier,
		TokenHash: tokenHash,
		CreatedBy: subject.UserID,
		ExpiresAt: now.Add(u.cfg.InvitationExpiration),
		CreatedAt: now,
	}
	if err := u.invitationRepo.Create(ctx, invitation); err != nil {
		return "", nil, err
	}
	return plainToken, invitation, nil
}

// AcceptInvitation consumes the token and grants the encoded share. The
// consume and the share upsert commit together, so an email mismatch leaves
// the invitation untouched.
func (u *sharingUseCase) AcceptInvitation(
	ctx context.Context,
	subject authzDomain.Subject,
	plainToken string,
) (*domain.ShareInfo, error) {
	tokenHash := u.invitationToken.Hash(plainToken)
	now := time.Now().UTC()

	var info *domain.ShareInfo
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		invitation, err := u.invitationRepo.Consume(ctx, tokenHash, now)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return u.classifyFailedConsume(ctx, tokenHash, now)
			}
			return err
		}

		user, err := u.userReader.GetByID(ctx, subject.UserID)
		if err != nil {
			return err
		}
		if identityDomain.NormalizeEmail(user.Email) != invitation.Email {
			return domain.ErrInvitationEmailMismatch
		}

		vault, err := u.vaultReader.GetByID(ctx, invitation.VaultID)
		if err != nil {
			return err
		}
		if vault.OwnerID == user.ID {
			return domain.ErrSelfShare
		}

		share := &domain.VaultShare{
			VaultID:   vault.ID,
			UserID:    user.ID,
			Tier:      invitation.Tier,
			GrantedBy: invitation.CreatedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.shareRepo.Upsert(ctx, share); err != nil {
			return err
		}

		info = &domain.ShareInfo{
			VaultID:   vault.ID,
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Tier:      invitation.Tier,
			GrantedBy: invitation.CreatedBy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.audit.Log(ctx, subject.UserID, auditDomain.ActionInvitationAccepted, &info.VaultID, nil,
		fmt.Sprintf("accepted invitation at tier %s", info.Tier))
	return info, nil
}

// classifyFailedConsume distinguishes an unknown invitation from a consumed
// or expired one.
func (u *sharingUseCase) classifyFailedConsume(ctx context.Context, tokenHash string, now time.Time) error {
	invitation, err := u.invitationRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		return err
	}
	if invitation.ConsumedAt != nil {
		return domain.ErrInvitationConsumed
	}
	if !invitation.ExpiresAt.After(now) {
		return domain.ErrInvitationExpired
	}
	return domain.ErrInvitationNotFound
}
