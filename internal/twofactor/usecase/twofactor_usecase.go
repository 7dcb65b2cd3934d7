package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/database"
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	identityUsecase "github.com/allisson/passvault/internal/identity/usecase"
	"github.com/allisson/passvault/internal/twofactor/domain"
	"github.com/allisson/passvault/internal/twofactor/service"
)

// twoFactorUseCase implements TwoFactorUseCase.
type twoFactorUseCase struct {
	totp        service.TOTPService
	backupCodes service.BackupCodeService
	userRepo    identityUsecase.UserRepository
	codeRepo    BackupCodeRepository
	txManager   database.TxManager
	cfg         *config.Config
}

// NewTwoFactorUseCase creates a new TwoFactorUseCase.
func NewTwoFactorUseCase(
	totp service.TOTPService,
	backupCodes service.BackupCodeService,
	userRepo identityUsecase.UserRepository,
	codeRepo BackupCodeRepository,
	txManager database.TxManager,
	cfg *config.Config,
) TwoFactorUseCase {
	return &twoFactorUseCase{
		totp:        totp,
		backupCodes: backupCodes,
		userRepo:    userRepo,
		codeRepo:    codeRepo,
		txManager:   txManager,
		cfg:         cfg,
	}
}

// Setup generates a secret and moves the account to pending_verification.
func (u *twoFactorUseCase) Setup(ctx context.Context, userID uuid.UUID) (*SetupOutput, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorStatus == identityDomain.TwoFactorEnabled {
		return nil, domain.ErrTwoFactorAlreadyEnabled
	}

	secret, otpauthURL, err := u.totp.GenerateSecret(user.Email)
	if err != nil {
		return nil, err
	}

	user.TOTPSecret = secret
	user.TwoFactorStatus = identityDomain.TwoFactorPendingVerification
	user.UpdatedAt = time.Now().UTC()
	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return &SetupOutput{Secret: secret, OTPAuthURL: otpauthURL}, nil
}

// Activate verifies the pending secret and enables two-factor. The user state
// change and the backup code insert commit together.
func (u *twoFactorUseCase) Activate(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorStatus != identityDomain.TwoFactorPendingVerification {
		return nil, domain.ErrTwoFactorNotPending
	}
	if !u.totp.ValidateCode(user.TOTPSecret, code) {
		return nil, identityDomain.ErrInvalidTwoFactorCode
	}

	plainCodes, hashes, err := u.backupCodes.GenerateCodes(u.cfg.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	codes := make([]*domain.BackupCode, len(hashes))
	for i, hash := range hashes {
		codes[i] = &domain.BackupCode{
			ID:        uuid.Must(uuid.NewV7()),
			UserID:    user.ID,
			CodeHash:  hash,
			CreatedAt: now,
		}
	}

	user.TwoFactorStatus = identityDomain.TwoFactorEnabled
	user.UpdatedAt = now

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return u.codeRepo.ReplaceForUser(ctx, user.ID, codes)
	})
	if err != nil {
		return nil, err
	}
	return plainCodes, nil
}

// Disable turns two-factor off after proving code possession.
func (u *twoFactorUseCase) Disable(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorStatus != identityDomain.TwoFactorEnabled {
		return domain.ErrTwoFactorNotEnabled
	}
	if err := u.VerifyCode(ctx, user, code); err != nil {
		return err
	}

	user.TOTPSecret = ""
	user.TwoFactorStatus = identityDomain.TwoFactorDisabled
	user.UpdatedAt = time.Now().UTC()

	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Update(ctx, user); err != nil {
			return err
		}
		return u.codeRepo.DeleteByUser(ctx, user.ID)
	})
}

// VerifyCode accepts a TOTP code within the configured skew, or consumes one
// unused backup code.
func (u *twoFactorUseCase) VerifyCode(ctx context.Context, user *identityDomain.User, code string) error {
	if code == "" {
		return identityDomain.ErrTwoFactorRequired
	}
	if u.totp.ValidateCode(user.TOTPSecret, code) {
		return nil
	}

	active, err := u.codeRepo.ListActiveByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, backupCode := range active {
		if u.backupCodes.Verify(code, backupCode.CodeHash) {
			return u.codeRepo.MarkUsed(ctx, backupCode.ID, time.Now().UTC())
		}
	}
	return identityDomain.ErrInvalidTwoFactorCode
}
