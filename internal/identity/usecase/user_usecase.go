package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/identity/domain"
	identityService "github.com/allisson/passvault/internal/identity/service"
	appValidation "github.com/allisson/passvault/internal/validation"
)

// userUseCase implements UserUseCase.
type userUseCase struct {
	config          *config.Config
	txManager       database.TxManager
	userRepo        UserRepository
	vaultRemover    OwnedVaultRemover
	passwordService identityService.PasswordService
}

func (u *userUseCase) validateRegisterInput(input *RegisterInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 72).Error("password must be between 8 and 72 characters"),
			appValidation.PasswordStrength{
				MinLength:      8,
				RequireUpper:   true,
				RequireLower:   true,
				RequireNumber:  true,
				RequireSpecial: true,
			},
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates a new account. The email is case-folded before the
// uniqueness check, the password is hashed, and the configured default role
// is assigned.
func (u *userUseCase) Register(ctx context.Context, input *RegisterInput) (*domain.User, error) {
	if err := u.validateRegisterInput(input); err != nil {
		return nil, err
	}

	defaultRole, err := authzDomain.ParseRole(u.config.DefaultRole)
	if err != nil {
		return nil, apperrors.Wrap(err, "invalid default role configuration")
	}

	passwordHash, err := u.passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         strings.TrimSpace(input.Name),
		Email:        domain.NormalizeEmail(input.Email),
		PasswordHash: passwordHash,
		// Email delivery is outside this core; accounts start confirmed.
		EmailConfirmed:  true,
		Roles:           []authzDomain.Role{defaultRole},
		TwoFactorStatus: domain.TwoFactorDisabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the email/password pair.
//
// Failure handling:
//   - unknown email -> ErrInvalidCredentials (no enumeration)
//   - active lockout window -> ErrAccountLocked
//   - unconfirmed email -> ErrEmailUnconfirmed
//   - wrong password -> failure counter incremented; reaching the configured
//     maximum starts a lockout window
//
// On success the failure state is cleared, lastLoginAt is set, and a hash
// stored with an outdated cost factor is rehashed and persisted.
func (u *userUseCase) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := u.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now().UTC()
	if user.IsLocked(now) {
		return nil, domain.ErrAccountLocked
	}

	if !user.EmailConfirmed {
		return nil, domain.ErrEmailUnconfirmed
	}

	if !u.passwordService.Verify(password, user.PasswordHash) {
		user.FailedAttempts++
		if user.FailedAttempts >= u.config.LockoutMaxAttempts {
			lockedUntil := now.Add(u.config.LockoutDuration)
			user.LockedUntil = &lockedUntil
			user.FailedAttempts = 0
		}
		user.UpdatedAt = now
		if updateErr := u.userRepo.Update(ctx, user); updateErr != nil {
			return nil, updateErr
		}
		return nil, domain.ErrInvalidCredentials
	}

	// Successful login: clear failure state and rehash if needed.
	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.UpdatedAt = now

	if u.passwordService.NeedsRehash(user.PasswordHash) {
		newHash, hashErr := u.passwordService.Hash(password)
		if hashErr == nil {
			user.PasswordHash = newHash
		}
	}

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user by id.
func (u *userUseCase) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, id)
}

// UpdateProfile updates the caller's own profile fields.
func (u *userUseCase) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	input *UpdateProfileInput,
) (*domain.User, error) {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.UpdatedAt = time.Now().UTC()

	if err := u.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount permanently removes the account. Owned vaults are hard
// deleted in the same transaction (explicit cascade, not a soft delete).
func (u *userUseCase) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	return u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.vaultRemover.HardDeleteByOwner(ctx, userID); err != nil {
			return err
		}
		return u.userRepo.Delete(ctx, userID)
	})
}

// NewUserUseCase creates a new UserUseCase with the provided dependencies.
func NewUserUseCase(
	cfg *config.Config,
	txManager database.TxManager,
	userRepo UserRepository,
	vaultRemover OwnedVaultRemover,
	passwordService identityService.PasswordService,
) UserUseCase {
	return &userUseCase{
		config:          cfg,
		txManager:       txManager,
		userRepo:        userRepo,
		vaultRemover:    vaultRemover,
		passwordService: passwordService,
	}
}
