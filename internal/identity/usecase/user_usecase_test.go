package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/config"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/identity/domain"
)

// mockUserRepository is a mock implementation of UserRepository.
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockVaultRemover is a mock implementation of OwnedVaultRemover.
type mockVaultRemover struct {
	mock.Mock
}

func (m *mockVaultRemover) HardDeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// mockPasswordService is a mock implementation of PasswordService.
type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(plainPassword string) (string, error) {
	args := m.Called(plainPassword)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(plainPassword string, passwordHash string) bool {
	args := m.Called(plainPassword, passwordHash)
	return args.Bool(0)
}

func (m *mockPasswordService) NeedsRehash(passwordHash string) bool {
	args := m.Called(passwordHash)
	return args.Bool(0)
}

// fakeTxManager runs the function without a real transaction.
type fakeTxManager struct{}

func (f *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultRole:        "vault_owner",
		LockoutMaxAttempts: 3,
		LockoutDuration:    30 * time.Minute,
	}
}

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_AssignsDefaultRoleAndNormalizesEmail", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		passwordService.On("Hash", "Sup3r$ecret").Return("hashed-password", nil).Once()
		userRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
			return user.Email == "alice@test.local" &&
				user.Name == "Alice" &&
				user.PasswordHash == "hashed-password" &&
				len(user.Roles) == 1 &&
				user.Roles[0] == authzDomain.RoleVaultOwner &&
				user.TwoFactorStatus == domain.TwoFactorDisabled &&
				!user.CreatedAt.IsZero()
		})).Return(nil).Once()

		user, err := uc.Register(ctx, &RegisterInput{
			Name:     " Alice ",
			Email:    "Alice@Test.Local",
			Password: "Sup3r$ecret",
		})

		require.NoError(t, err)
		assert.Equal(t, "alice@test.local", user.Email)
		userRepo.AssertExpectations(t)
		passwordService.AssertExpectations(t)
	})

	t.Run("Error_DuplicateEmail", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		passwordService.On("Hash", "Sup3r$ecret").Return("hashed-password", nil).Once()
		userRepo.On("Create", ctx, mock.Anything).Return(domain.ErrEmailTaken).Once()

		_, err := uc.Register(ctx, &RegisterInput{
			Name:     "Alice",
			Email:    "alice@test.local",
			Password: "Sup3r$ecret",
		})

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("Error_WeakPassword", func(t *testing.T) {
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, &mockUserRepository{}, &mockVaultRemover{}, &mockPasswordService{})

		_, err := uc.Register(ctx, &RegisterInput{
			Name:     "Alice",
			Email:    "alice@test.local",
			Password: "password",
		})

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("Error_InvalidEmail", func(t *testing.T) {
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, &mockUserRepository{}, &mockVaultRemover{}, &mockPasswordService{})

		_, err := uc.Register(ctx, &RegisterInput{
			Name:     "Alice",
			Email:    "not-an-email",
			Password: "Sup3r$ecret",
		})

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
	})
}

func TestUserUseCase_Authenticate(t *testing.T) {
	ctx := context.Background()

	confirmedUser := func() *domain.User {
		return &domain.User{
			ID:             uuid.Must(uuid.NewV7()),
			Email:          "alice@test.local",
			PasswordHash:   "stored-hash",
			EmailConfirmed: true,
			Roles:          []authzDomain.Role{authzDomain.RoleVaultOwner},
		}
	}

	t.Run("Success_ClearsFailureStateAndSetsLastLogin", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		user := confirmedUser()
		user.FailedAttempts = 2

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()
		passwordService.On("Verify", "Sup3r$ecret", "stored-hash").Return(true).Once()
		passwordService.On("NeedsRehash", "stored-hash").Return(false).Once()
		userRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.User) bool {
			return updated.FailedAttempts == 0 &&
				updated.LockedUntil == nil &&
				updated.LastLoginAt != nil
		})).Return(nil).Once()

		authenticated, err := uc.Authenticate(ctx, "Alice@Test.Local", "Sup3r$ecret")

		require.NoError(t, err)
		assert.Equal(t, user.ID, authenticated.ID)
		userRepo.AssertExpectations(t)
		passwordService.AssertExpectations(t)
	})

	t.Run("Success_OutdatedHashIsRehashed", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		user := confirmedUser()

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()
		passwordService.On("Verify", "Sup3r$ecret", "stored-hash").Return(true).Once()
		passwordService.On("NeedsRehash", "stored-hash").Return(true).Once()
		passwordService.On("Hash", "Sup3r$ecret").Return("fresh-hash", nil).Once()
		userRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.User) bool {
			return updated.PasswordHash == "fresh-hash"
		})).Return(nil).Once()

		_, err := uc.Authenticate(ctx, "alice@test.local", "Sup3r$ecret")

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
		passwordService.AssertExpectations(t)
	})

	t.Run("Error_UnknownEmailReturnsInvalidCredentials", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, &mockPasswordService{})

		userRepo.On("GetByEmail", ctx, "ghost@test.local").Return(nil, domain.ErrUserNotFound).Once()

		_, err := uc.Authenticate(ctx, "ghost@test.local", "whatever")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Error_WrongPasswordIncrementsFailures", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		user := confirmedUser()

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()
		passwordService.On("Verify", "wrong", "stored-hash").Return(false).Once()
		userRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.User) bool {
			return updated.FailedAttempts == 1 && updated.LockedUntil == nil
		})).Return(nil).Once()

		_, err := uc.Authenticate(ctx, "alice@test.local", "wrong")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_ReachingMaxAttemptsStartsLockout", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		passwordService := &mockPasswordService{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, passwordService)

		user := confirmedUser()
		user.FailedAttempts = 2 // next failure is the third and final attempt

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()
		passwordService.On("Verify", "wrong", "stored-hash").Return(false).Once()
		userRepo.On("Update", ctx, mock.MatchedBy(func(updated *domain.User) bool {
			return updated.LockedUntil != nil && updated.LockedUntil.After(time.Now().UTC())
		})).Return(nil).Once()

		_, err := uc.Authenticate(ctx, "alice@test.local", "wrong")

		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_LockedAccount", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, &mockPasswordService{})

		user := confirmedUser()
		lockedUntil := time.Now().UTC().Add(10 * time.Minute)
		user.LockedUntil = &lockedUntil

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()

		_, err := uc.Authenticate(ctx, "alice@test.local", "Sup3r$ecret")

		assert.ErrorIs(t, err, domain.ErrAccountLocked)
		assert.True(t, apperrors.Is(err, apperrors.ErrLocked))
	})

	t.Run("Error_UnconfirmedEmail", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, &mockVaultRemover{}, &mockPasswordService{})

		user := confirmedUser()
		user.EmailConfirmed = false

		userRepo.On("GetByEmail", ctx, "alice@test.local").Return(user, nil).Once()

		_, err := uc.Authenticate(ctx, "alice@test.local", "Sup3r$ecret")

		assert.ErrorIs(t, err, domain.ErrEmailUnconfirmed)
	})
}

func TestUserUseCase_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_CascadesToOwnedVaults", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		vaultRemover := &mockVaultRemover{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, vaultRemover, &mockPasswordService{})

		userID := uuid.Must(uuid.NewV7())
		vaultRemover.On("HardDeleteByOwner", mock.Anything, userID).Return(nil).Once()
		userRepo.On("Delete", mock.Anything, userID).Return(nil).Once()

		err := uc.DeleteAccount(ctx, userID)

		require.NoError(t, err)
		vaultRemover.AssertExpectations(t)
		userRepo.AssertExpectations(t)
	})

	t.Run("Error_VaultRemovalFailureAbortsUserDelete", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		vaultRemover := &mockVaultRemover{}
		uc := NewUserUseCase(testConfig(), &fakeTxManager{}, userRepo, vaultRemover, &mockPasswordService{})

		userID := uuid.Must(uuid.NewV7())
		vaultRemover.On("HardDeleteByOwner", mock.Anything, userID).
			Return(apperrors.New("store unreachable")).
			Once()

		err := uc.DeleteAccount(ctx, userID)

		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Delete")
	})
}
