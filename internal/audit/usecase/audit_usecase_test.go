package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/passvault/internal/audit/domain"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	authzUsecase "github.com/allisson/passvault/internal/authz/usecase"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

func (m *mockAuditLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, userID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter domain.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuditLogRepository) ListByVault(ctx context.Context, vaultID uuid.UUID, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, vaultID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) CountByVault(ctx context.Context, vaultID uuid.UUID, filter domain.Filter) (int64, error) {
	args := m.Called(ctx, vaultID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuditLogRepository) ListAll(ctx context.Context, filter domain.Filter, offset, limit int) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) CountAll(ctx context.Context, filter domain.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type mockVaultReader struct {
	mock.Mock
}

func (m *mockVaultReader) GetAnyByID(ctx context.Context, id uuid.UUID) (*vaultDomain.Vault, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Vault), args.Error(1)
}

type stubShareReader struct {
	tiers map[uuid.UUID]authzDomain.Tier
}

func (s *stubShareReader) HasAccess(_ context.Context, _ uuid.UUID, userID uuid.UUID, minTier authzDomain.Tier) (bool, error) {
	tier, ok := s.tiers[userID]
	return ok && tier.Meets(minTier), nil
}

func newAuditUseCase(
	repo *mockAuditLogRepository,
	vaults *mockVaultReader,
	shares *stubShareReader,
) AuditUseCase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuditUseCase(repo, vaults, authzUsecase.NewAuthorizer(shares), logger)
}

func ownerSubject() authzDomain.Subject {
	return authzDomain.Subject{
		UserID: uuid.Must(uuid.NewV7()),
		Roles:  []authzDomain.Role{authzDomain.RoleVaultOwner},
	}
}

func auditorSubject() authzDomain.Subject {
	return authzDomain.Subject{
		UserID: uuid.Must(uuid.NewV7()),
		Roles:  []authzDomain.Role{authzDomain.RoleSecurityAuditor},
	}
}

func TestAuditUseCase_Log(t *testing.T) {
	t.Run("records entry with request metadata", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		userID := uuid.Must(uuid.NewV7())
		vaultID := uuid.Must(uuid.NewV7())
		ctx := domain.WithRequestInfo(context.Background(), domain.RequestInfo{
			IPAddress: "203.0.113.7",
			UserAgent: "curl/8.5.0",
		})

		repo.On("Create", ctx, mock.MatchedBy(func(entry *domain.AuditLog) bool {
			return entry.UserID == userID &&
				entry.Action == domain.ActionVaultCreated &&
				entry.VaultID != nil && *entry.VaultID == vaultID &&
				entry.IPAddress == "203.0.113.7" &&
				entry.UserAgent == "curl/8.5.0" &&
				entry.ID != uuid.Nil
		})).Return(nil)

		uc.Log(ctx, userID, domain.ActionVaultCreated, &vaultID, nil, "created vault")
		repo.AssertExpectations(t)
	})

	t.Run("persistence failure is swallowed", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})

		repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("store timeout"))

		assert.NotPanics(t, func() {
			uc.Log(context.Background(), uuid.Must(uuid.NewV7()), domain.ActionLogout, nil, nil, "")
		})
	})
}

func TestAuditUseCase_QueryForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("user reads their own trail", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		subject := ownerSubject()
		entries := []*domain.AuditLog{{ID: uuid.Must(uuid.NewV7()), UserID: subject.UserID}}

		repo.On("ListByUser", ctx, subject.UserID, domain.Filter{}, 0, 20).Return(entries, nil)
		repo.On("CountByUser", ctx, subject.UserID, domain.Filter{}).Return(int64(1), nil)

		result, err := uc.QueryForUser(ctx, subject, subject.UserID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, int64(1), result.TotalCount)
	})

	t.Run("reading another user's trail needs audit read", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		otherID := uuid.Must(uuid.NewV7())

		_, err := uc.QueryForUser(ctx, ownerSubject(), otherID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
		repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("auditor reads any user's trail", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		otherID := uuid.Must(uuid.NewV7())

		repo.On("ListByUser", ctx, otherID, domain.Filter{}, 0, 20).Return([]*domain.AuditLog{}, nil)
		repo.On("CountByUser", ctx, otherID, domain.Filter{}).Return(int64(0), nil)

		_, err := uc.QueryForUser(ctx, auditorSubject(), otherID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.NoError(t, err)
	})

	t.Run("out-of-range pagination is clamped", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		subject := ownerSubject()

		repo.On("ListByUser", ctx, subject.UserID, domain.Filter{}, 0, httputil.MaxPageSize).
			Return([]*domain.AuditLog{}, nil)
		repo.On("CountByUser", ctx, subject.UserID, domain.Filter{}).Return(int64(0), nil)

		result, err := uc.QueryForUser(ctx, subject, subject.UserID, domain.Filter{}, httputil.Page{Number: -3, Size: 5000})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, httputil.MaxPageSize, result.PageSize)
	})
}

func TestAuditUseCase_QueryForVault(t *testing.T) {
	ctx := context.Background()

	t.Run("owner reads the vault trail after soft delete", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		uc := newAuditUseCase(repo, vaults, &stubShareReader{})
		subject := ownerSubject()
		vault := &vaultDomain.Vault{ID: uuid.Must(uuid.NewV7()), OwnerID: subject.UserID, IsDeleted: true}

		vaults.On("GetAnyByID", ctx, vault.ID).Return(vault, nil)
		repo.On("ListByVault", ctx, vault.ID, domain.Filter{}, 0, 20).Return([]*domain.AuditLog{}, nil)
		repo.On("CountByVault", ctx, vault.ID, domain.Filter{}).Return(int64(0), nil)

		_, err := uc.QueryForVault(ctx, subject, vault.ID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.NoError(t, err)
	})

	t.Run("view-tier sharee reads the vault trail", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		sharee := ownerSubject()
		uc := newAuditUseCase(repo, vaults, &stubShareReader{tiers: map[uuid.UUID]authzDomain.Tier{sharee.UserID: authzDomain.TierView}})
		vault := &vaultDomain.Vault{ID: uuid.Must(uuid.NewV7()), OwnerID: uuid.Must(uuid.NewV7())}

		vaults.On("GetAnyByID", ctx, vault.ID).Return(vault, nil)
		repo.On("ListByVault", ctx, vault.ID, domain.Filter{}, 0, 20).Return([]*domain.AuditLog{}, nil)
		repo.On("CountByVault", ctx, vault.ID, domain.Filter{}).Return(int64(0), nil)

		_, err := uc.QueryForVault(ctx, sharee, vault.ID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.NoError(t, err)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		uc := newAuditUseCase(repo, vaults, &stubShareReader{})
		vault := &vaultDomain.Vault{ID: uuid.Must(uuid.NewV7()), OwnerID: uuid.Must(uuid.NewV7())}

		vaults.On("GetAnyByID", ctx, vault.ID).Return(vault, nil)

		_, err := uc.QueryForVault(ctx, ownerSubject(), vault.ID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("unknown vault reports not found", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		uc := newAuditUseCase(repo, vaults, &stubShareReader{})
		vaultID := uuid.Must(uuid.NewV7())

		vaults.On("GetAnyByID", ctx, vaultID).Return(nil, vaultDomain.ErrVaultNotFound)

		_, err := uc.QueryForVault(ctx, ownerSubject(), vaultID, domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.ErrorIs(t, err, vaultDomain.ErrVaultNotFound)
	})
}

func TestAuditUseCase_QueryAll(t *testing.T) {
	ctx := context.Background()

	t.Run("requires audit read", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})

		_, err := uc.QueryAll(ctx, ownerSubject(), domain.Filter{}, httputil.Page{Number: 1, Size: 20})
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("auditor lists with filter", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		action := domain.ActionLoginFailed
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		filter := domain.Filter{Action: &action, CreatedAtFrom: &from}

		repo.On("ListAll", ctx, filter, 0, 20).Return([]*domain.AuditLog{}, nil)
		repo.On("CountAll", ctx, filter).Return(int64(0), nil)

		_, err := uc.QueryAll(ctx, auditorSubject(), filter, httputil.Page{Number: 1, Size: 20})
		assert.NoError(t, err)
	})
}

func TestAuditUseCase_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("author reads their entry", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		subject := ownerSubject()
		entry := &domain.AuditLog{ID: uuid.Must(uuid.NewV7()), UserID: subject.UserID}

		repo.On("GetByID", ctx, entry.ID).Return(entry, nil)

		got, err := uc.GetByID(ctx, subject, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry, got)
	})

	t.Run("auditor reads any entry", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		entry := &domain.AuditLog{ID: uuid.Must(uuid.NewV7()), UserID: uuid.Must(uuid.NewV7())}

		repo.On("GetByID", ctx, entry.ID).Return(entry, nil)

		_, err := uc.GetByID(ctx, auditorSubject(), entry.ID)
		assert.NoError(t, err)
	})

	t.Run("vault owner reads an entry about their vault", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		uc := newAuditUseCase(repo, vaults, &stubShareReader{})
		subject := ownerSubject()
		vault := &vaultDomain.Vault{ID: uuid.Must(uuid.NewV7()), OwnerID: subject.UserID}
		entry := &domain.AuditLog{ID: uuid.Must(uuid.NewV7()), UserID: uuid.Must(uuid.NewV7()), VaultID: &vault.ID}

		repo.On("GetByID", ctx, entry.ID).Return(entry, nil)
		vaults.On("GetAnyByID", ctx, vault.ID).Return(vault, nil)

		_, err := uc.GetByID(ctx, subject, entry.ID)
		assert.NoError(t, err)
	})

	t.Run("unrelated user is denied", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		vaults := new(mockVaultReader)
		uc := newAuditUseCase(repo, vaults, &stubShareReader{})
		vault := &vaultDomain.Vault{ID: uuid.Must(uuid.NewV7()), OwnerID: uuid.Must(uuid.NewV7())}
		entry := &domain.AuditLog{ID: uuid.Must(uuid.NewV7()), UserID: uuid.Must(uuid.NewV7()), VaultID: &vault.ID}

		repo.On("GetByID", ctx, entry.ID).Return(entry, nil)
		vaults.On("GetAnyByID", ctx, vault.ID).Return(vault, nil)

		_, err := uc.GetByID(ctx, ownerSubject(), entry.ID)
		assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("missing entry reports not found", func(t *testing.T) {
		repo := new(mockAuditLogRepository)
		uc := newAuditUseCase(repo, new(mockVaultReader), &stubShareReader{})
		id := uuid.Must(uuid.NewV7())

		repo.On("GetByID", ctx, id).Return(nil, domain.ErrAuditLogNotFound)

		_, err := uc.GetByID(ctx, ownerSubject(), id)
		assert.ErrorIs(t, err, domain.ErrAuditLogNotFound)
	})
}
