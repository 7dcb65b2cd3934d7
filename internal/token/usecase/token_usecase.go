package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	"github.com/allisson/passvault/internal/token/domain"
	"github.com/allisson/passvault/internal/token/service"
)

// tokenUseCase implements TokenUseCase.
type tokenUseCase struct {
	accessTokens  service.AccessTokenService
	refreshTokens service.RefreshTokenService
	repo          RefreshTokenRepository
	users         UserReader
	txManager     database.TxManager
	cfg           *config.Config
}

// NewTokenUseCase creates a new TokenUseCase.
func NewTokenUseCase(
	accessTokens service.AccessTokenService,
	refreshTokens service.RefreshTokenService,
	repo RefreshTokenRepository,
	users UserReader,
	txManager database.TxManager,
	cfg *config.Config,
) TokenUseCase {
	return &tokenUseCase{
		accessTokens:  accessTokens,
		refreshTokens: refreshTokens,
		repo:          repo,
		users:         users,
		txManager:     txManager,
		cfg:           cfg,
	}
}

// IssuePair creates and stores a new refresh token and signs a matching
// access token.
func (u *tokenUseCase) IssuePair(ctx context.Context, user *identityDomain.User) (*domain.TokenPair, error) {
	return u.issuePair(ctx, user)
}

func (u *tokenUseCase) issuePair(ctx context.Context, user *identityDomain.User) (*domain.TokenPair, error) {
	accessToken, accessExpiresAt, err := u.accessTokens.Issue(user.ID, user.Name, user.Roles)
	if err != nil {
		return nil, err
	}

	plainToken, tokenHash, err := u.refreshTokens.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	refreshToken := &domain.RefreshToken{
		ID:        uuid.Must(uuid.NewV7()),
		TokenHash: tokenHash,
		UserID:    user.ID,
		ExpiresAt: now.Add(u.cfg.RefreshTokenExpiration),
		CreatedAt: now,
	}
	if err := u.repo.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          plainToken,
		RefreshTokenExpiresAt: refreshToken.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh token. The consume is a conditional update so only
// one of N concurrent calls with the same token wins. Claims for the new
// access token come from a fresh user load, not the old token.
func (u *tokenUseCase) Refresh(ctx context.Context, plainToken string) (*domain.TokenPair, error) {
	tokenHash := u.refreshTokens.Hash(plainToken)
	now := time.Now().UTC()

	var pair *domain.TokenPair
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		consumed, err := u.repo.Consume(ctx, tokenHash, now)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return u.classifyFailedConsume(ctx, tokenHash, now)
			}
			return err
		}

		user, err := u.users.GetByID(ctx, consumed.UserID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return domain.ErrRefreshTokenInvalid
			}
			return err
		}

		pair, err = u.issuePair(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// classifyFailedConsume distinguishes an unknown token from a revoked or
// expired one after the conditional update matched nothing.
func (u *tokenUseCase) classifyFailedConsume(ctx context.Context, tokenHash string, now time.Time) error {
	token, err := u.repo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return domain.ErrRefreshTokenInvalid
		}
		return err
	}
	if token.RevokedAt != nil {
		return domain.ErrRefreshTokenRevoked
	}
	if !token.ExpiresAt.After(now) {
		return domain.ErrRefreshTokenExpired
	}
	return domain.ErrRefreshTokenInvalid
}

// Validate checks the access token signature and expiry.
func (u *tokenUseCase) Validate(_ context.Context, accessToken string) (*service.AccessTokenClaims, error) {
	return u.accessTokens.Validate(accessToken)
}

// Logout revokes the refresh token if it belongs to the caller. An unknown or
// already revoked token is reported as invalid.
func (u *tokenUseCase) Logout(ctx context.Context, userID uuid.UUID, plainToken string) error {
	tokenHash := u.refreshTokens.Hash(plainToken)
	now := time.Now().UTC()

	err := u.repo.Revoke(ctx, tokenHash, userID, now)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return domain.ErrRefreshTokenInvalid
		}
		return err
	}
	return nil
}

// CleanExpired removes expired and revoked refresh tokens.
func (u *tokenUseCase) CleanExpired(ctx context.Context) (int64, error) {
	return u.repo.DeleteExpired(ctx, time.Now().UTC())
}
