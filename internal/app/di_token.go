package app

import (
	"fmt"

	tokenRepository "github.com/allisson/passvault/internal/token/repository"
	tokenService "github.com/allisson/passvault/internal/token/service"
	tokenUsecase "github.com/allisson/passvault/internal/token/usecase"
)

// AccessTokenService returns the JWT access token service.
func (c *Container) AccessTokenService() tokenService.AccessTokenService {
	c.accessTokenServiceInit.Do(func() {
		c.accessTokenService = tokenService.NewAccessTokenService(
			c.config.JWTSigningSecret,
			c.config.AccessTokenExpiration,
		)
	})
	return c.accessTokenService
}

// RefreshTokenService returns the opaque refresh token service.
func (c *Container) RefreshTokenService() tokenService.RefreshTokenService {
	c.refreshTokenServiceInit.Do(func() {
		c.refreshTokenService = tokenService.NewRefreshTokenService()
	})
	return c.refreshTokenService
}

// RefreshTokenRepository returns the refresh token repository based on database driver.
func (c *Container) RefreshTokenRepository() (*tokenRepository.PostgreSQLRefreshTokenRepository, error) {
	var err error
	c.refreshTokenRepoInit.Do(func() {
		c.refreshTokenRepo, err = c.initRefreshTokenRepository()
		if err != nil {
			c.initErrors["refreshTokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["refreshTokenRepo"]; exists {
		return nil, storedErr
	}
	return c.refreshTokenRepo, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (tokenUsecase.TokenUseCase, error) {
	var err error
	c.tokenUseCaseInit.Do(func() {
		c.tokenUseCase, err = c.initTokenUseCase()
		if err != nil {
			c.initErrors["tokenUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tokenUseCase"]; exists {
		return nil, storedErr
	}
	return c.tokenUseCase, nil
}

// initRefreshTokenRepository creates the refresh token repository instance.
func (c *Container) initRefreshTokenRepository() (*tokenRepository.PostgreSQLRefreshTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for refresh token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return tokenRepository.NewPostgreSQLRefreshTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (tokenUsecase.TokenUseCase, error) {
	refreshTokenRepo, err := c.RefreshTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token repository for token use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for token use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for token use case: %w", err)
	}

	return tokenUsecase.NewTokenUseCase(
		c.AccessTokenService(),
		c.RefreshTokenService(),
		refreshTokenRepo,
		userRepo,
		txManager,
		c.config,
	), nil
}
