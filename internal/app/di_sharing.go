package app

import (
	"fmt"

	sharingRepository "github.com/allisson/passvault/internal/sharing/repository"
	sharingService "github.com/allisson/passvault/internal/sharing/service"
	sharingUsecase "github.com/allisson/passvault/internal/sharing/usecase"
)

// InvitationTokenService returns the invitation token service.
func (c *Container) InvitationTokenService() sharingService.InvitationTokenService {
	c.invitationTokenServiceInit.Do(func() {
		c.invitationTokenService = sharingService.NewInvitationTokenService()
	})
	return c.invitationTokenService
}

// ShareRepository returns the vault share repository based on database driver.
func (c *Container) ShareRepository() (*sharingRepository.PostgreSQLShareRepository, error) {
	var err error
	c.shareRepoInit.Do(func() {
		c.shareRepo, err = c.initShareRepository()
		if err != nil {
			c.initErrors["shareRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["shareRepo"]; exists {
		return nil, storedErr
	}
	return c.shareRepo, nil
}

// InvitationRepository returns the invitation repository based on database driver.
func (c *Container) InvitationRepository() (*sharingRepository.PostgreSQLInvitationRepository, error) {
	var err error
	c.invitationRepoInit.Do(func() {
		c.invitationRepo, err = c.initInvitationRepository()
		if err != nil {
			c.initErrors["invitationRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["invitationRepo"]; exists {
		return nil, storedErr
	}
	return c.invitationRepo, nil
}

// SharingUseCase returns the sharing use case.
func (c *Container) SharingUseCase() (sharingUsecase.SharingUseCase, error) {
	var err error
	c.sharingUseCaseInit.Do(func() {
		c.sharingUseCase, err = c.initSharingUseCase()
		if err != nil {
			c.initErrors["sharingUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sharingUseCase"]; exists {
		return nil, storedErr
	}
	return c.sharingUseCase, nil
}

// initShareRepository creates the vault share repository instance.
func (c *Container) initShareRepository() (*sharingRepository.PostgreSQLShareRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for share repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return sharingRepository.NewPostgreSQLShareRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInvitationRepository creates the invitation repository instance.
func (c *Container) initInvitationRepository() (*sharingRepository.PostgreSQLInvitationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for invitation repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return sharingRepository.NewPostgreSQLInvitationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initSharingUseCase creates the sharing use case with all its dependencies.
func (c *Container) initSharingUseCase() (sharingUsecase.SharingUseCase, error) {
	shareRepo, err := c.ShareRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get share repository for sharing use case: %w", err)
	}

	invitationRepo, err := c.InvitationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation repository for sharing use case: %w", err)
	}

	vaultRepo, err := c.VaultRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault repository for sharing use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for sharing use case: %w", err)
	}

	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for sharing use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for sharing use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for sharing use case: %w", err)
	}

	return sharingUsecase.NewSharingUseCase(
		shareRepo,
		invitationRepo,
		vaultRepo,
		userRepo,
		c.InvitationTokenService(),
		authorizer,
		auditUseCase,
		txManager,
		c.config,
	), nil
}
