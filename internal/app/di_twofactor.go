package app

import (
	"fmt"

	twofactorRepository "github.com/allisson/passvault/internal/twofactor/repository"
	twofactorService "github.com/allisson/passvault/internal/twofactor/service"
	twofactorUsecase "github.com/allisson/passvault/internal/twofactor/usecase"
)

// TOTPService returns the TOTP secret and code service.
func (c *Container) TOTPService() twofactorService.TOTPService {
	c.totpServiceInit.Do(func() {
		c.totpService = twofactorService.NewTOTPService(
			c.config.TOTPIssuer,
			uint(c.config.TOTPSkewSteps),
		)
	})
	return c.totpService
}

// BackupCodeService returns the backup code generation service.
func (c *Container) BackupCodeService() twofactorService.BackupCodeService {
	c.backupCodeServiceInit.Do(func() {
		c.backupCodeService = twofactorService.NewBackupCodeService()
	})
	return c.backupCodeService
}

// BackupCodeRepository returns the backup code repository based on database driver.
func (c *Container) BackupCodeRepository() (*twofactorRepository.PostgreSQLBackupCodeRepository, error) {
	var err error
	c.backupCodeRepoInit.Do(func() {
		c.backupCodeRepo, err = c.initBackupCodeRepository()
		if err != nil {
			c.initErrors["backupCodeRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["backupCodeRepo"]; exists {
		return nil, storedErr
	}
	return c.backupCodeRepo, nil
}

// TwoFactorUseCase returns the two-factor use case.
func (c *Container) TwoFactorUseCase() (twofactorUsecase.TwoFactorUseCase, error) {
	var err error
	c.twoFactorUseCaseInit.Do(func() {
		c.twoFactorUseCase, err = c.initTwoFactorUseCase()
		if err != nil {
			c.initErrors["twoFactorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["twoFactorUseCase"]; exists {
		return nil, storedErr
	}
	return c.twoFactorUseCase, nil
}

// initBackupCodeRepository creates the backup code repository instance.
func (c *Container) initBackupCodeRepository() (*twofactorRepository.PostgreSQLBackupCodeRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for backup code repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return twofactorRepository.NewPostgreSQLBackupCodeRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTwoFactorUseCase creates the two-factor use case with all its dependencies.
func (c *Container) initTwoFactorUseCase() (twofactorUsecase.TwoFactorUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for two-factor use case: %w", err)
	}

	backupCodeRepo, err := c.BackupCodeRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get backup code repository for two-factor use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for two-factor use case: %w", err)
	}

	return twofactorUsecase.NewTwoFactorUseCase(
		c.TOTPService(),
		c.BackupCodeService(),
		userRepo,
		backupCodeRepo,
		txManager,
		c.config,
	), nil
}
