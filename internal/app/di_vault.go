package app

import (
	"fmt"

	vaultRepository "github.com/allisson/passvault/internal/vault/repository"
	vaultService "github.com/allisson/passvault/internal/vault/service"
	vaultUsecase "github.com/allisson/passvault/internal/vault/usecase"
)

// CredentialEncryptor returns the credential encryption service.
func (c *Container) CredentialEncryptor() (vaultService.CredentialEncryptor, error) {
	var err error
	c.credentialEncryptorInit.Do(func() {
		c.credentialEncryptor, err = vaultService.NewCredentialEncryptor(c.config.CredentialDataKey)
		if err != nil {
			err = fmt.Errorf("failed to create credential encryptor: %w", err)
			c.initErrors["credentialEncryptor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialEncryptor"]; exists {
		return nil, storedErr
	}
	return c.credentialEncryptor, nil
}

// VaultRepository returns the vault repository based on database driver.
func (c *Container) VaultRepository() (*vaultRepository.PostgreSQLVaultRepository, error) {
	var err error
	c.vaultRepoInit.Do(func() {
		c.vaultRepo, err = c.initVaultRepository()
		if err != nil {
			c.initErrors["vaultRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultRepo"]; exists {
		return nil, storedErr
	}
	return c.vaultRepo, nil
}

// CredentialRepository returns the credential repository based on database driver.
func (c *Container) CredentialRepository() (*vaultRepository.PostgreSQLCredentialRepository, error) {
	var err error
	c.credentialRepoInit.Do(func() {
		c.credentialRepo, err = c.initCredentialRepository()
		if err != nil {
			c.initErrors["credentialRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialRepo"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// VaultUseCase returns the vault use case.
func (c *Container) VaultUseCase() (vaultUsecase.VaultUseCase, error) {
	var err error
	c.vaultUseCaseInit.Do(func() {
		c.vaultUseCase, err = c.initVaultUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["vaultUseCase"]; exists {
		return nil, storedErr
	}
	return c.vaultUseCase, nil
}

// CredentialUseCase returns the credential use case.
func (c *Container) CredentialUseCase() (vaultUsecase.CredentialUseCase, error) {
	var err error
	c.credentialUseCaseInit.Do(func() {
		c.credentialUseCase, err = c.initCredentialUseCase()
		if err != nil {
			c.initErrors["credentialUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialUseCase"]; exists {
		return nil, storedErr
	}
	return c.credentialUseCase, nil
}

// initVaultRepository creates the vault repository instance.
func (c *Container) initVaultRepository() (*vaultRepository.PostgreSQLVaultRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for vault repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLVaultRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initCredentialRepository creates the credential repository instance.
func (c *Container) initCredentialRepository() (*vaultRepository.PostgreSQLCredentialRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for credential repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return vaultRepository.NewPostgreSQLCredentialRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initVaultUseCase creates the vault use case with all its dependencies.
func (c *Container) initVaultUseCase() (vaultUsecase.VaultUseCase, error) {
	vaultRepo, err := c.VaultRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault repository for vault use case: %w", err)
	}

	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for vault use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for vault use case: %w", err)
	}

	return vaultUsecase.NewVaultUseCase(vaultRepo, authorizer, auditUseCase), nil
}

// initCredentialUseCase creates the credential use case with all its dependencies.
func (c *Container) initCredentialUseCase() (vaultUsecase.CredentialUseCase, error) {
	credentialRepo, err := c.CredentialRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential repository for credential use case: %w", err)
	}

	vaultRepo, err := c.VaultRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault repository for credential use case: %w", err)
	}

	encryptor, err := c.CredentialEncryptor()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential encryptor for credential use case: %w", err)
	}

	authorizer, err := c.Authorizer()
	if err != nil {
		return nil, fmt.Errorf("failed to get authorizer for credential use case: %w", err)
	}

	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for credential use case: %w", err)
	}

	return vaultUsecase.NewCredentialUseCase(credentialRepo, vaultRepo, encryptor, authorizer, auditUseCase), nil
}
