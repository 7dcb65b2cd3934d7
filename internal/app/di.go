// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditHTTP "github.com/allisson/passvault/internal/audit/http"
	auditRepository "github.com/allisson/passvault/internal/audit/repository"
	auditUsecase "github.com/allisson/passvault/internal/audit/usecase"
	authzUsecase "github.com/allisson/passvault/internal/authz/usecase"
	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/database"
	"github.com/allisson/passvault/internal/http"
	identityHTTP "github.com/allisson/passvault/internal/identity/http"
	identityRepository "github.com/allisson/passvault/internal/identity/repository"
	identityService "github.com/allisson/passvault/internal/identity/service"
	identityUsecase "github.com/allisson/passvault/internal/identity/usecase"
	"github.com/allisson/passvault/internal/metrics"
	sharingHTTP "github.com/allisson/passvault/internal/sharing/http"
	sharingRepository "github.com/allisson/passvault/internal/sharing/repository"
	sharingService "github.com/allisson/passvault/internal/sharing/service"
	sharingUsecase "github.com/allisson/passvault/internal/sharing/usecase"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	tokenRepository "github.com/allisson/passvault/internal/token/repository"
	tokenService "github.com/allisson/passvault/internal/token/service"
	tokenUsecase "github.com/allisson/passvault/internal/token/usecase"
	twofactorHTTP "github.com/allisson/passvault/internal/twofactor/http"
	twofactorRepository "github.com/allisson/passvault/internal/twofactor/repository"
	twofactorService "github.com/allisson/passvault/internal/twofactor/service"
	twofactorUsecase "github.com/allisson/passvault/internal/twofactor/usecase"
	vaultHTTP "github.com/allisson/passvault/internal/vault/http"
	vaultRepository "github.com/allisson/passvault/internal/vault/repository"
	vaultService "github.com/allisson/passvault/internal/vault/service"
	vaultUsecase "github.com/allisson/passvault/internal/vault/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Services
	passwordService        identityService.PasswordService
	accessTokenService     tokenService.AccessTokenService
	refreshTokenService    tokenService.RefreshTokenService
	totpService            twofactorService.TOTPService
	backupCodeService      twofactorService.BackupCodeService
	credentialEncryptor    vaultService.CredentialEncryptor
	invitationTokenService sharingService.InvitationTokenService

	// Repositories. Concrete types are kept so a single repository can back
	// the narrower reader interfaces of several modules.
	userRepo         *identityRepository.PostgreSQLUserRepository
	refreshTokenRepo *tokenRepository.PostgreSQLRefreshTokenRepository
	backupCodeRepo   *twofactorRepository.PostgreSQLBackupCodeRepository
	vaultRepo        *vaultRepository.PostgreSQLVaultRepository
	credentialRepo   *vaultRepository.PostgreSQLCredentialRepository
	shareRepo        *sharingRepository.PostgreSQLShareRepository
	invitationRepo   *sharingRepository.PostgreSQLInvitationRepository
	auditLogRepo     *auditRepository.PostgreSQLAuditLogRepository

	// Authorization
	authorizer authzUsecase.Authorizer

	// Use Cases
	userUseCase       identityUsecase.UserUseCase
	tokenUseCase      tokenUsecase.TokenUseCase
	twoFactorUseCase  twofactorUsecase.TwoFactorUseCase
	vaultUseCase      vaultUsecase.VaultUseCase
	credentialUseCase vaultUsecase.CredentialUseCase
	sharingUseCase    sharingUsecase.SharingUseCase
	auditUseCase      auditUsecase.AuditUseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                         sync.Mutex
	loggerInit                 sync.Once
	dbInit                     sync.Once
	txManagerInit              sync.Once
	metricsProviderInit        sync.Once
	businessMetricsInit        sync.Once
	passwordServiceInit        sync.Once
	accessTokenServiceInit     sync.Once
	refreshTokenServiceInit    sync.Once
	totpServiceInit            sync.Once
	backupCodeServiceInit      sync.Once
	credentialEncryptorInit    sync.Once
	invitationTokenServiceInit sync.Once
	userRepoInit               sync.Once
	refreshTokenRepoInit       sync.Once
	backupCodeRepoInit         sync.Once
	vaultRepoInit              sync.Once
	credentialRepoInit         sync.Once
	shareRepoInit              sync.Once
	invitationRepoInit         sync.Once
	auditLogRepoInit           sync.Once
	authorizerInit             sync.Once
	userUseCaseInit            sync.Once
	tokenUseCaseInit           sync.Once
	twoFactorUseCaseInit       sync.Once
	vaultUseCaseInit           sync.Once
	credentialUseCaseInit      sync.Once
	sharingUseCaseInit         sync.Once
	auditUseCaseInit           sync.Once
	httpServerInit             sync.Once
	metricsServerInit          sync.Once
	initErrors                 map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are
// disabled in configuration.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op
// implementation is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are
// disabled in configuration.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMetricsProvider creates the metrics provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for http server: %w", err)
	}
	tokenUseCase, err := c.TokenUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get token use case for http server: %w", err)
	}
	twoFactorUseCase, err := c.TwoFactorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get two-factor use case for http server: %w", err)
	}
	vaultUseCase, err := c.VaultUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get vault use case for http server: %w", err)
	}
	credentialUseCase, err := c.CredentialUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential use case for http server: %w", err)
	}
	sharingUseCase, err := c.SharingUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get sharing use case for http server: %w", err)
	}
	auditUseCase, err := c.AuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit use case for http server: %w", err)
	}
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	handlers := http.Handlers{
		User:       identityHTTP.NewUserHandler(userUseCase, auditUseCase, logger),
		Token:      tokenHTTP.NewTokenHandler(userUseCase, twoFactorUseCase, tokenUseCase, auditUseCase, logger),
		TwoFactor:  twofactorHTTP.NewTwoFactorHandler(twoFactorUseCase, auditUseCase, logger),
		Vault:      vaultHTTP.NewVaultHandler(vaultUseCase, logger),
		Credential: vaultHTTP.NewCredentialHandler(credentialUseCase, logger),
		Share:      sharingHTTP.NewShareHandler(sharingUseCase, logger),
		AuditLog:   auditHTTP.NewAuditLogHandler(auditUseCase, logger),
	}

	return http.NewServer(c.config, logger, handlers, tokenUseCase, metricsProvider), nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if metricsProvider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), metricsProvider), nil
}
