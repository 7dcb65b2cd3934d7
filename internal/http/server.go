package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditHTTP "github.com/allisson/passvault/internal/audit/http"
	"github.com/allisson/passvault/internal/config"
	identityHTTP "github.com/allisson/passvault/internal/identity/http"
	"github.com/allisson/passvault/internal/metrics"
	sharingHTTP "github.com/allisson/passvault/internal/sharing/http"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	tokenUsecase "github.com/allisson/passvault/internal/token/usecase"
	twofactorHTTP "github.com/allisson/passvault/internal/twofactor/http"
	vaultHTTP "github.com/allisson/passvault/internal/vault/http"
)

// Handlers groups the per-module HTTP handlers the server routes to.
type Handlers struct {
	User       *identityHTTP.UserHandler
	Token      *tokenHTTP.TokenHandler
	TwoFactor  *twofactorHTTP.TwoFactorHandler
	Vault      *vaultHTTP.VaultHandler
	Credential *vaultHTTP.CredentialHandler
	Share      *sharingHTTP.ShareHandler
	AuditLog   *auditHTTP.AuditLogHandler
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server and wires all routes.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	handlers Handlers,
	tokenUseCase tokenUsecase.TokenUseCase,
	metricsProvider *metrics.Provider,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))
	router.Use(RequestInfoMiddleware())

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}
	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	registerRoutes(router, cfg, logger, handlers, tokenUseCase)

	return &Server{
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// registerRoutes wires the versioned API. Session bootstrap endpoints are
// rate-limited by client IP; everything behind authentication is rate-limited
// per user.
func registerRoutes(
	router *gin.Engine,
	cfg *config.Config,
	logger *slog.Logger,
	handlers Handlers,
	tokenUseCase tokenUsecase.TokenUseCase,
) {
	v1 := router.Group("/v1")

	public := v1.Group("")
	if cfg.RateLimitEnabled {
		public.Use(tokenHTTP.LoginRateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}
	public.POST("/auth/register", handlers.User.RegisterHandler)
	public.POST("/auth/login", handlers.Token.LoginHandler)
	public.POST("/auth/refresh", handlers.Token.RefreshHandler)

	protected := v1.Group("")
	protected.Use(tokenHTTP.AuthenticationMiddleware(tokenUseCase, logger))
	if cfg.RateLimitEnabled {
		protected.Use(tokenHTTP.RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger))
	}

	protected.POST("/auth/logout", handlers.Token.LogoutHandler)

	protected.GET("/profile", handlers.User.GetProfileHandler)
	protected.PUT("/profile", handlers.User.UpdateProfileHandler)
	protected.DELETE("/profile", handlers.User.DeleteAccountHandler)
	protected.GET("/profile/audit-logs", handlers.AuditLog.ListOwnHandler)

	protected.POST("/twofactor/setup", handlers.TwoFactor.SetupHandler)
	protected.POST("/twofactor/activate", handlers.TwoFactor.ActivateHandler)
	protected.POST("/twofactor/disable", handlers.TwoFactor.DisableHandler)

	protected.POST("/vaults", handlers.Vault.CreateHandler)
	protected.GET("/vaults", handlers.Vault.ListHandler)
	protected.GET("/vaults/:id", handlers.Vault.GetHandler)
	protected.PUT("/vaults/:id", handlers.Vault.UpdateHandler)
	protected.DELETE("/vaults/:id", handlers.Vault.DeleteHandler)

	protected.POST("/vaults/:id/credentials", handlers.Credential.CreateHandler)
	protected.GET("/vaults/:id/credentials", handlers.Credential.ListHandler)
	protected.GET("/credentials/:id", handlers.Credential.GetHandler)
	protected.PUT("/credentials/:id", handlers.Credential.UpdateHandler)
	protected.PUT("/credentials/:id/tags", handlers.Credential.UpdateTagsHandler)
	protected.DELETE("/credentials/:id", handlers.Credential.DeleteHandler)

	protected.POST("/vaults/:id/shares", handlers.Share.CreateHandler)
	protected.GET("/vaults/:id/shares", handlers.Share.ListSharesHandler)
	protected.PUT("/vaults/:id/shares/:user_id", handlers.Share.ChangeTierHandler)
	protected.DELETE("/vaults/:id/shares/:user_id", handlers.Share.RevokeHandler)
	protected.POST("/vaults/:id/invitations", handlers.Share.InviteHandler)
	protected.POST("/invitations/accept", handlers.Share.AcceptInvitationHandler)

	protected.GET("/vaults/:id/audit-logs", handlers.AuditLog.ListForVaultHandler)
	protected.GET("/users/:id/audit-logs", handlers.AuditLog.ListForUserHandler)
	protected.GET("/audit-logs", handlers.AuditLog.ListAllHandler)
	protected.GET("/audit-logs/:id", handlers.AuditLog.GetHandler)
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
