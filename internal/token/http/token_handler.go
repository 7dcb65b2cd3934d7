package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	identityUsecase "github.com/allisson/passvault/internal/identity/usecase"
	tokenUsecase "github.com/allisson/passvault/internal/token/usecase"
	twofactorUsecase "github.com/allisson/passvault/internal/twofactor/usecase"
	customValidation "github.com/allisson/passvault/internal/validation"
)

// AuditLogger records audit entries. Recording is best-effort and never fails
// the request.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action auditDomain.Action, vaultID, credentialID *uuid.UUID, details string)
}

// TokenHandler handles session lifecycle requests: login, refresh, and
// logout.
type TokenHandler struct {
	userUseCase      identityUsecase.UserUseCase
	twoFactorUseCase twofactorUsecase.TwoFactorUseCase
	tokenUseCase     tokenUsecase.TokenUseCase
	audit            AuditLogger
	logger           *slog.Logger
}

// NewTokenHandler creates a new token handler with required dependencies.
func NewTokenHandler(
	userUseCase identityUsecase.UserUseCase,
	twoFactorUseCase twofactorUsecase.TwoFactorUseCase,
	tokenUseCase tokenUsecase.TokenUseCase,
	audit AuditLogger,
	logger *slog.Logger,
) *TokenHandler {
	return &TokenHandler{
		userUseCase:      userUseCase,
		twoFactorUseCase: twoFactorUseCase,
		tokenUseCase:     tokenUseCase,
		audit:            audit,
		logger:           logger,
	}
}

// LoginRequest contains the credentials for password authentication. The
// two-factor code is required only for accounts with two-factor enabled.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	TwoFactorCode string `json:"two_factor_code"`
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, customValidation.NotBlank),
	)
}

// RefreshRequest carries the opaque refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Validate checks if the refresh request is valid.
func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required, customValidation.NotBlank),
	)
}

// TokenPairResponse is the login/refresh result handed to clients. The
// refresh token appears exactly once and is never recoverable afterwards.
type TokenPairResponse struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// LoginHandler authenticates a user and issues a token pair.
// POST /v1/auth/login - No authentication required.
// Returns 200 OK with the pair, 401 for bad credentials or a missing/invalid
// two-factor code, 423 while the account is locked out.
func (h *TokenHandler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userUseCase.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// The password alone never completes login for a two-factor account.
	if user.TwoFactorActive() {
		if err := h.twoFactorUseCase.VerifyCode(ctx, user, req.TwoFactorCode); err != nil {
			h.audit.Log(ctx, user.ID, auditDomain.ActionLoginFailed, nil, nil, "two-factor verification failed")
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
	}

	pair, err := h.tokenUseCase.IssuePair(ctx, user)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, user.ID, auditDomain.ActionLoginSucceeded, nil, nil, "")

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	})
}

// RefreshHandler rotates a refresh token into a new pair.
// POST /v1/auth/refresh - No authentication required; the refresh token is
// the credential. Returns 401 for unknown, revoked, or expired tokens.
func (h *TokenHandler) RefreshHandler(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	pair, err := h.tokenUseCase.Refresh(ctx, req.RefreshToken)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// The freshly issued access token identifies the rotating user.
	if claims, err := h.tokenUseCase.Validate(ctx, pair.AccessToken); err == nil {
		h.audit.Log(ctx, claims.UserID, auditDomain.ActionTokenRefreshed, nil, nil, "")
	}

	c.JSON(http.StatusOK, TokenPairResponse{
		AccessToken:           pair.AccessToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
	})
}

// LogoutHandler revokes the caller's refresh token. Outstanding access tokens
// remain valid until expiry.
// POST /v1/auth/logout - Requires authentication.
// Returns 204 No Content.
func (h *TokenHandler) LogoutHandler(c *gin.Context) {
	subject, ok := GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	if err := h.tokenUseCase.Logout(ctx, subject.UserID, req.RefreshToken); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, subject.UserID, auditDomain.ActionLogout, nil, nil, "")

	c.Data(http.StatusNoContent, "application/json", nil)
}
