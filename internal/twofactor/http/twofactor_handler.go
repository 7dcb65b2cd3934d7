// Package http provides HTTP handlers for two-factor enrollment.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	auditDomain "github.com/allisson/passvault/internal/audit/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	twofactorUsecase "github.com/allisson/passvault/internal/twofactor/usecase"
	customValidation "github.com/allisson/passvault/internal/validation"
)

// AuditLogger records audit entries. Recording is best-effort and never fails
// the request.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action auditDomain.Action, vaultID, credentialID *uuid.UUID, details string)
}

// TwoFactorHandler handles two-factor enrollment requests.
type TwoFactorHandler struct {
	twoFactorUseCase twofactorUsecase.TwoFactorUseCase
	audit            AuditLogger
	logger           *slog.Logger
}

// NewTwoFactorHandler creates a new two-factor handler with required dependencies.
func NewTwoFactorHandler(
	twoFactorUseCase twofactorUsecase.TwoFactorUseCase,
	audit AuditLogger,
	logger *slog.Logger,
) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactorUseCase: twoFactorUseCase,
		audit:            audit,
		logger:           logger,
	}
}

// CodeRequest carries a TOTP or backup code.
type CodeRequest struct {
	Code string `json:"code"`
}

// Validate checks if the code request is valid.
func (r *CodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code, validation.Required, customValidation.NotBlank),
	)
}

// ActivateResponse contains the plain backup codes. They are shown exactly
// once and cannot be retrieved again.
type ActivateResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// SetupHandler starts two-factor enrollment by generating a fresh secret.
// POST /v1/twofactor/setup - Requires authentication.
// Returns 200 OK with the secret and provisioning URL, 409 when two-factor is
// already enabled.
func (h *TwoFactorHandler) SetupHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	output, err := h.twoFactorUseCase.Setup(c.Request.Context(), subject.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, output)
}

// ActivateHandler confirms enrollment with a valid code and returns the plain
// backup codes.
// POST /v1/twofactor/activate - Requires authentication.
// Returns 200 OK with the backup codes, 401 for an invalid code, 422 when no
// enrollment is pending.
func (h *TwoFactorHandler) ActivateHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	backupCodes, err := h.twoFactorUseCase.Activate(ctx, subject.UserID, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, subject.UserID, auditDomain.ActionTwoFactorEnabled, nil, nil, "")

	c.JSON(http.StatusOK, ActivateResponse{BackupCodes: backupCodes})
}

// DisableHandler turns two-factor off. A currently valid TOTP or backup code
// is required.
// POST /v1/twofactor/disable - Requires authentication.
// Returns 204 No Content.
func (h *TwoFactorHandler) DisableHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	if err := h.twoFactorUseCase.Disable(ctx, subject.UserID, req.Code); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, subject.UserID, auditDomain.ActionTwoFactorDisabled, nil, nil, "")

	c.Data(http.StatusNoContent, "application/json", nil)
}
