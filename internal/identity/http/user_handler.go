// Package http provides HTTP handlers for account registration and profile
// self-service.
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
	identityDomain "github.com/allisson/passvault/internal/identity/domain"
	identityUsecase "github.com/allisson/passvault/internal/identity/usecase"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	customValidation "github.com/allisson/passvault/internal/validation"
)

// AuditLogger records audit entries. Recording is best-effort and never fails
// the request.
type AuditLogger interface {
	Log(ctx context.Context, userID uuid.UUID, action auditDomain.Action, vaultID, credentialID *uuid.UUID, details string)
}

// UserHandler handles registration and profile requests.
type UserHandler struct {
	userUseCase identityUsecase.UserUseCase
	audit       AuditLogger
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler with required dependencies.
func NewUserHandler(
	userUseCase identityUsecase.UserUseCase,
	audit AuditLogger,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		audit:       audit,
		logger:      logger,
	}
}

// RegisterRequest contains the parameters for creating a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks if the register request is valid.
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

// UpdateProfileRequest contains the mutable profile fields.
type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Validate checks if the update profile request is valid.
func (r *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
	)
}

// UserResponse represents a user in API responses. Password and two-factor
// secrets never appear here.
type UserResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Roles           []string  `json:"roles"`
	TwoFactorStatus string    `json:"two_factor_status"`
	CreatedAt       time.Time `json:"created_at"`
}

func mapUserToResponse(user *identityDomain.User) UserResponse {
	roles := make([]string, len(user.Roles))
	for i, role := range user.Roles {
		roles[i] = string(role)
	}
	return UserResponse{
		ID:              user.ID.String(),
		Name:            user.Name,
		Email:           user.Email,
		Roles:           roles,
		TwoFactorStatus: string(user.TwoFactorStatus),
		CreatedAt:       user.CreatedAt,
	}
}

// RegisterHandler creates a new account with the default role.
// POST /v1/auth/register - No authentication required.
// Returns 201 Created with the new user, 409 when the email is taken.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	ctx := c.Request.Context()

	user, err := h.userUseCase.Register(ctx, &identityUsecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, user.ID, auditDomain.ActionUserRegistered, nil, nil, "")

	c.JSON(http.StatusCreated, mapUserToResponse(user))
}

// GetProfileHandler returns the caller's own profile.
// GET /v1/profile - Requires authentication.
func (h *UserHandler) GetProfileHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	user, err := h.userUseCase.GetByID(c.Request.Context(), subject.UserID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// UpdateProfileHandler updates the caller's own profile.
// PUT /v1/profile - Requires authentication and the profile permission.
func (h *UserHandler) UpdateProfileHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	user, err := h.userUseCase.UpdateProfile(c.Request.Context(), subject.UserID, &identityUsecase.UpdateProfileInput{
		Name: req.Name,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapUserToResponse(user))
}

// DeleteAccountHandler permanently removes the caller's account and the
// vaults it owns.
// DELETE /v1/profile - Requires authentication.
// Returns 204 No Content.
func (h *UserHandler) DeleteAccountHandler(c *gin.Context) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	ctx := c.Request.Context()

	if err := h.userUseCase.DeleteAccount(ctx, subject.UserID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.audit.Log(ctx, subject.UserID, auditDomain.ActionUserDeleted, nil, nil, "")

	c.Data(http.StatusNoContent, "application/json", nil)
}
