// Package http provides HTTP handlers for vault sharing and invitations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"github.com/jellydator/validation/is"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	"github.com/allisson/passvault/internal/sharing/domain"
	sharingUsecase "github.com/allisson/passvault/internal/sharing/usecase"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	customValidation "github.com/allisson/passvault/internal/validation"
)

// ShareHandler handles vault sharing and invitation requests.
type ShareHandler struct {
	sharingUseCase sharingUsecase.SharingUseCase
	logger         *slog.Logger
}

// NewShareHandler creates a new share handler with required dependencies.
func NewShareHandler(sharingUseCase sharingUsecase.SharingUseCase, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		sharingUseCase: sharingUseCase,
		logger:         logger,
	}
}

// ShareRequest grants a tier to the user behind an email address.
type ShareRequest struct {
	Email string `json:"email"`
	Tier  string `json:"tier"`
}

// Validate checks if the share request is valid.
func (r *ShareRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Tier, validation.Required, validation.In("view", "edit", "admin")),
	)
}

// ChangeTierRequest updates an existing share's tier.
type ChangeTierRequest struct {
	Tier string `json:"tier"`
}

// Validate checks if the change tier request is valid.
func (r *ChangeTierRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Tier, validation.Required, validation.In("view", "edit", "admin")),
	)
}

// AcceptInvitationRequest carries the plain invitation token.
type AcceptInvitationRequest struct {
	Token string `json:"token"`
}

// Validate checks if the accept invitation request is valid.
func (r *AcceptInvitationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Token, validation.Required, customValidation.NotBlank),
	)
}

// ShareResponse represents a resolved share in API responses.
type ShareResponse struct {
	VaultID   string `json:"vault_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Tier      string `json:"tier"`
	GrantedBy string `json:"granted_by"`
}

func mapShareToResponse(info *domain.ShareInfo) ShareResponse {
	return ShareResponse{
		VaultID:   info.VaultID.String(),
		UserID:    info.UserID.String(),
		Email:     info.Email,
		Name:      info.Name,
		Tier:      info.Tier.String(),
		GrantedBy: info.GrantedBy.String(),
	}
}

// InvitationResponse is the result of creating an invitation. The plain token
// is returned exactly once for out-of-band delivery.
type InvitationResponse struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *ShareHandler) subject(c *gin.Context) (authzDomain.Subject, bool) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return authzDomain.Subject{}, false
	}
	return subject, true
}

func (h *ShareHandler) idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid %s format: must be a valid UUID", name),
			h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// CreateHandler grants a tier on a vault to the user behind an email.
// POST /v1/vaults/:id/shares - Requires authentication; only the owner or an
// admin-tier sharer passes. Sharing again updates the tier in place.
// Returns 201 Created with the resolved share.
func (h *ShareHandler) CreateHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	vaultID, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	tier, err := authzDomain.ParseTier(req.Tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	info, err := h.sharingUseCase.Share(c.Request.Context(), subject, vaultID, req.Email, tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, mapShareToResponse(info))
}

// ListSharesHandler lists the resolved shares of a vault.
// GET /v1/vaults/:id/shares - Requires authentication; owner or admin-tier
// sharer only.
func (h *ShareHandler) ListSharesHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	vaultID, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	shares, err := h.sharingUseCase.ListShares(c.Request.Context(), subject, vaultID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	items := make([]ShareResponse, len(shares))
	for i, info := range shares {
		items[i] = mapShareToResponse(info)
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ChangeTierHandler updates an existing share's tier in place.
// PUT /v1/vaults/:id/shares/:user_id - Requires authentication; owner or
// admin-tier sharer only.
func (h *ShareHandler) ChangeTierHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	vaultID, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	targetUserID, ok := h.idParam(c, "user_id")
	if !ok {
		return
	}

	var req ChangeTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	tier, err := authzDomain.ParseTier(req.Tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	info, err := h.sharingUseCase.ChangeTier(c.Request.Context(), subject, vaultID, targetUserID, tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapShareToResponse(info))
}

// RevokeHandler removes a user's share from a vault.
// DELETE /v1/vaults/:id/shares/:user_id - Requires authentication; owner or
// admin-tier sharer only. Revoking the owner is rejected.
// Returns 204 No Content.
func (h *ShareHandler) RevokeHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	vaultID, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	targetUserID, ok := h.idParam(c, "user_id")
	if !ok {
		return
	}

	if err := h.sharingUseCase.Revoke(c.Request.Context(), subject, vaultID, targetUserID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// InviteHandler creates a time-boxed, single-use, email-bound invitation.
// POST /v1/vaults/:id/invitations - Requires authentication; owner or
// admin-tier sharer only. Returns 201 Created with the plain token.
func (h *ShareHandler) InviteHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}
	vaultID, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	tier, err := authzDomain.ParseTier(req.Tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	plainToken, invitation, err := h.sharingUseCase.Invite(c.Request.Context(), subject, vaultID, req.Email, tier)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, InvitationResponse{
		Token:     plainToken,
		Email:     invitation.Email,
		Tier:      invitation.Tier.String(),
		ExpiresAt: invitation.ExpiresAt,
	})
}

// AcceptInvitationHandler consumes an invitation token and grants the share
// it encodes. The caller's email must match the invited email.
// POST /v1/invitations/accept - Requires authentication.
func (h *ShareHandler) AcceptInvitationHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	var req AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	info, err := h.sharingUseCase.AcceptInvitation(c.Request.Context(), subject, req.Token)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapShareToResponse(info))
}
