// Package http provides HTTP handlers for querying the audit trail.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/audit/domain"
	auditUsecase "github.com/allisson/passvault/internal/audit/usecase"
	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
)

// AuditLogHandler handles audit trail query requests.
type AuditLogHandler struct {
	auditUseCase auditUsecase.AuditUseCase
	logger       *slog.Logger
}

// NewAuditLogHandler creates a new audit log handler with required dependencies.
func NewAuditLogHandler(auditUseCase auditUsecase.AuditUseCase, logger *slog.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		auditUseCase: auditUseCase,
		logger:       logger,
	}
}

// AuditLogResponse represents an audit entry in API responses.
type AuditLogResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Action       string     `json:"action"`
	VaultID      *uuid.UUID `json:"vault_id,omitempty"`
	CredentialID *uuid.UUID `json:"credential_id,omitempty"`
	Details      string     `json:"details,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func mapAuditLogToResponse(entry *domain.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:           entry.ID.String(),
		UserID:       entry.UserID.String(),
		Action:       string(entry.Action),
		VaultID:      entry.VaultID,
		CredentialID: entry.CredentialID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
		CreatedAt:    entry.CreatedAt,
	}
}

func mapResult(result *httputil.PaginatedResult[*domain.AuditLog]) httputil.PaginatedResult[AuditLogResponse] {
	items := make([]AuditLogResponse, len(result.Items))
	for i, entry := range result.Items {
		items[i] = mapAuditLogToResponse(entry)
	}
	return httputil.PaginatedResult[AuditLogResponse]{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	}
}

func (h *AuditLogHandler) subject(c *gin.Context) (authzDomain.Subject, bool) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return authzDomain.Subject{}, false
	}
	return subject, true
}

// parseFilter reads optional action and RFC 3339 time boundary query
// parameters.
func parseFilter(c *gin.Context) (domain.Filter, error) {
	var filter domain.Filter

	if raw := c.Query("action"); raw != "" {
		action := domain.Action(raw)
		filter.Action = &action
	}
	if raw := c.Query("created_at_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_from: must be RFC 3339")
		}
		from = from.UTC()
		filter.CreatedAtFrom = &from
	}
	if raw := c.Query("created_at_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid created_at_to: must be RFC 3339")
		}
		to = to.UTC()
		filter.CreatedAtTo = &to
	}
	return filter, nil
}

// ListOwnHandler lists the caller's own audit entries.
// GET /v1/profile/audit-logs - Requires authentication.
func (h *AuditLogHandler) ListOwnHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	page := httputil.ParsePagination(c)

	result, err := h.auditUseCase.QueryForUser(c.Request.Context(), subject, subject.UserID, filter, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapResult(result))
}

// ListForUserHandler lists a user's audit entries. Reading another user's
// trail requires the audit read permission.
// GET /v1/users/:id/audit-logs - Requires authentication.
func (h *AuditLogHandler) ListForUserHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	targetUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid id format: must be a valid UUID"),
			h.logger)
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	page := httputil.ParsePagination(c)

	result, err := h.auditUseCase.QueryForUser(c.Request.Context(), subject, targetUserID, filter, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapResult(result))
}

// ListForVaultHandler lists a vault's audit entries. Requires owner or share
// access to the vault; works on soft-deleted vaults so history stays
// readable.
// GET /v1/vaults/:id/audit-logs - Requires authentication.
func (h *AuditLogHandler) ListForVaultHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	vaultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid id format: must be a valid UUID"),
			h.logger)
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	page := httputil.ParsePagination(c)

	result, err := h.auditUseCase.QueryForVault(c.Request.Context(), subject, vaultID, filter, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapResult(result))
}

// ListAllHandler lists audit entries across all users. Requires the audit
// read permission.
// GET /v1/audit-logs - Requires authentication.
func (h *AuditLogHandler) ListAllHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	page := httputil.ParsePagination(c)

	result, err := h.auditUseCase.QueryAll(c.Request.Context(), subject, filter, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapResult(result))
}

// GetHandler retrieves a single audit entry.
// GET /v1/audit-logs/:id - Requires authentication; accessible to the entry's
// author, an audit read permission holder, or the owner of the referenced
// vault.
func (h *AuditLogHandler) GetHandler(c *gin.Context) {
	subject, ok := h.subject(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid id format: must be a valid UUID"),
			h.logger)
		return
	}

	entry, err := h.auditUseCase.GetByID(c.Request.Context(), subject, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapAuditLogToResponse(entry))
}
