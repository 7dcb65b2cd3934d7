// Package http provides HTTP handlers for vault and credential operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	vaultUsecase "github.com/allisson/passvault/internal/vault/usecase"
)

// VaultHandler handles vault CRUD requests.
type VaultHandler struct {
	vaultUseCase vaultUsecase.VaultUseCase
	logger       *slog.Logger
}

// NewVaultHandler creates a new vault handler with required dependencies.
func NewVaultHandler(vaultUseCase vaultUsecase.VaultUseCase, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		vaultUseCase: vaultUseCase,
		logger:       logger,
	}
}

// VaultResponse represents a vault in API responses.
type VaultResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func mapVaultToResponse(vault *vaultDomain.Vault) VaultResponse {
	return VaultResponse{
		ID:          vault.ID.String(),
		Name:        vault.Name,
		Description: vault.Description,
		Icon:        vault.Icon,
		OwnerID:     vault.OwnerID.String(),
		CreatedAt:   vault.CreatedAt,
		UpdatedAt:   vault.UpdatedAt,
	}
}

// subjectFromContext resolves the authenticated subject or writes a 401.
func subjectFromContext(c *gin.Context, logger *slog.Logger) (authzDomain.Subject, bool) {
	subject, ok := tokenHTTP.GetSubject(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		return authzDomain.Subject{}, false
	}
	return subject, true
}

// parseIDParam parses a UUID path parameter or writes a 422.
func parseIDParam(c *gin.Context, name string, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid %s format: must be a valid UUID", name),
			logger)
		return uuid.Nil, false
	}
	return id, true
}

// CreateHandler creates a new vault owned by the caller.
// POST /v1/vaults - Requires authentication and the vault create permission.
// Returns 201 Created.
func (h *VaultHandler) CreateHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}

	var input vaultUsecase.VaultInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	vault, err := h.vaultUseCase.Create(c.Request.Context(), subject, &input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, mapVaultToResponse(vault))
}

// GetHandler retrieves a vault the caller can at least view.
// GET /v1/vaults/:id - Requires authentication.
func (h *VaultHandler) GetHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	vaultID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	vault, err := h.vaultUseCase.Get(c.Request.Context(), subject, vaultID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapVaultToResponse(vault))
}

// ListHandler lists the vaults the caller owns or has a share on.
// GET /v1/vaults - Requires authentication. Supports page/page_size query
// parameters; out-of-range values are clamped.
func (h *VaultHandler) ListHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}

	page := httputil.ParsePagination(c)

	result, err := h.vaultUseCase.List(c.Request.Context(), subject, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	items := make([]VaultResponse, len(result.Items))
	for i, vault := range result.Items {
		items[i] = mapVaultToResponse(vault)
	}

	c.JSON(http.StatusOK, httputil.PaginatedResult[VaultResponse]{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	})
}

// UpdateHandler modifies a vault. Requires the edit tier for non-owners.
// PUT /v1/vaults/:id - Requires authentication.
func (h *VaultHandler) UpdateHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	vaultID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var input vaultUsecase.VaultInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	vault, err := h.vaultUseCase.Update(c.Request.Context(), subject, vaultID, &input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapVaultToResponse(vault))
}

// DeleteHandler soft-deletes a vault. Requires the admin tier for non-owners.
// DELETE /v1/vaults/:id - Requires authentication.
// Returns 204 No Content.
func (h *VaultHandler) DeleteHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	vaultID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	if err := h.vaultUseCase.Delete(c.Request.Context(), subject, vaultID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
