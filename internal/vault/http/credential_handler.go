package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/passvault/internal/httputil"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	vaultUsecase "github.com/allisson/passvault/internal/vault/usecase"
)

// CredentialHandler handles credential CRUD and tag requests.
type CredentialHandler struct {
	credentialUseCase vaultUsecase.CredentialUseCase
	logger            *slog.Logger
}

// NewCredentialHandler creates a new credential handler with required dependencies.
func NewCredentialHandler(
	credentialUseCase vaultUsecase.CredentialUseCase,
	logger *slog.Logger,
) *CredentialHandler {
	return &CredentialHandler{
		credentialUseCase: credentialUseCase,
		logger:            logger,
	}
}

// CredentialResponse represents a credential in API responses. The secret is
// populated only on single-credential reads; list responses never carry it.
type CredentialResponse struct {
	ID        string    `json:"id"`
	VaultID   string    `json:"vault_id"`
	Name      string    `json:"name"`
	Username  string    `json:"username,omitempty"`
	Secret    string    `json:"secret,omitempty"`
	URL       string    `json:"url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateTagsRequest replaces a credential's tags.
type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

func mapCredentialToResponse(credential *vaultDomain.Credential, secret string) CredentialResponse {
	tags := credential.Tags
	if tags == nil {
		tags = []string{}
	}
	return CredentialResponse{
		ID:        credential.ID.String(),
		VaultID:   credential.VaultID.String(),
		Name:      credential.Name,
		Username:  credential.Username,
		Secret:    secret,
		URL:       credential.URL,
		Notes:     credential.Notes,
		Tags:      tags,
		CreatedAt: credential.CreatedAt,
		UpdatedAt: credential.UpdatedAt,
	}
}

// CreateHandler stores a new credential in a vault, sealing the secret.
// POST /v1/vaults/:id/credentials - Requires authentication and the edit tier
// for non-owners. Returns 201 Created without the secret.
func (h *CredentialHandler) CreateHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	vaultID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var input vaultUsecase.CredentialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	credential, err := h.credentialUseCase.Create(c.Request.Context(), subject, vaultID, &input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, mapCredentialToResponse(credential, ""))
}

// GetHandler retrieves a credential with its secret revealed. The reveal is
// audited.
// GET /v1/credentials/:id - Requires authentication and the view tier for
// non-owners.
func (h *CredentialHandler) GetHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	credentialID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	output, err := h.credentialUseCase.Get(c.Request.Context(), subject, credentialID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapCredentialToResponse(output.Credential, output.Secret))
}

// ListHandler lists the credentials of a vault without secrets.
// GET /v1/vaults/:id/credentials - Requires authentication.
func (h *CredentialHandler) ListHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	vaultID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	page := httputil.ParsePagination(c)

	result, err := h.credentialUseCase.List(c.Request.Context(), subject, vaultID, page)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	items := make([]CredentialResponse, len(result.Items))
	for i, credential := range result.Items {
		items[i] = mapCredentialToResponse(credential, "")
	}

	c.JSON(http.StatusOK, httputil.PaginatedResult[CredentialResponse]{
		Items:      items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalCount: result.TotalCount,
	})
}

// UpdateHandler modifies a credential. An empty secret keeps the stored one;
// a new secret is resealed.
// PUT /v1/credentials/:id - Requires authentication and the edit tier for
// non-owners.
func (h *CredentialHandler) UpdateHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	credentialID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var input vaultUsecase.CredentialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	credential, err := h.credentialUseCase.Update(c.Request.Context(), subject, credentialID, &input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapCredentialToResponse(credential, ""))
}

// UpdateTagsHandler replaces a credential's tags.
// PUT /v1/credentials/:id/tags - Requires authentication and the edit tier
// for non-owners.
func (h *CredentialHandler) UpdateTagsHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	credentialID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	credential, err := h.credentialUseCase.UpdateTags(c.Request.Context(), subject, credentialID, req.Tags)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapCredentialToResponse(credential, ""))
}

// DeleteHandler permanently removes a credential.
// DELETE /v1/credentials/:id - Requires authentication and the edit tier for
// non-owners. Returns 204 No Content.
func (h *CredentialHandler) DeleteHandler(c *gin.Context) {
	subject, ok := subjectFromContext(c, h.logger)
	if !ok {
		return
	}
	credentialID, ok := parseIDParam(c, "id", h.logger)
	if !ok {
		return
	}

	if err := h.credentialUseCase.Delete(c.Request.Context(), subject, credentialID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}
