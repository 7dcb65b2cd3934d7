// Package integration provides end-to-end integration tests for the
// passvault API. Tests run against a real PostgreSQL database.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/passvault/internal/app"
	auditHTTP "github.com/allisson/passvault/internal/audit/http"
	"github.com/allisson/passvault/internal/config"
	identityHTTP "github.com/allisson/passvault/internal/identity/http"
	"github.com/allisson/passvault/internal/httputil"
	sharingHTTP "github.com/allisson/passvault/internal/sharing/http"
	"github.com/allisson/passvault/internal/testutil"
	tokenHTTP "github.com/allisson/passvault/internal/token/http"
	vaultHTTP "github.com/allisson/passvault/internal/vault/http"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
}

// makeRequest performs an HTTP request and returns the response and body. An
// empty token sends the request unauthenticated.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	token string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// generateDataKey creates a base64-encoded 256-bit credential sealing key.
func generateDataKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err, "failed to generate data key")
	return base64.StdEncoding.EncodeToString(key)
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := testutil.SetupPostgresDB(t)

	cfg := &config.Config{
		ServerHost:             "localhost",
		ServerPort:             8080,
		DBDriver:               "postgres",
		DBConnectionString:     testutil.GetPostgresTestDSN(),
		DBMaxOpenConnections:   10,
		DBMaxIdleConnections:   5,
		DBConnMaxLifetime:      time.Hour,
		LogLevel:               "error",
		JWTSigningSecret:       "integration-test-signing-secret",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		PasswordHashCost:       4, // minimum bcrypt cost to keep tests fast
		TOTPSkewSteps:          1,
		TOTPIssuer:             "passvault-test",
		BackupCodeCount:        10,
		DefaultRole:            "vault_owner",
		LockoutMaxAttempts:     10,
		LockoutDuration:        time.Minute,
		InvitationExpiration:   time.Hour,
		CredentialDataKey:      generateDataKey(t),
		RateLimitEnabled:       false,
		MetricsEnabled:         false,
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil")

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(handler),
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}
	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}
	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}
}

// registerAndLogin creates an account and returns its token pair.
func registerAndLogin(
	t *testing.T,
	ctx *integrationTestContext,
	name, email, password string,
) (identityHTTP.UserResponse, tokenHTTP.TokenPairResponse) {
	t.Helper()

	registerBody := identityHTTP.RegisterRequest{Name: name, Email: email, Password: password}
	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register failed: %s", body)

	var user identityHTTP.UserResponse
	require.NoError(t, json.Unmarshal(body, &user))

	loginBody := tokenHTTP.LoginRequest{Email: email, Password: password}
	resp, body = ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", loginBody, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %s", body)

	var pair tokenHTTP.TokenPairResponse
	require.NoError(t, json.Unmarshal(body, &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	return user, pair
}

// TestIntegration_Auth_CompleteFlow tests registration, login, profile
// self-service, token rotation, and the personal audit trail.
func TestIntegration_Auth_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	var (
		accessToken  string
		refreshToken string
	)

	// [1/8] Register a new account
	t.Run("01_Register", func(t *testing.T) {
		requestBody := identityHTTP.RegisterRequest{
			Name:     "Alice",
			Email:    "Alice@Example.com",
			Password: "correct-horse-battery",
		}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", requestBody, "")
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response identityHTTP.UserResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.ID)
		assert.Equal(t, "alice@example.com", response.Email, "email should be normalized")
		assert.Contains(t, response.Roles, "vault_owner")
		assert.Equal(t, "disabled", response.TwoFactorStatus)
	})

	// [2/8] Duplicate email is rejected
	t.Run("02_RegisterDuplicateEmail", func(t *testing.T) {
		requestBody := identityHTTP.RegisterRequest{
			Name:     "Alice Again",
			Email:    "alice@example.com",
			Password: "another-password-123",
		}

		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/register", requestBody, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	// [3/8] Login with the normalized email
	t.Run("03_Login", func(t *testing.T) {
		requestBody := tokenHTTP.LoginRequest{
			Email:    "alice@example.com",
			Password: "correct-horse-battery",
		}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", requestBody, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response tokenHTTP.TokenPairResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.AccessToken)
		assert.NotEmpty(t, response.RefreshToken)
		assert.True(t, response.AccessTokenExpiresAt.After(time.Now()))

		accessToken = response.AccessToken
		refreshToken = response.RefreshToken
	})

	// [4/8] Wrong password is rejected
	t.Run("04_LoginWrongPassword", func(t *testing.T) {
		requestBody := tokenHTTP.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong-password-here",
		}

		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/login", requestBody, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	// [5/8] Profile self-service
	t.Run("05_Profile", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/profile", nil, accessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response identityHTTP.UserResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "Alice", response.Name)

		updateBody := identityHTTP.UpdateProfileRequest{Name: "Alice Smith"}
		resp, body = ctx.makeRequest(t, http.MethodPut, "/v1/profile", updateBody, accessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		err = json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "Alice Smith", response.Name)
	})

	// [6/8] Rotate the refresh token; the consumed token cannot be reused
	t.Run("06_RefreshRotation", func(t *testing.T) {
		requestBody := tokenHTTP.RefreshRequest{RefreshToken: refreshToken}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/auth/refresh", requestBody, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response tokenHTTP.TokenPairResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.AccessToken)
		assert.NotEqual(t, refreshToken, response.RefreshToken, "rotation should issue a new refresh token")

		// Replaying the consumed token must fail
		resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/refresh", requestBody, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		accessToken = response.AccessToken
		refreshToken = response.RefreshToken
	})

	// [7/8] The personal audit trail recorded the session activity
	t.Run("07_OwnAuditLogs", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/profile/audit-logs", nil, accessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response httputil.PaginatedResult[auditHTTP.AuditLogResponse]
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		require.NotEmpty(t, response.Items)

		actions := make([]string, len(response.Items))
		for i, entry := range response.Items {
			actions[i] = entry.Action
		}
		assert.Contains(t, actions, "user.registered")
		assert.Contains(t, actions, "login.succeeded")
		assert.Contains(t, actions, "token.refreshed")
	})

	// [8/8] Logout revokes the refresh token
	t.Run("08_Logout", func(t *testing.T) {
		requestBody := tokenHTTP.RefreshRequest{RefreshToken: refreshToken}

		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/auth/logout", requestBody, accessToken)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/auth/refresh", requestBody, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

// TestIntegration_Auth_ConcurrentRefresh fires several refresh requests with
// the same token at once. The conditional update backing rotation must let
// exactly one win; the rest observe a consumed token.
func TestIntegration_Auth_ConcurrentRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	_, pair := registerAndLogin(t, ctx, "Carol", "carol@example.com", "carol-password-1234")

	requestBody, err := json.Marshal(tokenHTTP.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	const attempts = 8

	client := &http.Client{Timeout: 10 * time.Second}
	statuses := make(chan int, attempts)
	requestErrs := make(chan error, attempts)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			resp, err := client.Post(
				ctx.server.URL+"/v1/auth/refresh",
				"application/json",
				bytes.NewReader(requestBody),
			)
			if err != nil {
				requestErrs <- err
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}

	close(start)
	wg.Wait()
	close(statuses)
	close(requestErrs)

	for err := range requestErrs {
		require.NoError(t, err, "refresh request failed")
	}

	var succeeded, unauthorized int
	for code := range statuses {
		switch code {
		case http.StatusOK:
			succeeded++
		case http.StatusUnauthorized:
			unauthorized++
		default:
			t.Fatalf("unexpected status code %d", code)
		}
	}

	assert.Equal(t, 1, succeeded, "exactly one rotation should win")
	assert.Equal(t, attempts-1, unauthorized, "every loser should observe a consumed token")
}

// TestIntegration_Vault_CompleteFlow tests the vault and credential lifecycle
// including secret sealing and list responses that never carry plaintext.
func TestIntegration_Vault_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	_, pair := registerAndLogin(t, ctx, "Bob", "bob@example.com", "a-long-enough-password")
	token := pair.AccessToken

	var (
		vaultID      string
		credentialID string
	)

	// [1/9] Create a vault
	t.Run("01_CreateVault", func(t *testing.T) {
		requestBody := map[string]string{
			"name":        "Personal",
			"description": "Personal accounts",
			"icon":        "lock",
		}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vaults", requestBody, token)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response vaultHTTP.VaultResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.ID)
		assert.Equal(t, "Personal", response.Name)

		vaultID = response.ID
	})

	// [2/9] List vaults
	t.Run("02_ListVaults", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vaults", nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response httputil.PaginatedResult[vaultHTTP.VaultResponse]
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		require.Len(t, response.Items, 1)
		assert.Equal(t, int64(1), response.TotalCount)
		assert.Equal(t, vaultID, response.Items[0].ID)
	})

	// [3/9] Update the vault
	t.Run("03_UpdateVault", func(t *testing.T) {
		requestBody := map[string]string{"name": "Personal Accounts"}

		resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/vaults/"+vaultID, requestBody, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response vaultHTTP.VaultResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "Personal Accounts", response.Name)
	})

	// [4/9] Create a credential; the response never echoes the secret
	t.Run("04_CreateCredential", func(t *testing.T) {
		requestBody := map[string]interface{}{
			"name":     "Email account",
			"username": "bob@example.com",
			"secret":   "email-password-123",
			"url":      "https://mail.example.com",
			"tags":     []string{"email", "personal"},
		}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vaults/"+vaultID+"/credentials", requestBody, token)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response vaultHTTP.CredentialResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.ID)
		assert.Empty(t, response.Secret, "secret should not be returned on create")
		assert.Equal(t, []string{"email", "personal"}, response.Tags)

		credentialID = response.ID
	})

	// [5/9] List credentials without plaintext
	t.Run("05_ListCredentials", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID+"/credentials", nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response httputil.PaginatedResult[vaultHTTP.CredentialResponse]
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		require.Len(t, response.Items, 1)
		assert.Empty(t, response.Items[0].Secret, "list responses never carry plaintext")
	})

	// [6/9] Single-credential read reveals the sealed secret
	t.Run("06_GetCredential", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/credentials/"+credentialID, nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response vaultHTTP.CredentialResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "email-password-123", response.Secret)
	})

	// [7/9] Replace the credential tags
	t.Run("07_UpdateTags", func(t *testing.T) {
		requestBody := vaultHTTP.UpdateTagsRequest{Tags: []string{"email"}}

		resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/credentials/"+credentialID+"/tags", requestBody, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response vaultHTTP.CredentialResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, []string{"email"}, response.Tags)
	})

	// [8/9] Delete the credential
	t.Run("08_DeleteCredential", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodDelete, "/v1/credentials/"+credentialID, nil, token)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, body)

		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/credentials/"+credentialID, nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	// [9/9] Soft-delete the vault; it disappears from reads
	t.Run("09_DeleteVault", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodDelete, "/v1/vaults/"+vaultID, nil, token)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, body)

		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID, nil, token)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		// The audit trail of the deleted vault stays readable for the owner
		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID+"/audit-logs", nil, token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// TestIntegration_Sharing_CompleteFlow tests direct sharing, tier changes,
// revocation, and the per-vault audit trail across two accounts.
func TestIntegration_Sharing_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	_, ownerPair := registerAndLogin(t, ctx, "Owner", "owner@example.com", "owner-password-123")
	sharee, shareePair := registerAndLogin(t, ctx, "Sharee", "sharee@example.com", "sharee-password-123")
	ownerToken := ownerPair.AccessToken
	shareeToken := shareePair.AccessToken

	var vaultID string

	// Setup: owner creates a vault
	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vaults",
		map[string]string{"name": "Team"}, ownerToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "vault creation failed: %s", body)
	var vault vaultHTTP.VaultResponse
	require.NoError(t, json.Unmarshal(body, &vault))
	vaultID = vault.ID

	// [1/8] Sharee cannot see the vault before any grant
	t.Run("01_NoAccessBeforeShare", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID, nil, shareeToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	// [2/8] Owner grants the view tier by email
	t.Run("02_ShareVault", func(t *testing.T) {
		requestBody := sharingHTTP.ShareRequest{Email: "sharee@example.com", Tier: "view"}

		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vaults/"+vaultID+"/shares", requestBody, ownerToken)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response sharingHTTP.ShareResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, sharee.ID, response.UserID)
		assert.Equal(t, "view", response.Tier)
	})

	// [3/8] View tier allows reads but not writes
	t.Run("03_ViewTierReadOnly", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID, nil, shareeToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = ctx.makeRequest(t, http.MethodPut, "/v1/vaults/"+vaultID,
			map[string]string{"name": "Renamed"}, shareeToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	// [4/8] Owner raises the tier to edit
	t.Run("04_ChangeTier", func(t *testing.T) {
		requestBody := sharingHTTP.ChangeTierRequest{Tier: "edit"}

		resp, body := ctx.makeRequest(t, http.MethodPut,
			"/v1/vaults/"+vaultID+"/shares/"+sharee.ID, requestBody, ownerToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response sharingHTTP.ShareResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "edit", response.Tier)
	})

	// [5/8] Edit tier allows vault updates
	t.Run("05_EditTierAllowsWrites", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/vaults/"+vaultID,
			map[string]string{"name": "Team Renamed"}, shareeToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response vaultHTTP.VaultResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "Team Renamed", response.Name)
	})

	// [6/8] Owner lists the vault shares
	t.Run("06_ListShares", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID+"/shares", nil, ownerToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response struct {
			Items []sharingHTTP.ShareResponse `json:"items"`
		}
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		require.Len(t, response.Items, 1)
		assert.Equal(t, "sharee@example.com", response.Items[0].Email)
	})

	// [7/8] Owner revokes the share
	t.Run("07_RevokeShare", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodDelete,
			"/v1/vaults/"+vaultID+"/shares/"+sharee.ID, nil, ownerToken)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, body)

		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID, nil, shareeToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		// Revoking again is an error
		resp, _ = ctx.makeRequest(t, http.MethodDelete,
			"/v1/vaults/"+vaultID+"/shares/"+sharee.ID, nil, ownerToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	// [8/8] The vault audit trail recorded the sharing lifecycle
	t.Run("08_VaultAuditLogs", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vaultID+"/audit-logs", nil, ownerToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response httputil.PaginatedResult[auditHTTP.AuditLogResponse]
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		require.NotEmpty(t, response.Items)

		actions := make([]string, len(response.Items))
		for i, entry := range response.Items {
			actions[i] = entry.Action
		}
		assert.Contains(t, actions, "vault.created")
		assert.Contains(t, actions, "vault.shared")
		assert.Contains(t, actions, "share.tier_changed")
		assert.Contains(t, actions, "share.revoked")
	})
}

// TestIntegration_Sharing_Invitations tests the invitation flow for an
// address that joins after the invitation was issued.
func TestIntegration_Sharing_Invitations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t)
	defer teardownIntegrationTest(t, ctx)

	_, ownerPair := registerAndLogin(t, ctx, "Owner", "owner@example.com", "owner-password-123")
	ownerToken := ownerPair.AccessToken

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vaults",
		map[string]string{"name": "Invited"}, ownerToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var vault vaultHTTP.VaultResponse
	require.NoError(t, json.Unmarshal(body, &vault))

	var invitationToken string

	// [1/3] Owner issues an invitation for an address with no account yet
	t.Run("01_Invite", func(t *testing.T) {
		requestBody := sharingHTTP.ShareRequest{Email: "newcomer@example.com", Tier: "edit"}

		resp, body := ctx.makeRequest(t, http.MethodPost,
			"/v1/vaults/"+vault.ID+"/invitations", requestBody, ownerToken)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var response sharingHTTP.InvitationResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "edit", response.Tier)
		assert.True(t, response.ExpiresAt.After(time.Now()))

		invitationToken = response.Token
	})

	// [2/3] The newcomer registers and accepts the invitation
	t.Run("02_Accept", func(t *testing.T) {
		_, newcomerPair := registerAndLogin(t, ctx, "Newcomer", "newcomer@example.com", "newcomer-password-1")

		requestBody := sharingHTTP.AcceptInvitationRequest{Token: invitationToken}
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/invitations/accept", requestBody, newcomerPair.AccessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var response sharingHTTP.ShareResponse
		err := json.Unmarshal(body, &response)
		require.NoError(t, err)
		assert.Equal(t, "edit", response.Tier)

		resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vaults/"+vault.ID, nil, newcomerPair.AccessToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	// [3/3] A consumed invitation cannot be accepted again
	t.Run("03_SingleUse", func(t *testing.T) {
		_, otherPair := registerAndLogin(t, ctx, "Other", "other@example.com", "other-password-1234")

		requestBody := sharingHTTP.AcceptInvitationRequest{Token: invitationToken}
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/invitations/accept", requestBody, otherPair.AccessToken)
		assert.NotEqual(t, http.StatusOK, resp.StatusCode)
	})
}
