// Package service provides token-related services: signed access tokens and
// opaque refresh token generation.
package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	tokenDomain "github.com/allisson/passvault/internal/token/domain"
)

// AccessTokenClaims is the validated content of an access token.
type AccessTokenClaims struct {
	UserID  uuid.UUID
	Name    string
	Roles   []authzDomain.Role
	TokenID uuid.UUID
}

// AccessTokenService issues and validates signed, self-verifying access
// tokens. Validation is signature plus expiry only and never hits the store.
type AccessTokenService interface {
	// Issue encodes subject id, display name, roles, and a unique token id
	// into a signed, time-limited token.
	Issue(userID uuid.UUID, name string, roles []authzDomain.Role) (token string, expiresAt time.Time, err error)

	// Validate checks signature and expiry and returns the embedded claims.
	Validate(token string) (*AccessTokenClaims, error)
}

// jwtClaims is the wire shape of the signed token.
type jwtClaims struct {
	jwt.RegisteredClaims
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// jwtAccessTokenService implements AccessTokenService with HMAC-SHA256.
type jwtAccessTokenService struct {
	signingSecret []byte
	lifetime      time.Duration
}

// Issue signs a new access token with the configured lifetime.
func (s *jwtAccessTokenService) Issue(
	userID uuid.UUID,
	name string,
	roles []authzDomain.Role,
) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.lifetime)

	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.Must(uuid.NewV7()).String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  name,
		Roles: roleNames,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(err, "failed to sign access token")
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies the token. Expiry surfaces as
// ErrAccessTokenExpired, every other failure as ErrAccessTokenInvalid.
func (s *jwtAccessTokenService) Validate(token string) (*AccessTokenClaims, error) {
	var claims jwtClaims

	parsed, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.signingSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, tokenDomain.ErrAccessTokenExpired
		}
		return nil, tokenDomain.ErrAccessTokenInvalid
	}
	if !parsed.Valid {
		return nil, tokenDomain.ErrAccessTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, tokenDomain.ErrAccessTokenInvalid
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, tokenDomain.ErrAccessTokenInvalid
	}

	roles := make([]authzDomain.Role, len(claims.Roles))
	for i, name := range claims.Roles {
		roles[i] = authzDomain.Role(name)
	}

	return &AccessTokenClaims{
		UserID:  userID,
		Name:    claims.Name,
		Roles:   roles,
		TokenID: tokenID,
	}, nil
}

// NewAccessTokenService creates an HMAC-SHA256 AccessTokenService.
func NewAccessTokenService(signingSecret string, lifetime time.Duration) AccessTokenService {
	return &jwtAccessTokenService{
		signingSecret: []byte(signingSecret),
		lifetime:      lifetime,
	}
}
