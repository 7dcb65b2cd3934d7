package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	tokenUsecase "github.com/allisson/passvault/internal/token/usecase"
)

// AuthenticationMiddleware authenticates requests via a Bearer access token.
//
// The middleware extracts the token from the Authorization header, validates
// signature and expiry through the token use case (no store access), and puts
// the resulting subject in the request context for handlers and the
// authorization resolver.
//
// Error handling:
//   - Missing or malformed Authorization header -> 401 Unauthorized
//   - Invalid or expired access token -> 401 Unauthorized
func AuthenticationMiddleware(tokenUseCase tokenUsecase.TokenUseCase, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Debug("authentication failed: missing authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		const bearerPrefix = "bearer "
		if len(authHeader) < len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("authentication failed: malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		accessToken := authHeader[len(bearerPrefix):]
		if accessToken == "" {
			logger.Debug("authentication failed: empty bearer token")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		claims, err := tokenUseCase.Validate(c.Request.Context(), accessToken)
		if err != nil {
			logger.Debug("authentication failed", slog.String("error", err.Error()))
			httputil.HandleErrorGin(c, err, logger)
			c.Abort()
			return
		}

		subject := authzDomain.Subject{UserID: claims.UserID, Roles: claims.Roles}
		c.Request = c.Request.WithContext(WithSubject(c.Request.Context(), subject))

		c.Next()
	}
}
