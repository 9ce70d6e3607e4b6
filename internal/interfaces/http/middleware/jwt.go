// Package middleware provides the gin middleware of the HTTP shell.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/modulith/internal/infrastructure/auth"
	"github.com/erp/modulith/internal/infrastructure/logger"
	"github.com/erp/modulith/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Header constants
const (
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// BearerAuthConfig holds configuration for the bearer token middleware
type BearerAuthConfig struct {
	// Tokens parses bearer tokens into identities
	Tokens *auth.TokenService
	// SkipPaths are paths that are served without looking at the token
	SkipPaths []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// BearerAuth turns a bearer token into the caller identity of the request.
// Requests without an Authorization header continue as anonymous; the
// authorization behavior of the mediator decides what they may do. A header
// carrying an invalid token is rejected with 401.
func BearerAuth(cfg BearerAuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			rejectToken(c, cfg.Logger, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			rejectToken(c, cfg.Logger, auth.ErrInvalidToken, "Missing token")
			return
		}

		if cfg.Tokens == nil {
			rejectToken(c, cfg.Logger, auth.ErrMissingSecret, "Bearer tokens are not configured")
			return
		}
		identity, err := cfg.Tokens.Parse(token)
		if err != nil {
			rejectToken(c, cfg.Logger, err, "Token validation failed")
			return
		}

		ctx := auth.WithIdentity(c.Request.Context(), identity)
		ctx = logger.WithCallerID(ctx, identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		logger.L(ctx).Debug("Bearer authentication successful",
			zap.String("username", identity.Username),
		)
		c.Next()
	}
}

func rejectToken(c *gin.Context, log *zap.Logger, err error, message string) {
	ctx := c.Request.Context()
	logger.WithLogger(ctx, log).Warn("Bearer authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, text := dto.ErrCodeTokenInvalid, "Invalid token"
	if errors.Is(err, auth.ErrExpiredToken) {
		code, text = dto.ErrCodeTokenExpired, "Token has expired"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, text, logger.CorrelationID(ctx)))
}
