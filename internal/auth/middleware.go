package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/domain"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

const principalKey = "auth_principal"

// AuthMiddleware validates bearer tokens, or injects a fixed principal when
// authentication is skipped for local development.
type AuthMiddleware struct {
	tokens *TokenManager
	skip   bool
	mock   domain.Principal
	logger *zap.Logger
}

// NewAuthMiddleware constructs middleware from the auth settings.
func NewAuthMiddleware(tokens *TokenManager, cfg config.AuthConfig, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		tokens: tokens,
		skip:   cfg.SkipAuth,
		mock: domain.Principal{
			Subject:  "mock-" + cfg.MockUsername,
			Username: cfg.MockUsername,
			Email:    cfg.MockEmail,
			Role:     cfg.MockRole,
		},
		logger: logger,
	}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	if m.skip {
		principal := m.mock
		c.Locals(principalKey, &principal)
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		m.logger.Debug("token rejected", zap.Error(err))
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := claims.Principal()
	c.Locals(principalKey, &principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated operator.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*domain.Principal)
	return principal, ok && principal != nil
}

// Actor returns the username recorded on mutations, or "unknown".
func Actor(c *fiber.Ctx) string {
	if principal, ok := PrincipalFromContext(c); ok && principal.Username != "" {
		return principal.Username
	}
	return "unknown"
}
