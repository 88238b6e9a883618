package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// RequirePrincipal ensures a principal was attached by AuthMiddleware.
func RequirePrincipal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
