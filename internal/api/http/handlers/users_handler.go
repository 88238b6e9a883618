package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vnoc/incident-tracker/internal/api/dto"
	"github.com/vnoc/incident-tracker/internal/auth"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// UsersHandler exposes the caller's own profile.
type UsersHandler struct{}

// NewUsersHandler returns handler.
func NewUsersHandler() *UsersHandler {
	return &UsersHandler{}
}

// Me GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user not authenticated")
	}
	return c.JSON(dto.OK(dto.ProfileFrom(principal)))
}
