package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vnoc/incident-tracker/internal/api/dto"
	"github.com/vnoc/incident-tracker/internal/query"
	"github.com/vnoc/incident-tracker/internal/service"
)

// DashboardHandler serves the aggregated dashboard views.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Stats GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(stats))
}

// NeedsAcknowledgement GET /api/dashboard/needs-acknowledgement.
func (h *DashboardHandler) NeedsAcknowledgement(c *fiber.Ctx) error {
	tickets, err := h.service.NeedsAcknowledgement(c.UserContext(), c.QueryInt("limit", service.DefaultNeedsAckLimit))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(tickets))
}

// RecentUpdates GET /api/dashboard/recent-updates.
func (h *DashboardHandler) RecentUpdates(c *fiber.Ctx) error {
	page, err := h.service.RecentUpdates(c.UserContext(),
		c.QueryInt("page", query.DefaultPage), c.QueryInt("limit", query.DefaultLimit))
	if err != nil {
		return err
	}
	return c.JSON(dto.Page(page))
}
