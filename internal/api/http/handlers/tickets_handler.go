package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vnoc/incident-tracker/internal/api/dto"
	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/query"
	"github.com/vnoc/incident-tracker/internal/service"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// TicketsHandler serves ticket listing and lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := query.Filter{
		Statuses:   splitList(c.Query("status")),
		Severities: splitList(c.Query("severity")),
		Age:        c.Query("age"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		Page:       c.QueryInt("page", query.DefaultPage),
		Limit:      c.QueryInt("limit", query.DefaultLimit),
	}
	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.Page(page))
}

// GetTicket GET /api/tickets/:tt_number.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("tt_number"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(ticket))
}

// Acknowledge POST /api/tickets/:tt_number/acknowledge.
func (h *TicketsHandler) Acknowledge(c *fiber.Ctx) error {
	ticket, activity, err := h.service.Acknowledge(c.UserContext(), c.Params("tt_number"), auth.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.Mutation(ticket, activity, "Ticket acknowledged successfully"))
}

// UpdateStatus PATCH /api/tickets/:tt_number/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UpdateStatusInput{
		Status:       req.Status,
		Remarks:      req.Remarks,
		AttachmentID: req.AttachmentID,
	}
	ticket, activity, err := h.service.UpdateStatus(c.UserContext(), c.Params("tt_number"), input, auth.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.Mutation(ticket, activity, "Status updated successfully"))
}

// AddRemark POST /api/tickets/:tt_number/remarks.
func (h *TicketsHandler) AddRemark(c *fiber.Ctx) error {
	var req dto.AddRemarkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, activity, err := h.service.AddRemark(c.UserContext(), c.Params("tt_number"), req.Remarks, req.AttachmentID, auth.Actor(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.Mutation(ticket, activity, "Remarks added successfully"))
}

// Timeline GET /api/tickets/:tt_number/timeline.
func (h *TicketsHandler) Timeline(c *fiber.Ctx) error {
	timeline, err := h.service.Timeline(c.UserContext(), c.Params("tt_number"))
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(timeline))
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
