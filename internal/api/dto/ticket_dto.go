package dto

import (
	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/service"
)

// DefaultRole is reported for principals without a role claim.
const DefaultRole = "Field Engineer"

// Envelope wraps every successful response.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Pagination describes the page returned alongside a list.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ErrorBody is the machine readable part of an error response.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed response.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status       string   `json:"status"`
	Remarks      string   `json:"remarks"`
	AttachmentID null.Int `json:"attachment_id"`
}

// AddRemarkRequest payload.
type AddRemarkRequest struct {
	Remarks      string   `json:"remarks"`
	AttachmentID null.Int `json:"attachment_id"`
}

// MutationResponse returns the updated ticket with the activity recording it.
type MutationResponse struct {
	Ticket   *domain.Ticket   `json:"ticket"`
	Activity *domain.Activity `json:"activity"`
}

// UserProfile is the caller's identity as seen by the service.
type UserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Sub      string `json:"sub"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Page wraps a ticket page with its pagination block.
func Page(page *service.TicketPage) Envelope {
	tickets := page.Tickets
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return Envelope{
		Success: true,
		Data:    tickets,
		Pagination: &Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	}
}

// Mutation wraps a lifecycle result.
func Mutation(ticket *domain.Ticket, activity *domain.Activity, message string) Envelope {
	return Envelope{
		Success: true,
		Data:    MutationResponse{Ticket: ticket, Activity: activity},
		Message: message,
	}
}

// ProfileFrom builds the profile for principal.
func ProfileFrom(p *domain.Principal) UserProfile {
	role := p.Role
	if role == "" {
		role = DefaultRole
	}
	return UserProfile{Username: p.Username, Email: p.Email, Role: role, Sub: p.Subject}
}
