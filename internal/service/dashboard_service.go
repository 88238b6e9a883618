package service

import (
	"context"
	"time"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/query"
	"github.com/vnoc/incident-tracker/internal/repository"
)

// DefaultNeedsAckLimit caps the needs-acknowledgement list.
const DefaultNeedsAckLimit = 10

// inactiveStatuses are left out of the dashboard counters.
var inactiveStatuses = []string{domain.StatusClosed, domain.StatusResolved}

// DashboardStats counts active tickets by ranked severity.
type DashboardStats struct {
	Total     int `json:"total"`
	Critical  int `json:"critical"`
	Emergency int `json:"emergency"`
	Major     int `json:"major"`
}

// DashboardService derives read-only views from the ticket store. Nothing is
// cached; every call reads the store.
type DashboardService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps Dependencies) *DashboardService {
	return &DashboardService{tickets: deps.Store.Tickets, now: deps.clock()}
}

// Stats counts tickets that are neither closed nor resolved. Tickets without
// a status count as active.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	active := query.Plan{ExcludeStatuses: inactiveStatuses, Sort: query.SortNewest, Unpaged: true}

	stats := &DashboardStats{}
	total, err := s.tickets.Count(ctx, active)
	if err != nil {
		return nil, err
	}
	stats.Total = total

	counters := map[string]*int{
		domain.SeverityCritical:  &stats.Critical,
		domain.SeverityEmergency: &stats.Emergency,
		domain.SeverityMajor:     &stats.Major,
	}
	for severity, dst := range counters {
		plan := active
		plan.Severities = []string{severity}
		n, err := s.tickets.Count(ctx, plan)
		if err != nil {
			return nil, err
		}
		*dst = n
	}
	return stats, nil
}

// NeedsAcknowledgement lists open or untouched tickets, most critical first.
func (s *DashboardService) NeedsAcknowledgement(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit < 1 {
		limit = DefaultNeedsAckLimit
	}
	plan := query.Plan{
		Statuses:          []string{domain.StatusOpen},
		IncludeNullStatus: true,
		Sort:              query.SortMostCritical,
		Page:              1,
		Limit:             limit,
	}
	tickets, _, err := s.tickets.Query(ctx, plan)
	return tickets, err
}

// RecentUpdates pages through every ticket by latest activity.
func (s *DashboardService) RecentUpdates(ctx context.Context, page, limit int) (*TicketPage, error) {
	if page < 1 {
		page = query.DefaultPage
	}
	if limit < 1 {
		limit = query.DefaultLimit
	}
	plan := query.Plan{Sort: query.SortRecentlyUpdated, Page: page, Limit: limit}
	tickets, total, err := s.tickets.Query(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Tickets:    tickets,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: plan.TotalPages(total),
	}, nil
}
