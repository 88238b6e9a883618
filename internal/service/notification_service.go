package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/events"
	"github.com/vnoc/incident-tracker/internal/query"
	"github.com/vnoc/incident-tracker/internal/repository"
)

// DefaultPendingLimit caps the pending-actions list.
const DefaultPendingLimit = 50

// Urgency classifies a pending action.
type Urgency string

const (
	UrgencyOverdue        Urgency = "overdue"
	UrgencyDueSoon        Urgency = "due_soon"
	UrgencyActionRequired Urgency = "action_required"
	UrgencyPendingClosure Urgency = "pending_closure"
)

const overdueAfter = 24 * time.Hour

// PendingAction is a ticket flagged for operator attention.
type PendingAction struct {
	Ticket  domain.Ticket `json:"ticket"`
	Urgency Urgency       `json:"urgency"`
	DueIn   string        `json:"dueIn,omitempty"`
	Message string        `json:"message"`
}

// NotificationService derives pending actions and reacts to domain events.
type NotificationService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps Dependencies, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		tickets:    deps.Store.Tickets,
		dispatcher: deps.Dispatcher,
		logger:     deps.logger(),
		cfg:        cfg,
		now:        deps.clock(),
	}
}

func pendingPlan(limit int) query.Plan {
	if limit < 1 {
		limit = DefaultPendingLimit
	}
	return query.Plan{
		ExcludeStatuses: []string{domain.StatusClosed},
		Sort:            query.SortOldest,
		Page:            1,
		Limit:           limit,
	}
}

// PendingActions classifies every non-closed ticket, oldest first.
func (n *NotificationService) PendingActions(ctx context.Context, limit int) ([]PendingAction, error) {
	tickets, _, err := n.tickets.Query(ctx, pendingPlan(limit))
	if err != nil {
		return nil, err
	}
	now := n.now()
	actions := make([]PendingAction, 0, len(tickets))
	for i := range tickets {
		actions = append(actions, Classify(tickets[i], now))
	}
	return actions, nil
}

// Count returns how many pending actions PendingActions would list.
func (n *NotificationService) Count(ctx context.Context) (int, error) {
	total, err := n.tickets.Count(ctx, pendingPlan(DefaultPendingLimit))
	if err != nil {
		return 0, err
	}
	if total > DefaultPendingLimit {
		total = DefaultPendingLimit
	}
	return total, nil
}

// MarkRead acknowledges the request. Read state is not persisted.
func (n *NotificationService) MarkRead(_ context.Context, actor string) {
	n.logger.Info("notifications marked read", zap.String("actor", actor))
}

// Classify assigns an urgency and message to a ticket based on whole hours
// elapsed since its last update (or open time).
func Classify(t domain.Ticket, now time.Time) PendingAction {
	elapsed := query.Truncate(now).Sub(query.LastActivity(&t))
	hours := int64(math.Floor(elapsed.Hours()))
	event := t.EventLabel("Incident")

	action := PendingAction{Ticket: t}
	status := t.Status.String
	switch {
	case t.IsUnacknowledged() && elapsed > overdueAfter:
		action.Urgency = UrgencyOverdue
		action.Message = event + " - immediate attention required"
	case t.Status.Valid && status == domain.StatusAssigned:
		action.Urgency = UrgencyDueSoon
		action.DueIn = dueIn(hours, 4)
		action.Message = event + " - requires progress update"
	case t.Status.Valid && status == domain.StatusInProgress:
		action.Urgency = UrgencyActionRequired
		action.DueIn = dueIn(hours, 6)
		action.Message = event + " - action needed"
	case t.Status.Valid && status == domain.StatusResolved:
		action.Urgency = UrgencyPendingClosure
		action.Message = event + " - verify and close"
	default:
		action.Urgency = UrgencyActionRequired
		action.Message = t.EventLabel("Incident requires attention")
	}
	return action
}

func dueIn(hours, window int64) string {
	left := window - hours%window
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("Due in %d hours", left)
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketAcknowledged, n.handleTicketAcknowledged)
	n.dispatcher.Subscribe(events.EventTicketStatusUpdated, n.handleTicketStatusUpdated)
	n.dispatcher.Subscribe(events.EventTicketRemarkAdded, n.handleTicketRemarkAdded)
	n.dispatcher.Subscribe(events.EventTicketAttachmentAdded, n.handleAttachmentAdded)
}

func (n *NotificationService) handleTicketAcknowledged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAcknowledged", zap.String("ticket", event.TTNumber), zap.String("actor", event.Actor))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketStatusUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusUpdated", zap.String("ticket", event.TTNumber), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTicketRemarkAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketRemarkAdded", zap.String("ticket", event.TTNumber), zap.String("actor", event.Actor))
	return nil
}

func (n *NotificationService) handleAttachmentAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("AttachmentAdded", zap.String("ticket", event.TTNumber), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket", event.TTNumber),
		zap.String("event_type", string(event.Type)))
}
