package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"go.uber.org/zap"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/events"
	"github.com/vnoc/incident-tracker/internal/lifecycle"
	"github.com/vnoc/incident-tracker/internal/observability"
	"github.com/vnoc/incident-tracker/internal/query"
	"github.com/vnoc/incident-tracker/internal/repository"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

const remarkPreviewLength = 120

// TicketService coordinates ticket reads and lifecycle workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	activities  repository.ActivityRepository
	attachments repository.AttachmentRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// Dependencies bundles the collaborators shared by the services.
type Dependencies struct {
	Store      *repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (d Dependencies) clock() func() time.Time {
	if d.Clock != nil {
		return d.Clock
	}
	return time.Now
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Tickets    []domain.Ticket
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// UpdateStatusInput carries a status transition request.
type UpdateStatusInput struct {
	Status       string
	Remarks      string
	AttachmentID null.Int
}

// AttachmentInput is validated upload metadata. The file itself is already
// stored by the caller.
type AttachmentInput struct {
	TTNumber         string
	OriginalFilename string
	StoredFilename   string
	FilePath         string
	FileSize         int64
	MimeType         string
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies) *TicketService {
	return &TicketService{
		tickets:     deps.Store.Tickets,
		activities:  deps.Store.Activities,
		attachments: deps.Store.Attachments,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.logger(),
		now:         deps.clock(),
	}
}

// List resolves the filter against the current time and returns one page.
func (s *TicketService) List(ctx context.Context, filter query.Filter) (*TicketPage, error) {
	plan, err := filter.Resolve(s.now())
	if err != nil {
		return nil, err
	}
	tickets, total, err := s.tickets.Query(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Tickets:    tickets,
		Page:       plan.Page,
		Limit:      plan.Limit,
		Total:      total,
		TotalPages: plan.TotalPages(total),
	}, nil
}

// Get returns a single ticket.
func (s *TicketService) Get(ctx context.Context, ttNumber string) (*domain.Ticket, error) {
	return s.tickets.GetByTTNumber(ctx, ttNumber)
}

// Acknowledge assigns the ticket to the acting operator's team.
func (s *TicketService) Acknowledge(ctx context.Context, ttNumber, actor string) (*domain.Ticket, *domain.Activity, error) {
	ticket, activity, err := s.tickets.Mutate(ctx, ttNumber, func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
		change := lifecycle.Acknowledge(current, actor, s.now())
		return change.Ticket, change.Activity, nil
	})
	s.recordMutation("acknowledge", ttNumber, actor, err)
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAcknowledged,
		TTNumber: ttNumber,
		Actor:    actor,
		Payload: events.TicketAcknowledgedPayload{
			ActivityID: activity.ID,
			OldStatus:  activity.OldValue,
			NewStatus:  activity.NewValue.String,
		},
	})
	return ticket, activity, nil
}

// UpdateStatus moves the ticket to a new status, optionally appending remarks
// to its RCA log. The status is validated before the store is touched.
func (s *TicketService) UpdateStatus(ctx context.Context, ttNumber string, input UpdateStatusInput, actor string) (*domain.Ticket, *domain.Activity, error) {
	target, err := lifecycle.ParseTargetStatus(input.Status)
	if err != nil {
		s.recordMutation("update_status", ttNumber, actor, err)
		return nil, nil, err
	}
	if err := s.checkAttachment(ctx, ttNumber, input.AttachmentID); err != nil {
		s.recordMutation("update_status", ttNumber, actor, err)
		return nil, nil, err
	}

	ticket, activity, err := s.tickets.Mutate(ctx, ttNumber, func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
		change := lifecycle.UpdateStatus(current, target, input.Remarks, input.AttachmentID, actor, s.now())
		return change.Ticket, change.Activity, nil
	})
	s.recordMutation("update_status", ttNumber, actor, err)
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusUpdated,
		TTNumber: ttNumber,
		Actor:    actor,
		Payload: events.TicketStatusUpdatedPayload{
			ActivityID:   activity.ID,
			OldStatus:    activity.OldValue,
			NewStatus:    activity.NewValue.String,
			Remarks:      activity.Remarks,
			AttachmentID: activity.AttachmentID,
		},
	})
	return ticket, activity, nil
}

// AddRemark appends an attributed remark without changing status.
func (s *TicketService) AddRemark(ctx context.Context, ttNumber, text string, attachmentID null.Int, actor string) (*domain.Ticket, *domain.Activity, error) {
	if strings.TrimSpace(text) == "" {
		err := apperrors.NewEmptyInput("remarks")
		s.recordMutation("add_remark", ttNumber, actor, err)
		return nil, nil, err
	}
	if err := s.checkAttachment(ctx, ttNumber, attachmentID); err != nil {
		s.recordMutation("add_remark", ttNumber, actor, err)
		return nil, nil, err
	}

	ticket, activity, err := s.tickets.Mutate(ctx, ttNumber, func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
		change, err := lifecycle.AddRemark(current, text, attachmentID, actor, s.now())
		return change.Ticket, change.Activity, err
	})
	s.recordMutation("add_remark", ttNumber, actor, err)
	if err != nil {
		return nil, nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketRemarkAdded,
		TTNumber: ttNumber,
		Actor:    actor,
		Payload: events.TicketRemarkAddedPayload{
			ActivityID:    activity.ID,
			RemarkPreview: stringPreview(activity.Remarks.String, remarkPreviewLength),
			AttachmentID:  activity.AttachmentID,
		},
	})
	return ticket, activity, nil
}

// Timeline lists the ticket's activities newest first.
func (s *TicketService) Timeline(ctx context.Context, ttNumber string) ([]domain.TimelineEntry, error) {
	if _, err := s.tickets.GetByTTNumber(ctx, ttNumber); err != nil {
		return nil, err
	}
	return s.activities.ListByTicket(ctx, ttNumber)
}

// AddAttachment persists metadata for a file already written by the caller.
func (s *TicketService) AddAttachment(ctx context.Context, input AttachmentInput, actor string) (*domain.Attachment, error) {
	if _, err := s.tickets.GetByTTNumber(ctx, input.TTNumber); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.OriginalFilename) == "" {
		return nil, apperrors.NewEmptyInput("original_filename")
	}

	attachment := &domain.Attachment{
		TTNumber:         input.TTNumber,
		OriginalFilename: input.OriginalFilename,
		StoredFilename:   input.StoredFilename,
		FilePath:         input.FilePath,
		FileSize:         input.FileSize,
		MimeType:         input.MimeType,
		UploadedBy:       actor,
		UploadedAt:       query.Truncate(s.now().UTC()),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAttachmentAdded,
		TTNumber: input.TTNumber,
		Actor:    actor,
		Payload: events.AttachmentAddedPayload{
			AttachmentID:     attachment.ID,
			OriginalFilename: attachment.OriginalFilename,
			MimeType:         attachment.MimeType,
			FileSize:         attachment.FileSize,
		},
	})
	return attachment, nil
}

// ListAttachments lists the ticket's attachments newest first.
func (s *TicketService) ListAttachments(ctx context.Context, ttNumber string) ([]domain.Attachment, error) {
	if _, err := s.tickets.GetByTTNumber(ctx, ttNumber); err != nil {
		return nil, err
	}
	return s.attachments.ListByTicket(ctx, ttNumber)
}

// checkAttachment rejects references to attachments of another ticket.
func (s *TicketService) checkAttachment(ctx context.Context, ttNumber string, id null.Int) error {
	if !id.Valid {
		return nil
	}
	attachment, err := s.attachments.GetByID(ctx, id.Int64)
	if err != nil {
		return err
	}
	if attachment.TTNumber != ttNumber {
		return apperrors.NewValidationError("attachment belongs to another ticket", map[string]any{
			"attachment_id": id.Int64,
			"tt_number":     attachment.TTNumber,
		})
	}
	return nil
}

func (s *TicketService) recordMutation(operation, ttNumber, actor string, err error) {
	if err == nil {
		s.metrics.RecordMutation(operation, "ok")
		s.logger.Info("ticket mutated",
			zap.String("operation", operation),
			zap.String("ticket", ttNumber),
			zap.String("actor", actor))
		return
	}
	domainErr := apperrors.ToDomainError(err)
	s.metrics.RecordMutation(operation, domainErr.Code)
	s.logger.Info("ticket mutation rejected",
		zap.String("operation", operation),
		zap.String("ticket", ttNumber),
		zap.String("actor", actor),
		zap.String("code", domainErr.Code))
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "…"
}
