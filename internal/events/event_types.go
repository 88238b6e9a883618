package events

import (
	"time"

	"github.com/guregu/null/v5"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAcknowledged    EventType = "ticket_acknowledged"
	EventTicketStatusUpdated   EventType = "ticket_status_updated"
	EventTicketRemarkAdded     EventType = "ticket_remark_added"
	EventTicketAttachmentAdded EventType = "attachment_added"
)

// AllEventTypes lists every event the services publish.
func AllEventTypes() []EventType {
	return []EventType{EventTicketAcknowledged, EventTicketStatusUpdated, EventTicketRemarkAdded, EventTicketAttachmentAdded}
}

// Event represents a domain event emitted by services after a change is
// committed.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TTNumber  string      `json:"tt_number"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketAcknowledgedPayload payload.
type TicketAcknowledgedPayload struct {
	ActivityID int64       `json:"activity_id"`
	OldStatus  null.String `json:"old_status"`
	NewStatus  string      `json:"new_status"`
}

// TicketStatusUpdatedPayload payload.
type TicketStatusUpdatedPayload struct {
	ActivityID   int64       `json:"activity_id"`
	OldStatus    null.String `json:"old_status"`
	NewStatus    string      `json:"new_status"`
	Remarks      null.String `json:"remarks"`
	AttachmentID null.Int    `json:"attachment_id"`
}

// TicketRemarkAddedPayload payload.
type TicketRemarkAddedPayload struct {
	ActivityID    int64    `json:"activity_id"`
	RemarkPreview string   `json:"remark_preview"`
	AttachmentID  null.Int `json:"attachment_id"`
}

// AttachmentAddedPayload payload.
type AttachmentAddedPayload struct {
	AttachmentID     int64  `json:"attachment_id"`
	OriginalFilename string `json:"original_filename"`
	MimeType         string `json:"mime_type"`
	FileSize         int64  `json:"file_size"`
}
