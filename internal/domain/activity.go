package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// ActivityType captures which lifecycle operation produced an activity.
type ActivityType string

const (
	ActivityAcknowledged ActivityType = "acknowledged"
	ActivityStatusUpdate ActivityType = "status_update"
	ActivityAddRemark    ActivityType = "add_remark"
)

// Activity is an immutable audit entry recording one mutation of a ticket.
type Activity struct {
	ID           int64        `json:"activity_id"`
	TTNumber     string       `json:"tt_number"`
	Type         ActivityType `json:"activity_type"`
	OldValue     null.String  `json:"old_value"`
	NewValue     null.String  `json:"new_value"`
	Remarks      null.String  `json:"remarks"`
	AttachmentID null.Int     `json:"attachment_id"`
	CreatedBy    string       `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
}

// TimelineEntry is an activity joined with the attachment it references.
type TimelineEntry struct {
	Activity
	AttachmentFilename null.String `json:"attachment_filename"`
	AttachmentPath     null.String `json:"attachment_path"`
}
