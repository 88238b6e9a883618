// Package lifecycle computes ticket mutations. Functions here are pure: they
// take the current ticket and return the new ticket plus the activity that
// records the change. Stores provide atomicity and identifiers.
package lifecycle

import (
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/query"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// TargetStatus is a status an operator may set explicitly.
type TargetStatus string

const (
	TargetAssigned   TargetStatus = domain.StatusAssigned
	TargetInProgress TargetStatus = domain.StatusInProgress
	TargetOnHold     TargetStatus = domain.StatusOnHold
	TargetClosed     TargetStatus = domain.StatusClosed
)

// AcknowledgeRemark is recorded on every acknowledged activity.
const AcknowledgeRemark = "Ticket acknowledged and assigned"

// remarkTimestampLayout renders UTC timestamps with millisecond precision.
const remarkTimestampLayout = "2006-01-02T15:04:05.000Z"

var targetStatuses = []TargetStatus{TargetAssigned, TargetInProgress, TargetOnHold, TargetClosed}

// TargetStatuses lists the accepted update targets.
func TargetStatuses() []string {
	out := make([]string, len(targetStatuses))
	for i, s := range targetStatuses {
		out[i] = string(s)
	}
	return out
}

// ParseTargetStatus is the single validation gate for status updates. Any
// target may be set from any current status.
func ParseTargetStatus(raw string) (TargetStatus, error) {
	for _, s := range targetStatuses {
		if raw == string(s) {
			return s, nil
		}
	}
	return "", apperrors.NewInvalidStatus(raw, TargetStatuses())
}

// Change is the outcome of one lifecycle operation.
type Change struct {
	Ticket   domain.Ticket
	Activity domain.Activity
}

// Acknowledge assigns the ticket. Re-acknowledging is allowed and records a
// new activity each time.
func Acknowledge(current domain.Ticket, actor string, now time.Time) Change {
	now = stamp(current, now)
	next := current
	setStatus(&next, domain.StatusAssigned, now)

	return Change{
		Ticket: next,
		Activity: domain.Activity{
			TTNumber:  current.TTNumber,
			Type:      domain.ActivityAcknowledged,
			OldValue:  current.Status,
			NewValue:  null.StringFrom(domain.StatusAssigned),
			Remarks:   null.StringFrom(AcknowledgeRemark),
			CreatedBy: actor,
			CreatedAt: now,
		},
	}
}

// UpdateStatus moves the ticket to target. Non-blank remarks are appended to
// the RCA log; closing stamps the cleared date.
func UpdateStatus(current domain.Ticket, target TargetStatus, remarks string, attachmentID null.Int, actor string, now time.Time) Change {
	now = stamp(current, now)
	next := current
	setStatus(&next, string(target), now)

	remarks = strings.TrimSpace(remarks)
	note := null.String{}
	if remarks != "" {
		next.SystemRCA = appendLog(current.SystemRCA, "["+formatStamp(now)+"]: "+remarks)
		note = null.StringFrom(remarks)
	}

	return Change{
		Ticket: next,
		Activity: domain.Activity{
			TTNumber:     current.TTNumber,
			Type:         domain.ActivityStatusUpdate,
			OldValue:     current.Status,
			NewValue:     null.StringFrom(string(target)),
			Remarks:      note,
			AttachmentID: attachmentID,
			CreatedBy:    actor,
			CreatedAt:    now,
		},
	}
}

// AddRemark appends an actor-attributed line to the RCA log without touching
// the status.
func AddRemark(current domain.Ticket, text string, attachmentID null.Int, actor string, now time.Time) (Change, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Change{}, apperrors.NewEmptyInput("remarks")
	}
	now = stamp(current, now)
	next := current
	next.SystemRCA = appendLog(current.SystemRCA, "["+formatStamp(now)+" - "+actor+"]: "+text)
	next.LastStatusUpdate = null.TimeFrom(now)

	return Change{
		Ticket: next,
		Activity: domain.Activity{
			TTNumber:     current.TTNumber,
			Type:         domain.ActivityAddRemark,
			Remarks:      null.StringFrom(text),
			AttachmentID: attachmentID,
			CreatedBy:    actor,
			CreatedAt:    now,
		},
	}, nil
}

// setStatus keeps the cleared date in step with the Closed state.
func setStatus(t *domain.Ticket, status string, now time.Time) {
	t.Status = null.StringFrom(status)
	if status == domain.StatusClosed {
		t.ClearedDate = null.TimeFrom(now)
	} else {
		t.ClearedDate = null.Time{}
	}
	t.LastStatusUpdate = null.TimeFrom(now)
}

// stamp keeps successive mutations of one ticket strictly increasing: a clock
// that has not passed the last update yields one microsecond after it.
func stamp(current domain.Ticket, now time.Time) time.Time {
	now = query.Truncate(now.UTC())
	if current.LastStatusUpdate.Valid {
		prev := query.Truncate(current.LastStatusUpdate.Time.UTC())
		if !now.After(prev) {
			return prev.Add(time.Microsecond)
		}
	}
	return now
}

func appendLog(log null.String, line string) null.String {
	if !log.Valid || log.String == "" {
		return null.StringFrom(line)
	}
	return null.StringFrom(log.String + "\n" + line)
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(remarkTimestampLayout)
}
