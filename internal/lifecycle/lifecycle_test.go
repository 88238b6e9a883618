package lifecycle

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnoc/incident-tracker/internal/domain"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

var now = time.Date(2024, 3, 15, 12, 30, 45, 123456789, time.UTC)

func openTicket() domain.Ticket {
	return domain.Ticket{
		TTNumber: "TT-1",
		Severity: null.StringFrom("Critical"),
		OpenTime: null.TimeFrom(now.Add(-30 * time.Hour)),
	}
}

func TestParseTargetStatus(t *testing.T) {
	for _, raw := range []string{"Assigned", "In Progress", "On Hold", "Closed"} {
		status, err := ParseTargetStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, string(status))
	}

	for _, raw := range []string{"Resolved", "Open", "closed", "", "null"} {
		_, err := ParseTargetStatus(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidStatus))
	}
}

func TestAcknowledge(t *testing.T) {
	change := Acknowledge(openTicket(), "noc.operator", now)

	assert.Equal(t, domain.StatusAssigned, change.Ticket.Status.String)
	assert.False(t, change.Ticket.ClearedDate.Valid)
	assert.True(t, change.Ticket.LastStatusUpdate.Valid)
	assert.Equal(t, now.Truncate(time.Microsecond), change.Ticket.LastStatusUpdate.Time)

	act := change.Activity
	assert.Equal(t, domain.ActivityAcknowledged, act.Type)
	assert.Equal(t, "TT-1", act.TTNumber)
	assert.False(t, act.OldValue.Valid)
	assert.Equal(t, domain.StatusAssigned, act.NewValue.String)
	assert.Equal(t, AcknowledgeRemark, act.Remarks.String)
	assert.Equal(t, "noc.operator", act.CreatedBy)
}

func TestAcknowledge_Twice(t *testing.T) {
	first := Acknowledge(openTicket(), "a", now)
	second := Acknowledge(first.Ticket, "a", now.Add(time.Second))

	assert.Equal(t, domain.StatusAssigned, second.Ticket.Status.String)
	assert.Equal(t, domain.StatusAssigned, second.Activity.OldValue.String)
	assert.True(t, second.Activity.CreatedAt.After(first.Activity.CreatedAt))
}

func TestAcknowledge_ReopensClosedTicket(t *testing.T) {
	closed := UpdateStatus(openTicket(), TargetClosed, "", null.Int{}, "a", now).Ticket
	require.True(t, closed.ClearedDate.Valid)

	change := Acknowledge(closed, "a", now.Add(time.Minute))
	assert.False(t, change.Ticket.ClearedDate.Valid)
}

func TestUpdateStatus_Closed(t *testing.T) {
	change := UpdateStatus(openTicket(), TargetClosed, "fixed", null.IntFrom(7), "noc.operator", now)

	tk := change.Ticket
	assert.Equal(t, domain.StatusClosed, tk.Status.String)
	require.True(t, tk.ClearedDate.Valid)
	assert.Equal(t, tk.LastStatusUpdate.Time, tk.ClearedDate.Time)
	assert.Equal(t, "[2024-03-15T12:30:45.123Z]: fixed", tk.SystemRCA.String)
	assert.True(t, strings.HasSuffix(tk.SystemRCA.String, "fixed"))

	act := change.Activity
	assert.Equal(t, domain.ActivityStatusUpdate, act.Type)
	assert.False(t, act.OldValue.Valid)
	assert.Equal(t, domain.StatusClosed, act.NewValue.String)
	assert.Equal(t, "fixed", act.Remarks.String)
	assert.Equal(t, int64(7), act.AttachmentID.Int64)
}

func TestUpdateStatus_ReopenClearsClosure(t *testing.T) {
	closed := UpdateStatus(openTicket(), TargetClosed, "", null.Int{}, "a", now).Ticket
	change := UpdateStatus(closed, TargetInProgress, "", null.Int{}, "a", now.Add(time.Minute))

	assert.Equal(t, domain.StatusInProgress, change.Ticket.Status.String)
	assert.False(t, change.Ticket.ClearedDate.Valid)
	assert.Equal(t, domain.StatusClosed, change.Activity.OldValue.String)
}

func TestUpdateStatus_RemarksAppend(t *testing.T) {
	tk := openTicket()
	tk.SystemRCA = null.StringFrom("imported RCA")

	change := UpdateStatus(tk, TargetOnHold, "  waiting on power  ", null.Int{}, "a", now)
	log := change.Ticket.SystemRCA.String
	assert.True(t, strings.HasPrefix(log, "imported RCA\n"))
	assert.True(t, strings.HasSuffix(log, "]: waiting on power"))

	blank := UpdateStatus(change.Ticket, TargetAssigned, "   ", null.Int{}, "a", now)
	assert.Equal(t, log, blank.Ticket.SystemRCA.String)
	assert.False(t, blank.Activity.Remarks.Valid)
}

func TestAddRemark(t *testing.T) {
	tk := openTicket()
	tk.Status = null.StringFrom(domain.StatusInProgress)

	change, err := AddRemark(tk, " generator started ", null.Int{}, "field.tech", now)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, change.Ticket.Status.String)
	assert.Equal(t, "[2024-03-15T12:30:45.123Z - field.tech]: generator started", change.Ticket.SystemRCA.String)
	assert.Equal(t, domain.ActivityAddRemark, change.Activity.Type)
	assert.Equal(t, "generator started", change.Activity.Remarks.String)
	assert.False(t, change.Activity.OldValue.Valid)
	assert.False(t, change.Activity.NewValue.Valid)
}

func TestAddRemark_Blank(t *testing.T) {
	_, err := AddRemark(openTicket(), " \t\n", null.Int{}, "a", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyInput))
}

func TestLastUpdateNeverMovesBackwards(t *testing.T) {
	tk := openTicket()
	last := now.Add(time.Hour).Truncate(time.Microsecond)
	tk.LastStatusUpdate = null.TimeFrom(last)

	change := Acknowledge(tk, "a", now)
	assert.Equal(t, last.Add(time.Microsecond), change.Ticket.LastStatusUpdate.Time)
	assert.Equal(t, last.Add(time.Microsecond), change.Activity.CreatedAt)
}

func TestAcknowledge_TwiceWithFrozenClock(t *testing.T) {
	first := Acknowledge(openTicket(), "a", now)
	second := Acknowledge(first.Ticket, "a", now)

	assert.True(t, second.Activity.CreatedAt.After(first.Activity.CreatedAt))
	assert.True(t, second.Ticket.LastStatusUpdate.Time.After(first.Ticket.LastStatusUpdate.Time))
	assert.Equal(t, time.Microsecond, second.Activity.CreatedAt.Sub(first.Activity.CreatedAt))

	remark, err := AddRemark(second.Ticket, "still on it", null.Int{}, "a", now)
	require.NoError(t, err)
	assert.True(t, remark.Activity.CreatedAt.After(second.Activity.CreatedAt))
}
