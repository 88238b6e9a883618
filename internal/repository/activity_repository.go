package repository

import (
	"context"

	"github.com/vnoc/incident-tracker/internal/domain"
)

// ActivityRepository reads the append-only activity log. Activities are
// written only through TicketRepository.Mutate.
type ActivityRepository interface {
	ListByTicket(ctx context.Context, ttNumber string) ([]domain.TimelineEntry, error)
}

type activityRepository struct {
	db DB
}

// NewActivityRepository constructs repository.
func NewActivityRepository(db DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) ListByTicket(ctx context.Context, ttNumber string) ([]domain.TimelineEntry, error) {
	const sql = `
        SELECT a.activity_id, a.tt_number, a.activity_type, a.old_value, a.new_value, a.remarks,
               a.attachment_id, a.created_by, a.created_at, att.original_filename, att.file_path
        FROM vnoc.ticket_activities a
        LEFT JOIN vnoc.ticket_attachments att ON att.attachment_id = a.attachment_id
        WHERE a.tt_number=$1
        ORDER BY a.created_at DESC, a.activity_id DESC`
	rows, err := r.db.Query(ctx, sql, ttNumber)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	result := []domain.TimelineEntry{}
	for rows.Next() {
		var entry domain.TimelineEntry
		var activityType string
		if err := rows.Scan(
			&entry.ID,
			&entry.TTNumber,
			&activityType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Remarks,
			&entry.AttachmentID,
			&entry.CreatedBy,
			&entry.CreatedAt,
			&entry.AttachmentFilename,
			&entry.AttachmentPath,
		); err != nil {
			return nil, storageError(err)
		}
		entry.Type = domain.ActivityType(activityType)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return result, nil
}
