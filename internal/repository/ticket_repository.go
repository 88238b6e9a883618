package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/query"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// MutationFunc computes the next ticket state and the activity recording it.
// It runs while the ticket is locked and must not block.
type MutationFunc func(current domain.Ticket) (domain.Ticket, domain.Activity, error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	GetByTTNumber(ctx context.Context, ttNumber string) (*domain.Ticket, error)
	Query(ctx context.Context, plan query.Plan) ([]domain.Ticket, int, error)
	Count(ctx context.Context, plan query.Plan) (int, error)
	// Mutate persists the ticket and appends the activity atomically. Neither
	// is visible when either write fails.
	Mutate(ctx context.Context, ttNumber string, fn MutationFunc) (*domain.Ticket, *domain.Activity, error)
	Seed(ctx context.Context, tickets []domain.Ticket) (int, error)
}

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) GetByTTNumber(ctx context.Context, ttNumber string) (*domain.Ticket, error) {
	const sql = `SELECT ` + ticketColumns + ` FROM ` + ticketTable + ` WHERE tt_number=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, sql, ttNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ticketNotFound(ttNumber)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) Query(ctx context.Context, plan query.Plan) ([]domain.Ticket, int, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, storageError(err)
	}

	countSQL, countArgs := buildTicketCount(plan)
	var total int
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		_ = tx.Rollback(ctx)
		return nil, 0, storageError(err)
	}

	tickets := []domain.Ticket{}
	if plan.Unpaged || plan.Offset() < total {
		sql, args := buildTicketQuery(plan)
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, 0, storageError(err)
		}
		tickets, err = scanTickets(rows)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, 0, storageError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, storageError(err)
	}
	return tickets, total, nil
}

func (r *ticketRepository) Count(ctx context.Context, plan query.Plan) (int, error) {
	sql, args := buildTicketCount(plan)
	var total int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, storageError(err)
	}
	return total, nil
}

func (r *ticketRepository) Mutate(ctx context.Context, ttNumber string, fn MutationFunc) (*domain.Ticket, *domain.Activity, error) {
	const (
		lockSQL   = `SELECT ` + ticketColumns + ` FROM ` + ticketTable + ` WHERE tt_number=$1 FOR UPDATE`
		updateSQL = `
        UPDATE ` + ticketTable + ` SET status=$2, system_rca=$3, cleared_date=$4, escl_status_last_updated_date_time=$5
        WHERE tt_number=$1`
		insertSQL = `
        INSERT INTO vnoc.ticket_activities (tt_number, activity_type, old_value, new_value, remarks, attachment_id, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING activity_id`
	)

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, storageError(err)
	}

	current, err := scanTicket(tx.QueryRow(ctx, lockSQL, ttNumber))
	if err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ticketNotFound(ttNumber)
		}
		return nil, nil, storageError(err)
	}

	next, activity, err := fn(*current)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, err
	}

	cmd, err := tx.Exec(ctx, updateSQL, ttNumber, next.Status, next.SystemRCA, next.ClearedDate, next.LastStatusUpdate)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, storageError(err)
	}
	if cmd.RowsAffected() == 0 {
		_ = tx.Rollback(ctx)
		return nil, nil, ticketNotFound(ttNumber)
	}

	activity.TTNumber = ttNumber
	if err := tx.QueryRow(ctx, insertSQL,
		activity.TTNumber,
		string(activity.Type),
		activity.OldValue,
		activity.NewValue,
		activity.Remarks,
		activity.AttachmentID,
		activity.CreatedBy,
		activity.CreatedAt,
	).Scan(&activity.ID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, storageError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, storageError(err)
	}
	return &next, &activity, nil
}

// Seed inserts tickets that are not stored yet and reports how many were new.
func (r *ticketRepository) Seed(ctx context.Context, tickets []domain.Ticket) (int, error) {
	const sql = `
        INSERT INTO ` + ticketTable + ` (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
        ON CONFLICT (tt_number) DO NOTHING`

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, storageError(err)
	}
	inserted := 0
	for i := range tickets {
		t := &tickets[i]
		cmd, err := tx.Exec(ctx, sql,
			t.TTNumber, t.Status, t.Severity, t.EventName, t.SourceInput, t.SystemRCA,
			t.OpenTime, t.ClearedDate, t.AgingMinutes, t.ProcessTime,
			t.LastStatusUpdate, t.Circle, t.Cluster, t.SiteID, t.SiteName,
			t.CustomerSiteID, t.SiteClassification, t.UserName, t.Technician, t.Supervisor,
			t.ClusterEngineer, t.ClusterIncharge, t.Comh, t.EscalationStatus,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, storageError(err)
		}
		inserted += int(cmd.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, storageError(err)
	}
	return inserted, nil
}

func ticketNotFound(ttNumber string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"tt_number": ttNumber})
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.TTNumber, &t.Status, &t.Severity, &t.EventName, &t.SourceInput, &t.SystemRCA,
		&t.OpenTime, &t.ClearedDate, &t.AgingMinutes, &t.ProcessTime,
		&t.LastStatusUpdate, &t.Circle, &t.Cluster, &t.SiteID, &t.SiteName,
		&t.CustomerSiteID, &t.SiteClassification, &t.UserName, &t.Technician, &t.Supervisor,
		&t.ClusterEngineer, &t.ClusterIncharge, &t.Comh, &t.EscalationStatus,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	result := []domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}
