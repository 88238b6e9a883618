package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/lifecycle"
	"github.com/vnoc/incident-tracker/internal/query"
	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

var ticketColumnNames = []string{
	"tt_number", "status", "severity", "event_name", "source_input", "system_rca",
	"open_time", "cleared_date", "tt_aging_minutes", "vnoc_tt_process_time",
	"escl_status_last_updated_date_time", "circle", "cluster", "site_id", "site_name",
	"customer_site_id", "site_classification", "user_name", "technician", "supervisior",
	"cluster_engineer", "cluster_incharge", "comh", "esclation_status",
}

func ticketRow(mock pgxmock.PgxPoolIface, t domain.Ticket) *pgxmock.Rows {
	return mock.NewRows(ticketColumnNames).AddRow(
		t.TTNumber, t.Status, t.Severity, t.EventName, t.SourceInput, t.SystemRCA,
		t.OpenTime, t.ClearedDate, t.AgingMinutes, t.ProcessTime,
		t.LastStatusUpdate, t.Circle, t.Cluster, t.SiteID, t.SiteName,
		t.CustomerSiteID, t.SiteClassification, t.UserName, t.Technician, t.Supervisor,
		t.ClusterEngineer, t.ClusterIncharge, t.Comh, t.EscalationStatus,
	)
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestTicketRepository_GetByTTNumber(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	seeded := seedTickets()[0]

	mock.ExpectQuery(`SELECT tt_number, status, severity .* FROM vnoc.incident_reports WHERE tt_number=\$1`).
		WithArgs("TT-1").
		WillReturnRows(ticketRow(mock, seeded))

	ticket, err := repo.GetByTTNumber(context.Background(), "TT-1")
	require.NoError(t, err)
	assert.Equal(t, seeded, *ticket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_GetByTTNumber_Errors(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectQuery(`FROM vnoc.incident_reports WHERE tt_number=\$1`).
		WithArgs("TT-404").
		WillReturnRows(mock.NewRows(ticketColumnNames))
	mock.ExpectQuery(`FROM vnoc.incident_reports WHERE tt_number=\$1`).
		WithArgs("TT-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByTTNumber(context.Background(), "TT-404")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = repo.GetByTTNumber(context.Background(), "TT-1")
	assert.True(t, errors.Is(err, apperrors.ErrBackendUnavailable))
	assert.Equal(t, 503, apperrors.ToDomainError(err).HTTPStatus)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_Query(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	plan, err := query.Filter{Statuses: []string{"Open"}, Page: 1, Limit: 10}.Resolve(fixedNow)
	require.NoError(t, err)
	seeded := seedTickets()[1]

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vnoc.incident_reports WHERE \(status IN \(\$1\)\)`).
		WithArgs("Open").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM vnoc.incident_reports WHERE \(status IN \(\$1\)\) ORDER BY .* LIMIT \$2 OFFSET \$3`).
		WithArgs("Open", 10, 0).
		WillReturnRows(ticketRow(mock, seeded))
	mock.ExpectCommit()

	page, total, err := repo.Query(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, []domain.Ticket{seeded}, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_QueryBeyondLastPageSkipsSelect(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	plan, err := query.Filter{Page: 5, Limit: 10}.Resolve(fixedNow)
	require.NoError(t, err)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vnoc.incident_reports`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectCommit()

	page, total, err := repo.Query(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.NotNil(t, page)
	assert.Empty(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_QueryHugePageSkipsSelect(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	plan, err := query.Filter{Page: math.MaxInt / 2, Limit: 4}.Resolve(fixedNow)
	require.NoError(t, err)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vnoc.incident_reports`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	page, total, err := repo.Query(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, page)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_Mutate(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	seeded := seedTickets()[0]

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`FROM vnoc.incident_reports WHERE tt_number=\$1 FOR UPDATE`).
		WithArgs("TT-1").
		WillReturnRows(ticketRow(mock, seeded))
	mock.ExpectExec(`UPDATE vnoc.incident_reports SET status=\$2, system_rca=\$3, cleared_date=\$4, escl_status_last_updated_date_time=\$5`).
		WithArgs("TT-1", null.StringFrom("Closed"), null.StringFrom("[2024-03-15T12:00:00.000Z]: fixed"), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO vnoc.ticket_activities`).
		WithArgs("TT-1", "status_update", null.String{}, null.StringFrom("Closed"), null.StringFrom("fixed"), null.Int{}, "op", fixedNow).
		WillReturnRows(mock.NewRows([]string{"activity_id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	ticket, activity, err := repo.Mutate(context.Background(), "TT-1", func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
		change := lifecycle.UpdateStatus(current, lifecycle.TargetClosed, "fixed", null.Int{}, "op", fixedNow)
		return change.Ticket, change.Activity, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Closed", ticket.Status.String)
	assert.True(t, ticket.ClearedDate.Valid)
	assert.Equal(t, int64(42), activity.ID)
	assert.Equal(t, domain.ActivityStatusUpdate, activity.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_MutateRollsBack(t *testing.T) {
	cases := []struct {
		name   string
		expect func(mock pgxmock.PgxPoolIface)
		kind   error
	}{
		{
			name: "missing ticket",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("TT-1").WillReturnRows(mock.NewRows(ticketColumnNames))
				mock.ExpectRollback()
			},
			kind: apperrors.ErrNotFound,
		},
		{
			name: "update fails",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("TT-1").WillReturnRows(ticketRow(mock, seedTickets()[0]))
				mock.ExpectExec(`UPDATE vnoc.incident_reports`).WithArgs(anyArgs(5)...).WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			kind: apperrors.ErrBackendUnavailable,
		},
		{
			name: "activity insert fails",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FOR UPDATE`).WithArgs("TT-1").WillReturnRows(ticketRow(mock, seedTickets()[0]))
				mock.ExpectExec(`UPDATE vnoc.incident_reports`).WithArgs(anyArgs(5)...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectQuery(`INSERT INTO vnoc.ticket_activities`).WithArgs(anyArgs(8)...).WillReturnError(errors.New("connection lost"))
				mock.ExpectRollback()
			},
			kind: apperrors.ErrBackendUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			repo := NewTicketRepository(mock)
			mock.ExpectBeginTx(pgx.TxOptions{})
			tc.expect(mock)

			_, _, err := repo.Mutate(context.Background(), "TT-1", acknowledge("op", fixedNow))
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTicketRepository_MutateCallerErrorRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectQuery(`FOR UPDATE`).WithArgs("TT-1").WillReturnRows(ticketRow(mock, seedTickets()[0]))
	mock.ExpectRollback()

	_, _, err := repo.Mutate(context.Background(), "TT-1", func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
		change, err := lifecycle.AddRemark(current, "   ", null.Int{}, "op", time.Now())
		return change.Ticket, change.Activity, err
	})
	assert.True(t, errors.Is(err, apperrors.ErrEmptyInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_Seed(t *testing.T) {
	mock := newMock(t)
	repo := NewTicketRepository(mock)
	tickets := seedTickets()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`INSERT INTO vnoc.incident_reports .* ON CONFLICT \(tt_number\) DO NOTHING`).
		WithArgs(append([]any{"TT-1"}, anyArgs(23)...)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO vnoc.incident_reports .* ON CONFLICT \(tt_number\) DO NOTHING`).
		WithArgs(append([]any{"TT-2"}, anyArgs(23)...)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	inserted, err := repo.Seed(context.Background(), tickets)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
