package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/lifecycle"
	"github.com/vnoc/incident-tracker/internal/query"
)

// equivalenceFixtures covers null fields, mixed-case severities, LIKE
// metacharacters, repeated open times and every bucket boundary.
func equivalenceFixtures() []domain.Ticket {
	statuses := []string{"", "Open", "Assigned", "In Progress", "On Hold", "Resolved", "Closed"}
	severities := []string{"Critical", "critical", "EMERGENCY", "major", "minor", ""}
	ages := []time.Duration{
		-1, 0, time.Hour, 24*time.Hour - time.Microsecond, 24 * time.Hour, 60 * time.Hour,
		120 * time.Hour, 200 * time.Hour, 240 * time.Hour, 500 * time.Hour, time.Hour,
	}
	sites := []string{"", "Tower 7", "50% Hub_North", "tower_70", "Alpha"}

	var tickets []domain.Ticket
	for i := 0; i < 44; i++ {
		t := domain.Ticket{
			TTNumber:  fmt.Sprintf("TT-%03d", (i*7)%44),
			Status:    null.NewString(statuses[i%len(statuses)], statuses[i%len(statuses)] != ""),
			Severity:  null.NewString(severities[i%len(severities)], severities[i%len(severities)] != ""),
			SiteName:  null.NewString(sites[i%len(sites)], sites[i%len(sites)] != ""),
			EventName: null.StringFrom(fmt.Sprintf("Event %d", i%9)),
		}
		if age := ages[i%len(ages)]; age >= 0 {
			t.OpenTime = null.TimeFrom(fixedNow.Add(-age))
		}
		if i%3 == 0 {
			t.LastStatusUpdate = null.TimeFrom(fixedNow.Add(-time.Duration(i) * time.Minute))
		}
		tickets = append(tickets, t)
	}

	opened := null.TimeFrom(fixedNow.Add(-3 * time.Hour))
	tickets = append(tickets,
		domain.Ticket{TTNumber: "TT-U01", Status: null.StringFrom("Open"), Severity: null.StringFrom("Critical"),
			SiteName: null.StringFrom("Ümraniye Hub"), EventName: null.StringFrom("Site down"), OpenTime: opened},
		domain.Ticket{TTNumber: "TT-U02", Severity: null.StringFrom("MAJOR"),
			SiteName: null.StringFrom("Évry Sud"), EventName: null.StringFrom("Coupure fibre ÉTÉ"), OpenTime: opened},
		domain.Ticket{TTNumber: "TT-U03", Status: null.StringFrom("Assigned"), Severity: null.StringFrom("Émergency"),
			SiteName: null.StringFrom("Straße Nord"), OpenTime: opened},
	)
	return tickets
}

// unicodeFilters need a database whose LOWER folds non-ASCII letters.
func unicodeFilters() []query.Filter {
	return []query.Filter{
		{Search: "ümran"},
		{Search: "ÜMRANIYE"},
		{Search: "été", SortBy: "oldest"},
		{Search: "STRASSE"},
		{Search: "straße"},
		{Severities: []string{"émergency"}, SortBy: "most_critical"},
		{Severities: []string{"ÉMERGENCY", "critical"}, Limit: 100},
	}
}

func equivalenceFilters() []query.Filter {
	var filters []query.Filter
	for _, sortBy := range []string{"newest", "oldest", "most_critical", "least_critical"} {
		filters = append(filters,
			query.Filter{SortBy: sortBy, Limit: 7, Page: 2},
			query.Filter{SortBy: sortBy, Statuses: []string{"null", "Open"}},
			query.Filter{SortBy: sortBy, Severities: []string{"CRITICAL", "major"}, Limit: 100},
			query.Filter{SortBy: sortBy, Search: "50%"},
			query.Filter{SortBy: sortBy, Search: "tower_"},
			query.Filter{SortBy: sortBy, Search: "tt-01"},
		)
		for _, bucket := range query.AgeBuckets() {
			filters = append(filters, query.Filter{SortBy: sortBy, Age: string(bucket), Limit: 100})
		}
	}
	return filters
}

func TestBackendsAgree(t *testing.T) {
	dsn := os.Getenv("TT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	migration, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "TRUNCATE vnoc.ticket_activities, vnoc.ticket_attachments, vnoc.incident_reports")
	require.NoError(t, err)

	fixtures := equivalenceFixtures()
	pg := NewPostgresStore(pool)
	mem := NewMemoryStore(fixtures).Store()
	inserted, err := pg.Tickets.Seed(ctx, fixtures)
	require.NoError(t, err)
	require.Equal(t, len(fixtures), inserted)

	compare := func(t *testing.T, plan query.Plan) {
		memPage, memTotal, err := mem.Tickets.Query(ctx, plan)
		require.NoError(t, err)
		pgPage, pgTotal, err := pg.Tickets.Query(ctx, plan)
		require.NoError(t, err)

		assert.Equal(t, memTotal, pgTotal)
		assert.Equal(t, ids(memPage), ids(pgPage))

		pgCount, err := pg.Tickets.Count(ctx, plan)
		require.NoError(t, err)
		assert.Equal(t, memTotal, pgCount)
	}

	for i, f := range equivalenceFilters() {
		t.Run(fmt.Sprintf("%02d_%s", i, f.SortBy), func(t *testing.T) {
			plan, err := f.Resolve(fixedNow)
			require.NoError(t, err)
			compare(t, plan)
		})
	}

	t.Run("non-ascii case folding", func(t *testing.T) {
		var folds bool
		require.NoError(t, pool.QueryRow(ctx, "SELECT LOWER('ÜÉ') = 'üé'").Scan(&folds))
		if !folds {
			t.Skip("database ctype folds ASCII only")
		}
		for i, f := range unicodeFilters() {
			t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
				plan, err := f.Resolve(fixedNow)
				require.NoError(t, err)
				compare(t, plan)
			})
		}
	})

	t.Run("aggregation plans", func(t *testing.T) {
		compare(t, query.Plan{ExcludeStatuses: []string{"Closed", "Resolved"}, Sort: query.SortNewest, Unpaged: true})
		compare(t, query.Plan{Sort: query.SortRecentlyUpdated, Page: 1, Limit: 20})
	})

	t.Run("mutation", func(t *testing.T) {
		fn := func(current domain.Ticket) (domain.Ticket, domain.Activity, error) {
			change := lifecycle.UpdateStatus(current, lifecycle.TargetClosed, "fixed", null.Int{}, "op", fixedNow)
			return change.Ticket, change.Activity, nil
		}
		memTicket, memAct, err := mem.Tickets.Mutate(ctx, "TT-000", fn)
		require.NoError(t, err)
		pgTicket, pgAct, err := pg.Tickets.Mutate(ctx, "TT-000", fn)
		require.NoError(t, err)

		assert.Equal(t, memTicket.SystemRCA, pgTicket.SystemRCA)
		assert.True(t, memTicket.ClearedDate.Time.Equal(pgTicket.ClearedDate.Time))
		assert.Equal(t, memAct.Type, pgAct.Type)

		stored, err := pg.Tickets.GetByTTNumber(ctx, "TT-000")
		require.NoError(t, err)
		assert.Equal(t, "Closed", stored.Status.String)

		timeline, err := pg.Activities.ListByTicket(ctx, "TT-000")
		require.NoError(t, err)
		require.Len(t, timeline, 1)
		assert.Equal(t, "fixed", timeline[0].Remarks.String)
	})
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i := range tickets {
		out[i] = tickets[i].TTNumber
	}
	return out
}
