package repository

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
	"github.com/vnoc/incident-tracker/internal/query"
)

const ticketTable = "vnoc.incident_reports"

const ticketColumns = `tt_number, status, severity, event_name, source_input, system_rca,
               open_time, cleared_date, tt_aging_minutes, vnoc_tt_process_time,
               escl_status_last_updated_date_time, circle, cluster, site_id, site_name,
               customer_site_id, site_classification, user_name, technician, supervisior,
               cluster_engineer, cluster_incharge, comh, esclation_status`

const (
	openTimeKey   = `COALESCE(open_time, TIMESTAMPTZ 'epoch')`
	lastUpdateKey = `COALESCE(escl_status_last_updated_date_time, open_time, TIMESTAMPTZ 'epoch')`
	ticketTieKey  = `tt_number COLLATE "C" ASC`
)

// severityRankExpr mirrors domain.SeverityRank.
var severityRankExpr = func() string {
	var b strings.Builder
	b.WriteString("CASE LOWER(severity)")
	for _, severity := range domain.RankedSeverities() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", severity, domain.SeverityRank(null.StringFrom(severity)))
	}
	fmt.Fprintf(&b, " ELSE %d END", domain.LowestSeverityRank)
	return b.String()
}()

type sqlBuilder struct {
	clauses []string
	args    []any
}

func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) bindAll(values []string) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.bind(v)
	}
	return strings.Join(placeholders, ",")
}

func (b *sqlBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// buildTicketWhere translates the plan's criteria. It must accept exactly the
// tickets query.Plan.Matches accepts.
func buildTicketWhere(plan query.Plan) *sqlBuilder {
	b := &sqlBuilder{}

	if plan.HasStatusFilter() {
		var alternatives []string
		if len(plan.Statuses) > 0 {
			alternatives = append(alternatives, fmt.Sprintf("status IN (%s)", b.bindAll(plan.Statuses)))
		}
		if plan.IncludeNullStatus {
			alternatives = append(alternatives, "status IS NULL")
		}
		b.clauses = append(b.clauses, "("+strings.Join(alternatives, " OR ")+")")
	}
	if len(plan.ExcludeStatuses) > 0 {
		b.clauses = append(b.clauses, fmt.Sprintf("(status IS NULL OR status NOT IN (%s))", b.bindAll(plan.ExcludeStatuses)))
	}
	if len(plan.Severities) > 0 {
		b.clauses = append(b.clauses, fmt.Sprintf("LOWER(severity) IN (%s)", b.bindAll(plan.Severities)))
	}
	if plan.Age != nil {
		if plan.Age.OpenedAfter != nil {
			b.clauses = append(b.clauses, "open_time > "+b.bind(*plan.Age.OpenedAfter))
		}
		if plan.Age.OpenedAtOrBefore != nil {
			b.clauses = append(b.clauses, "open_time <= "+b.bind(*plan.Age.OpenedAtOrBefore))
		}
		if plan.Age.OpenedAfter == nil && plan.Age.OpenedAtOrBefore == nil {
			b.clauses = append(b.clauses, "open_time IS NOT NULL")
		}
	}
	if plan.Search != "" {
		p := b.bind("%" + escapeLike(strings.ToLower(plan.Search)) + "%")
		b.clauses = append(b.clauses, fmt.Sprintf(
			`(LOWER(tt_number) LIKE %[1]s ESCAPE '\' OR LOWER(site_name) LIKE %[1]s ESCAPE '\' OR LOWER(event_name) LIKE %[1]s ESCAPE '\')`, p))
	}
	return b
}

// ticketOrderBy mirrors query.Plan.Less.
func ticketOrderBy(mode query.SortMode) string {
	switch mode {
	case query.SortOldest:
		return openTimeKey + " ASC, " + ticketTieKey
	case query.SortMostCritical:
		return severityRankExpr + " ASC, " + openTimeKey + " DESC, " + ticketTieKey
	case query.SortLeastCritical:
		return severityRankExpr + " DESC, " + openTimeKey + " DESC, " + ticketTieKey
	case query.SortRecentlyUpdated:
		return lastUpdateKey + " DESC, " + openTimeKey + " DESC, " + ticketTieKey
	default:
		return openTimeKey + " DESC, " + ticketTieKey
	}
}

// buildTicketQuery returns the page SELECT for plan.
func buildTicketQuery(plan query.Plan) (string, []any) {
	b := buildTicketWhere(plan)
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", ticketColumns, ticketTable, b.where(), ticketOrderBy(plan.Sort))
	if !plan.Unpaged {
		sql += fmt.Sprintf(" LIMIT %s OFFSET %s", b.bind(plan.Limit), b.bind(plan.Offset()))
	}
	return sql, b.args
}

// buildTicketCount returns the COUNT(*) statement for plan's criteria.
func buildTicketCount(plan query.Plan) (string, []any) {
	b := buildTicketWhere(plan)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", ticketTable, b.where()), b.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
