package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"github.com/vnoc/incident-tracker/internal/domain"
)

// Epoch is where tickets without a timestamp sort.
var Epoch = time.Unix(0, 0).UTC()

// AgeRange is an age bucket pinned to absolute open-time bounds.
// OpenedAfter is exclusive, OpenedAtOrBefore inclusive, so an instant on a
// bucket boundary lands in the older bucket.
type AgeRange struct {
	Bucket           AgeBucket
	OpenedAfter      *time.Time
	OpenedAtOrBefore *time.Time
}

// Plan is a validated filter ready for execution. The in-memory evaluator
// uses Matches and Less through Apply; the SQL backend translates the same fields.
type Plan struct {
	Statuses          []string
	IncludeNullStatus bool
	// ExcludeStatuses drops tickets with one of these statuses. Null status
	// is never excluded.
	ExcludeStatuses []string
	Severities      []string
	Age             *AgeRange
	Search          string
	Sort            SortMode
	Page            int
	Limit           int
	// Unpaged returns every match regardless of Page and Limit.
	Unpaged bool
}

// HasStatusFilter reports whether the plan restricts status at all.
func (p Plan) HasStatusFilter() bool {
	return len(p.Statuses) > 0 || p.IncludeNullStatus
}

// Offset is the index of the first ticket on the requested page. It
// saturates at math.MaxInt, which lies beyond any result set.
func (p Plan) Offset() int {
	if p.Unpaged || p.Page < 2 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the page count for total matches.
func (p Plan) TotalPages(total int) int {
	if p.Limit < 1 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Matches reports whether t satisfies every criterion of the plan.
func (p Plan) Matches(t *domain.Ticket) bool {
	if p.HasStatusFilter() {
		if !t.Status.Valid {
			if !p.IncludeNullStatus {
				return false
			}
		} else if !contains(p.Statuses, t.Status.String) {
			return false
		}
	}
	if t.Status.Valid && contains(p.ExcludeStatuses, t.Status.String) {
		return false
	}
	if len(p.Severities) > 0 {
		if !t.Severity.Valid || !contains(p.Severities, strings.ToLower(t.Severity.String)) {
			return false
		}
	}
	if p.Age != nil && !p.Age.contains(t.OpenTime) {
		return false
	}
	if p.Search != "" && !matchesSearch(t, strings.ToLower(p.Search)) {
		return false
	}
	return true
}

func (r *AgeRange) contains(openTime null.Time) bool {
	if !openTime.Valid {
		return false
	}
	opened := Truncate(openTime.Time)
	if r.OpenedAfter != nil && !opened.After(*r.OpenedAfter) {
		return false
	}
	if r.OpenedAtOrBefore != nil && opened.After(*r.OpenedAtOrBefore) {
		return false
	}
	return true
}

func matchesSearch(t *domain.Ticket, needle string) bool {
	if strings.Contains(strings.ToLower(t.TTNumber), needle) {
		return true
	}
	for _, field := range []null.String{t.SiteName, t.EventName} {
		if field.Valid && strings.Contains(strings.ToLower(field.String), needle) {
			return true
		}
	}
	return false
}

// Less orders a before b. Every mode breaks ties by open time descending and
// then by ticket number, which keeps pagination deterministic.
func (p Plan) Less(a, b *domain.Ticket) bool {
	openA, openB := OrderTime(a.OpenTime), OrderTime(b.OpenTime)
	switch p.Sort {
	case SortOldest:
		if !openA.Equal(openB) {
			return openA.Before(openB)
		}
	case SortMostCritical, SortLeastCritical:
		rankA, rankB := domain.SeverityRank(a.Severity), domain.SeverityRank(b.Severity)
		if rankA != rankB {
			if p.Sort == SortMostCritical {
				return rankA < rankB
			}
			return rankA > rankB
		}
	case SortRecentlyUpdated:
		updA, updB := LastActivity(a), LastActivity(b)
		if !updA.Equal(updB) {
			return updA.After(updB)
		}
	}
	if !openA.Equal(openB) {
		return openA.After(openB)
	}
	return a.TTNumber < b.TTNumber
}

// OrderTime is the sort key of a nullable timestamp.
func OrderTime(t null.Time) time.Time {
	if !t.Valid {
		return Epoch
	}
	return Truncate(t.Time)
}

// LastActivity is the last status update, else the open time, else epoch.
func LastActivity(t *domain.Ticket) time.Time {
	if t.LastStatusUpdate.Valid {
		return Truncate(t.LastStatusUpdate.Time)
	}
	return OrderTime(t.OpenTime)
}

// Apply evaluates the plan over a snapshot and returns the requested page and
// the number of matches before slicing.
func Apply(tickets []domain.Ticket, p Plan) ([]domain.Ticket, int) {
	matched := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if p.Matches(&tickets[i]) {
			matched = append(matched, tickets[i])
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return p.Less(&matched[i], &matched[j])
	})

	total := len(matched)
	if p.Unpaged {
		return matched, total
	}
	start := p.Offset()
	if start >= total {
		return []domain.Ticket{}, total
	}
	end := total
	if p.Limit < total-start {
		end = start + p.Limit
	}
	return matched[start:end], total
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
