package query

import (
	"strings"
	"time"

	apperrors "github.com/vnoc/incident-tracker/pkg/util"
)

// SortMode selects the ticket ordering.
type SortMode string

const (
	SortNewest        SortMode = "newest"
	SortOldest        SortMode = "oldest"
	SortMostCritical  SortMode = "most_critical"
	SortLeastCritical SortMode = "least_critical"
	// SortRecentlyUpdated orders by last status update falling back to open
	// time. It backs the recent-updates view and is not offered to callers.
	SortRecentlyUpdated SortMode = "recently_updated"
)

// AgeBucket classifies a ticket by time elapsed since it opened.
type AgeBucket string

const (
	AgeUnderOneDay   AgeBucket = "<1 day"
	AgeOneToFiveDays AgeBucket = "1-5 days"
	AgeFiveToTenDays AgeBucket = "5-10 days"
	AgeOverTenDays   AgeBucket = ">10 days"
)

// NullStatusLiteral is the status filter value that selects tickets whose
// status was never set.
const NullStatusLiteral = "null"

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// bucket ages are half-open: [min, max). A zero bound is unbounded.
var ageBuckets = map[AgeBucket]struct{ min, max time.Duration }{
	AgeUnderOneDay:   {0, 24 * time.Hour},
	AgeOneToFiveDays: {24 * time.Hour, 120 * time.Hour},
	AgeFiveToTenDays: {120 * time.Hour, 240 * time.Hour},
	AgeOverTenDays:   {240 * time.Hour, 0},
}

// AgeBuckets lists the buckets in ascending age order.
func AgeBuckets() []AgeBucket {
	return []AgeBucket{AgeUnderOneDay, AgeOneToFiveDays, AgeFiveToTenDays, AgeOverTenDays}
}

// Filter carries caller supplied ticket list criteria. Zero values mean
// "no constraint" or "use the default".
type Filter struct {
	Statuses   []string
	Severities []string
	Age        string
	Search     string
	SortBy     string
	Page       int
	Limit      int
}

// Resolve validates the filter and pins it to now, producing the plan both
// store backends execute.
func (f Filter) Resolve(now time.Time) (Plan, error) {
	plan := Plan{
		Sort:  parseSort(f.SortBy),
		Page:  f.Page,
		Limit: f.Limit,
	}
	if plan.Page < 1 {
		plan.Page = DefaultPage
	}
	if plan.Limit < 1 {
		plan.Limit = DefaultLimit
	}

	for _, status := range f.Statuses {
		status = strings.TrimSpace(status)
		switch status {
		case "":
			continue
		case NullStatusLiteral:
			plan.IncludeNullStatus = true
		default:
			plan.Statuses = appendUnique(plan.Statuses, status)
		}
	}

	for _, severity := range f.Severities {
		severity = strings.ToLower(strings.TrimSpace(severity))
		if severity == "" {
			continue
		}
		plan.Severities = appendUnique(plan.Severities, severity)
	}

	if age := strings.TrimSpace(f.Age); age != "" {
		bounds, ok := ageBuckets[AgeBucket(age)]
		if !ok {
			return Plan{}, apperrors.NewValidationError("invalid age bucket", map[string]any{
				"age":     age,
				"allowed": AgeBuckets(),
			})
		}
		plan.Age = resolveAge(AgeBucket(age), bounds.min, bounds.max, now)
	}

	plan.Search = strings.TrimSpace(f.Search)
	return plan, nil
}

func resolveAge(bucket AgeBucket, min, max time.Duration, now time.Time) *AgeRange {
	now = Truncate(now)
	r := &AgeRange{Bucket: bucket}
	if max > 0 {
		after := now.Add(-max)
		r.OpenedAfter = &after
	}
	if min > 0 {
		atOrBefore := now.Add(-min)
		r.OpenedAtOrBefore = &atOrBefore
	}
	return r
}

func parseSort(raw string) SortMode {
	switch mode := SortMode(strings.TrimSpace(raw)); mode {
	case SortOldest, SortMostCritical, SortLeastCritical:
		return mode
	default:
		return SortNewest
	}
}

func appendUnique(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// Truncate drops sub-microsecond precision so timestamps compare the same in
// memory and in PostgreSQL.
func Truncate(t time.Time) time.Time {
	return t.Truncate(time.Microsecond)
}
