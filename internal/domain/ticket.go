package domain

import (
	"strings"

	"github.com/guregu/null/v5"
)

// Ticket status values seen on incident reports. A null status means the
// ticket has not been touched since import and is treated as open.
const (
	StatusOpen       = "Open"
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusOnHold     = "On Hold"
	StatusResolved   = "Resolved"
	StatusClosed     = "Closed"
)

// Severity values that carry a rank. Anything else ranks last.
const (
	SeverityCritical  = "critical"
	SeverityEmergency = "emergency"
	SeverityMajor     = "major"
)

// LowestSeverityRank is the rank of unknown or missing severities.
const LowestSeverityRank = 4

var severityRanks = map[string]int{
	SeverityCritical:  1,
	SeverityEmergency: 2,
	SeverityMajor:     3,
}

// RankedSeverities lists the ranked severities from most to least critical.
func RankedSeverities() []string {
	return []string{SeverityCritical, SeverityEmergency, SeverityMajor}
}

// SeverityRank maps a severity to its ordinal importance (1 is highest).
func SeverityRank(severity null.String) int {
	if !severity.Valid {
		return LowestSeverityRank
	}
	if rank, ok := severityRanks[strings.ToLower(severity.String)]; ok {
		return rank
	}
	return LowestSeverityRank
}

// Ticket is an incident report ("TT") tracked through its lifecycle.
type Ticket struct {
	TTNumber           string      `json:"tt_number"`
	Status             null.String `json:"status"`
	Severity           null.String `json:"severity"`
	EventName          null.String `json:"event_name"`
	SourceInput        null.String `json:"source_input"`
	SystemRCA          null.String `json:"system_rca"`
	OpenTime           null.Time   `json:"open_time"`
	ClearedDate        null.Time   `json:"cleared_date"`
	AgingMinutes       null.Int    `json:"tt_aging_minutes"`
	ProcessTime        null.Time   `json:"vnoc_tt_process_time"`
	LastStatusUpdate   null.Time   `json:"escl_status_last_updated_date_time"`
	Circle             null.String `json:"circle"`
	Cluster            null.String `json:"cluster"`
	SiteID             null.String `json:"site_id"`
	SiteName           null.String `json:"site_name"`
	CustomerSiteID     null.String `json:"customer_site_id"`
	SiteClassification null.String `json:"site_classification"`
	UserName           null.String `json:"user_name"`
	Technician         null.String `json:"technician"`
	Supervisor         null.String `json:"supervisior"`
	ClusterEngineer    null.String `json:"cluster_engineer"`
	ClusterIncharge    null.String `json:"cluster_incharge"`
	Comh               null.String `json:"comh"`
	EscalationStatus   null.String `json:"esclation_status"`
}

// IsClosed reports whether the ticket reached the terminal state.
func (t *Ticket) IsClosed() bool {
	return t.Status.Valid && t.Status.String == StatusClosed
}

// IsUnacknowledged reports whether nobody has picked the ticket up yet.
func (t *Ticket) IsUnacknowledged() bool {
	return !t.Status.Valid || t.Status.String == StatusOpen
}

// EventLabel returns the event name, or fallback when the ticket has none.
func (t *Ticket) EventLabel(fallback string) string {
	if t.EventName.Valid && t.EventName.String != "" {
		return t.EventName.String
	}
	return fallback
}
