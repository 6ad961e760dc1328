package model

import "time"

// Site status classifications produced by the aggregator, in priority order.
const (
	SiteStatusAlert   = "alert"
	SiteStatusIdle    = "idle"
	SiteStatusWarning = "warning"
	SiteStatusActive  = "active"
)

// CategoryStat is an ok/issue tally for one checklist category.
type CategoryStat struct {
	OK    int     `json:"ok"`
	Issue int     `json:"issue"`
	Rate  float64 `json:"rate"` // percentage, 100 when no observations
}

// IncidentStat counts behavioral incidents over the visits in the window.
type IncidentStat struct {
	Count int     `json:"count"`
	Rate  float64 `json:"rate"` // (visits - incidents) / visits, percentage
}

type EquipmentStats struct {
	Uniform      CategoryStat `json:"uniform"`
	Flashlight   CategoryStat `json:"flashlight"`
	DefenseTools CategoryStat `json:"defenseTools"`
	Logbook      CategoryStat `json:"logbook"`
	Rate         float64      `json:"rate"`
}

type SecurityStats struct {
	Gates      CategoryStat `json:"gates"`
	Lighting   CategoryStat `json:"lighting"`
	FireSafety CategoryStat `json:"fireSafety"`
	Rate       float64      `json:"rate"`
}

type DisciplineStats struct {
	Sleeping    IncidentStat `json:"sleeping"`
	OffPosition IncidentStat `json:"offPosition"`
	Rate        float64      `json:"rate"`
}

// VisitSnapshot retains the full field set of a recent inspection for
// dashboard drill-down.
type VisitSnapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	Inspector       string    `json:"inspector"`
	GuardName       string    `json:"guardName"`
	Score           float64   `json:"score"`
	DurationMinutes float64   `json:"durationMinutes"`
	Issues          string    `json:"issues"`
	Notes           string    `json:"notes"`
	Photo           string    `json:"photo"`
}

// SiteAggregate is the per-site derived reporting view.
type SiteAggregate struct {
	Code   string  `json:"code"`
	NameEN string  `json:"nameEN"`
	NameLO string  `json:"nameLO"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`

	Visits          int     `json:"visits"`
	AvgScore        float64 `json:"avgScore"`
	AvgDurationMins float64 `json:"avgDurationMins"`

	LastVisit      time.Time `json:"lastVisit"`
	SinceLastVisit string    `json:"sinceLastVisit"` // coarse human bucket

	Equipment  EquipmentStats  `json:"equipment"`
	Security   SecurityStats   `json:"security"`
	Discipline DisciplineStats `json:"discipline"`

	IssueCount int    `json:"issueCount"` // visits with at least one issue
	Status     string `json:"status"`

	RecentVisits []VisitSnapshot  `json:"recentVisits"`
	Handover     *HandoverComment `json:"handover,omitempty"`
}
