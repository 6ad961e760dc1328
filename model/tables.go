package model

// Table names and header rows for the tabular store. Header order is the
// column order sheet-backed stores write.
const (
	TableSites       = "Sites"
	TableSiteConfig  = "SiteConfig"
	TableGuards      = "Guards"
	TableScans       = "Scans"
	TableInspections = "Inspections"
	TableHandover    = "HandoverNotes"
	TableMeta        = "Meta"
)

var (
	SiteHeaders = []string{
		"code", "id", "nameEN", "nameLO", "lat", "lng", "status",
		"checkpointTarget", "roundsTarget", "shiftStart", "shiftEnd",
	}
	SiteConfigHeaders = []string{
		"siteId", "code", "checkpoints", "rounds",
		"shiftStart", "shiftEnd", "shiftType", "lat", "lng",
	}
	GuardHeaders = []string{
		"empId", "name", "surname", "phone", "status", "createdAt",
	}
	ScanHeaders = []string{
		"id", "guardId", "checkpointId", "siteId", "lat", "lng", "accuracy",
		"status", "assessment", "note", "photo",
		"roundNumber", "pointInRound", "round", "timestamp",
	}
	InspectionHeaders = []string{
		"timestamp", "inspector", "siteName", "guardName",
		"score", "durationMinutes",
		"uniform", "flashlight", "defenseTools", "logbook",
		"gates", "lighting", "fireSafety",
		"issues", "notes", "lat", "lng", "photo",
	}
	HandoverHeaders = []string{"siteName", "author", "comment", "timestamp"}
	MetaHeaders     = []string{"key", "value"}
)

// AllTables lists every table with its headers, for boot-time EnsureTable.
func AllTables() map[string][]string {
	return map[string][]string{
		TableSites:       SiteHeaders,
		TableSiteConfig:  SiteConfigHeaders,
		TableGuards:      GuardHeaders,
		TableScans:       ScanHeaders,
		TableInspections: InspectionHeaders,
		TableHandover:    HandoverHeaders,
		TableMeta:        MetaHeaders,
	}
}
