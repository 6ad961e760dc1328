package model

import (
	"strconv"
	"strings"
	"time"

	"vks.la/patrol/store"
)

// InspectionLog is one supervisor visit, written by the inspection mobile
// workflow and read back by the site aggregator.
type InspectionLog struct {
	Timestamp       time.Time
	Inspector       string
	SiteName        string
	GuardName       string
	Score           float64
	DurationMinutes float64

	// Checklist fields hold free-ish text ("✓", "Yes", "ມີ", "No", ...).
	Uniform      string
	Flashlight   string
	DefenseTools string
	Logbook      string
	Gates        string
	Lighting     string
	FireSafety   string

	Issues string
	Notes  string
	Lat    float64
	Lng    float64
	Photo  string
}

// InspectionFromRecord decodes a log row. Rows without a parseable timestamp
// or a site name are malformed and skipped by the aggregator.
func InspectionFromRecord(rec store.Record) (InspectionLog, bool) {
	ts, ok := timeField(rec, store.TimestampColumn)
	if !ok {
		return InspectionLog{}, false
	}
	siteName := strings.TrimSpace(rec.Get("siteName"))
	if siteName == "" {
		return InspectionLog{}, false
	}
	return InspectionLog{
		Timestamp:       ts,
		Inspector:       strings.TrimSpace(rec.Get("inspector")),
		SiteName:        siteName,
		GuardName:       strings.TrimSpace(rec.Get("guardName")),
		Score:           floatField(rec, "score"),
		DurationMinutes: floatField(rec, "durationMinutes"),
		Uniform:         strings.TrimSpace(rec.Get("uniform")),
		Flashlight:      strings.TrimSpace(rec.Get("flashlight")),
		DefenseTools:    strings.TrimSpace(rec.Get("defenseTools")),
		Logbook:         strings.TrimSpace(rec.Get("logbook")),
		Gates:           strings.TrimSpace(rec.Get("gates")),
		Lighting:        strings.TrimSpace(rec.Get("lighting")),
		FireSafety:      strings.TrimSpace(rec.Get("fireSafety")),
		Issues:          strings.TrimSpace(rec.Get("issues")),
		Notes:           strings.TrimSpace(rec.Get("notes")),
		Lat:             floatField(rec, "lat"),
		Lng:             floatField(rec, "lng"),
		Photo:           strings.TrimSpace(rec.Get("photo")),
	}, true
}

func (l InspectionLog) ToRecord() store.Record {
	rec := store.Record{
		"inspector":       l.Inspector,
		"siteName":        l.SiteName,
		"guardName":       l.GuardName,
		"score":           strconv.FormatFloat(l.Score, 'f', -1, 64),
		"durationMinutes": strconv.FormatFloat(l.DurationMinutes, 'f', -1, 64),
		"uniform":         l.Uniform,
		"flashlight":      l.Flashlight,
		"defenseTools":    l.DefenseTools,
		"logbook":         l.Logbook,
		"gates":           l.Gates,
		"lighting":        l.Lighting,
		"fireSafety":      l.FireSafety,
		"issues":          l.Issues,
		"notes":           l.Notes,
		"lat":             formatFloat(l.Lat),
		"lng":             formatFloat(l.Lng),
		"photo":           l.Photo,
	}
	if !l.Timestamp.IsZero() {
		rec[store.TimestampColumn] = l.Timestamp.Format(time.RFC3339)
	}
	return rec
}
