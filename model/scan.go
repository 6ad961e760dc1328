package model

import (
	"strconv"
	"strings"
	"time"

	"vks.la/patrol/store"
)

// Scan statuses. The Scans table is append-only: rows are never updated
// except for the post-upload photo patch.
const (
	ScanCheckin  = "CHECKIN"
	ScanPatrol   = "PATROL"
	ScanCheckout = "CHECKOUT"
)

type Scan struct {
	ID           string
	GuardID      string
	CheckpointID string
	SiteID       string // always the canonical site code
	Lat          float64
	Lng          float64
	Accuracy     float64
	Status       string
	Assessment   string
	Note         string
	Photo        string
	RoundNumber  int
	PointInRound int
	Round        string // checkout only, "completed/total"
	Timestamp    time.Time
}

func ScanFromRecord(rec store.Record) (Scan, bool) {
	status := strings.TrimSpace(rec.Get("status"))
	if status == "" {
		return Scan{}, false
	}
	s := Scan{
		ID:           strings.TrimSpace(rec.Get("id")),
		GuardID:      strings.TrimSpace(rec.Get("guardId")),
		CheckpointID: strings.TrimSpace(rec.Get("checkpointId")),
		SiteID:       strings.TrimSpace(rec.Get("siteId")),
		Lat:          floatField(rec, "lat"),
		Lng:          floatField(rec, "lng"),
		Accuracy:     floatField(rec, "accuracy"),
		Status:       status,
		Assessment:   rec.Get("assessment"),
		Note:         rec.Get("note"),
		Photo:        rec.Get("photo"),
		RoundNumber:  intField(rec, "roundNumber", 0),
		PointInRound: intField(rec, "pointInRound", 0),
		Round:        strings.TrimSpace(rec.Get("round")),
	}
	if t, ok := timeField(rec, store.TimestampColumn); ok {
		s.Timestamp = t
	}
	return s, true
}

func (s Scan) ToRecord() store.Record {
	rec := store.Record{
		"id":           s.ID,
		"guardId":      s.GuardID,
		"checkpointId": s.CheckpointID,
		"siteId":       s.SiteID,
		"lat":          formatFloat(s.Lat),
		"lng":          formatFloat(s.Lng),
		"accuracy":     formatFloat(s.Accuracy),
		"status":       s.Status,
		"assessment":   s.Assessment,
		"note":         s.Note,
		"photo":        s.Photo,
		"round":        s.Round,
	}
	if s.RoundNumber > 0 {
		rec["roundNumber"] = strconv.Itoa(s.RoundNumber)
	}
	if s.PointInRound > 0 {
		rec["pointInRound"] = strconv.Itoa(s.PointInRound)
	}
	// timestamp is left to the store to assign at write time.
	return rec
}
