package model

import (
	"strconv"
	"strings"

	"vks.la/patrol/store"
)

const StatusActive = "active"

// Site is a master-data row: administered externally, read-only here.
type Site struct {
	Code             string
	ID               string
	NameEN           string
	NameLO           string
	Lat              float64
	Lng              float64
	Status           string
	CheckpointTarget int
	RoundsTarget     int
	ShiftStart       string
	ShiftEnd         string
}

func (s Site) IsActive() bool {
	return strings.EqualFold(s.Status, StatusActive)
}

// HasCoordinates reports whether the site carries usable geolocation.
func (s Site) HasCoordinates() bool {
	return s.Lat != 0 || s.Lng != 0
}

// SiteFromRecord decodes a master-data row. Rows without a site code are
// malformed and reported ok=false so readers can skip them.
func SiteFromRecord(rec store.Record) (Site, bool) {
	code := strings.TrimSpace(rec.Get("code"))
	if code == "" {
		return Site{}, false
	}
	return Site{
		Code:             code,
		ID:               strings.TrimSpace(rec.Get("id")),
		NameEN:           strings.TrimSpace(rec.Get("nameEN")),
		NameLO:           strings.TrimSpace(rec.Get("nameLO")),
		Lat:              floatField(rec, "lat"),
		Lng:              floatField(rec, "lng"),
		Status:           strings.TrimSpace(rec.Get("status")),
		CheckpointTarget: intField(rec, "checkpointTarget", 0),
		RoundsTarget:     intField(rec, "roundsTarget", 0),
		ShiftStart:       strings.TrimSpace(rec.Get("shiftStart")),
		ShiftEnd:         strings.TrimSpace(rec.Get("shiftEnd")),
	}, true
}

func (s Site) ToRecord() store.Record {
	return store.Record{
		"code":             s.Code,
		"id":               s.ID,
		"nameEN":           s.NameEN,
		"nameLO":           s.NameLO,
		"lat":              formatFloat(s.Lat),
		"lng":              formatFloat(s.Lng),
		"status":           s.Status,
		"checkpointTarget": strconv.Itoa(s.CheckpointTarget),
		"roundsTarget":     strconv.Itoa(s.RoundsTarget),
		"shiftStart":       s.ShiftStart,
		"shiftEnd":         s.ShiftEnd,
	}
}
