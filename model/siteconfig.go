package model

import (
	"strconv"
	"strings"

	"vks.la/patrol/store"
)

// SiteConfig is the optional per-site override layer. Zero-valued fields mean
// "not overridden here, fall back to the Site row".
type SiteConfig struct {
	SiteID      string
	Code        string
	Checkpoints int
	Rounds      int
	ShiftStart  string
	ShiftEnd    string
	ShiftType   string
	Lat         float64
	Lng         float64
}

// Matches reports whether this override row applies to the canonical code.
func (c SiteConfig) Matches(code string) bool {
	return strings.EqualFold(c.Code, code) || strings.EqualFold(c.SiteID, code)
}

func SiteConfigFromRecord(rec store.Record) (SiteConfig, bool) {
	code := strings.TrimSpace(rec.Get("code"))
	siteID := strings.TrimSpace(rec.Get("siteId"))
	if code == "" && siteID == "" {
		return SiteConfig{}, false
	}
	return SiteConfig{
		SiteID:      siteID,
		Code:        code,
		Checkpoints: intField(rec, "checkpoints", 0),
		Rounds:      intField(rec, "rounds", 0),
		ShiftStart:  strings.TrimSpace(rec.Get("shiftStart")),
		ShiftEnd:    strings.TrimSpace(rec.Get("shiftEnd")),
		ShiftType:   strings.TrimSpace(rec.Get("shiftType")),
		Lat:         floatField(rec, "lat"),
		Lng:         floatField(rec, "lng"),
	}, true
}

func (c SiteConfig) ToRecord() store.Record {
	return store.Record{
		"siteId":      c.SiteID,
		"code":        c.Code,
		"checkpoints": strconv.Itoa(c.Checkpoints),
		"rounds":      strconv.Itoa(c.Rounds),
		"shiftStart":  c.ShiftStart,
		"shiftEnd":    c.ShiftEnd,
		"shiftType":   c.ShiftType,
		"lat":         formatFloat(c.Lat),
		"lng":         formatFloat(c.Lng),
	}
}
