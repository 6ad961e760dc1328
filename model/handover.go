package model

import (
	"strings"
	"time"

	"vks.la/patrol/store"
)

// HandoverComment is a free-text shift note. Only the freshest note per site
// within the 48-hour window is ever surfaced.
type HandoverComment struct {
	SiteName  string    `json:"siteName"`
	Author    string    `json:"author"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

func HandoverFromRecord(rec store.Record) (HandoverComment, bool) {
	ts, ok := timeField(rec, store.TimestampColumn)
	if !ok {
		return HandoverComment{}, false
	}
	siteName := strings.TrimSpace(rec.Get("siteName"))
	if siteName == "" {
		return HandoverComment{}, false
	}
	return HandoverComment{
		SiteName:  siteName,
		Author:    strings.TrimSpace(rec.Get("author")),
		Comment:   rec.Get("comment"),
		Timestamp: ts,
	}, true
}

func (h HandoverComment) ToRecord() store.Record {
	rec := store.Record{
		"siteName": h.SiteName,
		"author":   h.Author,
		"comment":  h.Comment,
	}
	if !h.Timestamp.IsZero() {
		rec[store.TimestampColumn] = h.Timestamp.Format(time.RFC3339)
	}
	return rec
}
