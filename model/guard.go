package model

import (
	"strings"
	"time"

	"vks.la/patrol/store"
)

// Guard is auto-registered on the first scan by an unknown empId.
type Guard struct {
	EmpID     string
	Name      string
	Surname   string
	Phone     string
	Status    string
	CreatedAt time.Time
}

func GuardFromRecord(rec store.Record) (Guard, bool) {
	empID := strings.TrimSpace(rec.Get("empId"))
	if empID == "" {
		return Guard{}, false
	}
	g := Guard{
		EmpID:   empID,
		Name:    strings.TrimSpace(rec.Get("name")),
		Surname: strings.TrimSpace(rec.Get("surname")),
		Phone:   strings.TrimSpace(rec.Get("phone")),
		Status:  strings.TrimSpace(rec.Get("status")),
	}
	if t, ok := timeField(rec, "createdAt"); ok {
		g.CreatedAt = t
	}
	return g, true
}

func (g Guard) ToRecord() store.Record {
	rec := store.Record{
		"empId":   g.EmpID,
		"name":    g.Name,
		"surname": g.Surname,
		"phone":   g.Phone,
		"status":  g.Status,
	}
	if !g.CreatedAt.IsZero() {
		rec["createdAt"] = g.CreatedAt.Format(time.RFC3339)
	}
	return rec
}
