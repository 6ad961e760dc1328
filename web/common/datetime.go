package common

import (
	"encoding/json"
	"time"

	"vks.la/patrol/utils"
)

const dateTimeLayout = "2006-01-02T15:04:05"

// LocalDateTime is a wall-clock timestamp without a zone marker. Field
// workers submit device-local time; the service interprets it as Vientiane
// time.
type LocalDateTime struct {
	time.Time
}

func (l *LocalDateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		l.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, utils.VientianeTZ)
	if err != nil {
		return err
	}
	l.Time = t
	return nil
}

func (l LocalDateTime) MarshalJSON() ([]byte, error) {
	if l.Time.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(l.In(utils.VientianeTZ).Format(dateTimeLayout))
}
