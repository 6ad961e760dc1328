package utils

import (
	"fmt"
	"time"
)

// VientianeTZ is the operating timezone for all sites (Laos, no DST).
var VientianeTZ = time.FixedZone("UTC+7", 7*60*60)

func VientianeNow() time.Time {
	return time.Now().In(VientianeTZ)
}

func MustParseDate(dateStr string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", dateStr, VientianeTZ)
	return t
}

// ParseFlexibleTime parses the timestamp formats that show up in sheet exports
// and mobile payloads: RFC3339, space-separated datetimes and bare dates.
func ParseFlexibleTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"02/01/2006 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, VientianeTZ); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}

// NormalizeClock reduces a time-of-day value to "HH:mm". Sheet cells sometimes
// hold a full datetime where only the clock part matters.
func NormalizeClock(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return t.Format("15:04")
	}
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04")
	}
	if t, err := ParseFlexibleTime(s); err == nil {
		return t.Format("15:04")
	}
	return s
}

// ParseClock returns the hour and minute of a "HH:mm" string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", NormalizeClock(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
