package model

import (
	"strconv"
	"strings"
	"time"

	"vks.la/patrol/store"
	"vks.la/patrol/utils"
)

// Row parsing is deliberately lenient: sheet rows come from several writers
// and missing or odd-typed cells default rather than poison the whole read.

func intField(rec store.Record, key string, def int) int {
	v := strings.TrimSpace(rec.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Numeric cells sometimes export as "5.0".
		if f, ferr := strconv.ParseFloat(v, 64); ferr == nil {
			return int(f)
		}
		return def
	}
	return n
}

func floatField(rec store.Record, key string) float64 {
	v := strings.TrimSpace(rec.Get(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func timeField(rec store.Record, key string) (time.Time, bool) {
	t, err := utils.ParseFlexibleTime(rec.Get(key))
	if err != nil {
		return time.Time{}, false
	}
	return *t, true
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
