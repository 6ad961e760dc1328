package core

import (
	"fmt"

	"vks.la/patrol/model"
	"vks.la/patrol/utils"
)

// Hard defaults when neither the override layer nor the site row specify a
// value. Effective config must always come out positive and non-empty.
const (
	DefaultCheckpoints = 4
	DefaultRounds      = 7
	DefaultShiftStart  = "06:00"
	DefaultShiftEnd    = "14:00"
)

// EffectiveConfig is the merged per-site configuration used by the scan
// processor and the shift calculator.
type EffectiveConfig struct {
	Checkpoints int     `json:"checkpoints"`
	Rounds      int     `json:"rounds"`
	ShiftStart  string  `json:"shiftStart"`
	ShiftEnd    string  `json:"shiftEnd"`
	ShiftTiming string  `json:"shiftTiming"` // "HH:mm-HH:mm"
	ShiftType   string  `json:"shiftType"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// ResolveConfig merges configuration for a canonical code, highest precedence
// first: SiteConfig override row, then the Site row, then hard defaults.
// Time-of-day values are normalized to "HH:mm" before merging. Geolocation
// merges independently of the shift/target fields.
func ResolveConfig(canonicalCode string, sites []model.Site, configs []model.SiteConfig) EffectiveConfig {
	cfg := EffectiveConfig{}

	var site *model.Site
	if s := FindSite(canonicalCode, sites); s != nil {
		site = s
	}
	var override *model.SiteConfig
	if o := utils.Find(configs, func(c model.SiteConfig) bool { return c.Matches(canonicalCode) }); o != nil {
		override = o
	}

	if override != nil {
		cfg.Checkpoints = override.Checkpoints
		cfg.Rounds = override.Rounds
		cfg.ShiftStart = utils.NormalizeClock(override.ShiftStart)
		cfg.ShiftEnd = utils.NormalizeClock(override.ShiftEnd)
		cfg.ShiftType = override.ShiftType
		cfg.Lat = override.Lat
		cfg.Lng = override.Lng
	}

	if site != nil {
		if cfg.Checkpoints <= 0 {
			cfg.Checkpoints = site.CheckpointTarget
		}
		if cfg.Rounds <= 0 {
			cfg.Rounds = site.RoundsTarget
		}
		if cfg.ShiftStart == "" {
			cfg.ShiftStart = utils.NormalizeClock(site.ShiftStart)
		}
		if cfg.ShiftEnd == "" {
			cfg.ShiftEnd = utils.NormalizeClock(site.ShiftEnd)
		}
		if cfg.Lat == 0 && cfg.Lng == 0 && site.HasCoordinates() {
			cfg.Lat = site.Lat
			cfg.Lng = site.Lng
		}
	}

	if cfg.Checkpoints <= 0 {
		cfg.Checkpoints = DefaultCheckpoints
	}
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultRounds
	}
	if cfg.ShiftStart == "" {
		cfg.ShiftStart = DefaultShiftStart
	}
	if cfg.ShiftEnd == "" {
		cfg.ShiftEnd = DefaultShiftEnd
	}
	cfg.ShiftTiming = fmt.Sprintf("%s-%s", cfg.ShiftStart, cfg.ShiftEnd)

	return cfg
}
