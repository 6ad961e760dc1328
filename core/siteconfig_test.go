package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vks.la/patrol/model"
)

func TestResolveConfigPrecedence(t *testing.T) {
	sites := []model.Site{{
		Code: "VKS-A-001", Status: "active",
		CheckpointTarget: 5, RoundsTarget: 6,
		ShiftStart: "07:00", ShiftEnd: "15:00",
		Lat: 17.96, Lng: 102.61,
	}}

	t.Run("Override wins over site", func(t *testing.T) {
		configs := []model.SiteConfig{{Code: "VKS-A-001", Checkpoints: 3}}
		cfg := ResolveConfig("VKS-A-001", sites, configs)
		assert.Equal(t, 3, cfg.Checkpoints)
		// Rounds not overridden: falls back to the site row.
		assert.Equal(t, 6, cfg.Rounds)
		assert.Equal(t, "07:00-15:00", cfg.ShiftTiming)
	})

	t.Run("Site wins without override", func(t *testing.T) {
		cfg := ResolveConfig("VKS-A-001", sites, nil)
		assert.Equal(t, 5, cfg.Checkpoints)
		assert.Equal(t, 6, cfg.Rounds)
	})

	t.Run("Defaults when neither specifies", func(t *testing.T) {
		cfg := ResolveConfig("unknown", nil, nil)
		assert.Equal(t, DefaultCheckpoints, cfg.Checkpoints)
		assert.Equal(t, DefaultRounds, cfg.Rounds)
		assert.Equal(t, "06:00-14:00", cfg.ShiftTiming)
	})

	t.Run("Override matched by siteId key", func(t *testing.T) {
		configs := []model.SiteConfig{{SiteID: "vks-a-001", Rounds: 9}}
		cfg := ResolveConfig("VKS-A-001", sites, configs)
		assert.Equal(t, 9, cfg.Rounds)
	})
}

func TestResolveConfigNormalizesClockValues(t *testing.T) {
	sites := []model.Site{{
		Code: "VKS-A-001", Status: "active",
		// Sheet exports sometimes store a full datetime in a time cell.
		ShiftStart: "2024-01-01 18:00:00", ShiftEnd: "02:00:00",
	}}
	cfg := ResolveConfig("VKS-A-001", sites, nil)
	assert.Equal(t, "18:00-02:00", cfg.ShiftTiming)
}

func TestResolveConfigGeolocationMergesIndependently(t *testing.T) {
	sites := []model.Site{{
		Code: "VKS-A-001", Status: "active", Lat: 17.96, Lng: 102.61,
	}}
	// Override has targets but no coordinates: inherit them from the site.
	configs := []model.SiteConfig{{Code: "VKS-A-001", Checkpoints: 2, Rounds: 3}}
	cfg := ResolveConfig("VKS-A-001", sites, configs)
	assert.Equal(t, 17.96, cfg.Lat)
	assert.Equal(t, 102.61, cfg.Lng)
	assert.Equal(t, 2, cfg.Checkpoints)
}

func TestResolveConfigAlwaysPositive(t *testing.T) {
	// A zeroed override row must never produce zero targets.
	configs := []model.SiteConfig{{Code: "VKS-A-001"}}
	cfg := ResolveConfig("VKS-A-001", nil, configs)
	assert.Positive(t, cfg.Checkpoints)
	assert.Positive(t, cfg.Rounds)
	assert.NotEmpty(t, cfg.ShiftTiming)
}
