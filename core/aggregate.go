package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/utils"
)

const (
	// operationalCutoff: timestamps before 05:30 belong to the previous
	// calendar day, aligning daily buckets with night-shift boundaries.
	operationalCutoffMinutes = 5*60 + 30

	handoverFreshness = 48 * time.Hour
	maxRecentVisits   = 5
)

// Affirmative checklist tokens, English and Lao. Anything else counts as an
// issue; an empty cell is no observation at all.
var affirmativeTokens = map[string]bool{
	"✓": true, "ok": true, "yes": true, "y": true, "good": true,
	"pass": true, "normal": true, "1": true, "true": true,
	"ມີ": true, "ປົກກະຕິ": true, "ຄົບ": true, "ດີ": true, "ແມ່ນ": true,
}

// Behavioral incident vocabularies matched against the free-text issues
// field, Lao words plus English/emoji equivalents.
var (
	sleepingTokens    = []string{"sleep", "😴", "💤", "ນອນຫຼັບ", "ນອນຢູ່ເວນ"}
	offPositionTokens = []string{"off position", "off-position", "absent", "not at post", "ບໍ່ຢູ່ຈຸດ", "ອອກຈາກຈຸດ"}
)

// OperationalDate maps a wall-clock timestamp to its reporting day: before
// 05:30 the event belongs to the previous calendar day.
func OperationalDate(t time.Time) time.Time {
	local := t.In(utils.VientianeTZ)
	if local.Hour()*60+local.Minute() < operationalCutoffMinutes {
		local = local.AddDate(0, 0, -1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, utils.VientianeTZ)
}

// LogSource is the read-only slice of the store the aggregator needs.
type LogSource interface {
	ReadAll(ctx context.Context, table string) ([]store.Record, error)
}

// Aggregator produces the per-site compliance rollup the supervisor
// dashboard renders. Each run is a point-in-time snapshot over the store.
type Aggregator struct {
	Store  LogSource
	Logger *zap.Logger
	Now    func() time.Time
}

type siteAccumulator struct {
	agg model.SiteAggregate

	scoreSum    float64
	durationSum float64

	checklistIssues int
	issueVisits     int
}

// Aggregate computes one SiteAggregate per active site with valid
// coordinates, folding inspection logs over the trailing window and merging
// the freshest handover note. A missing inspection or handover source
// degrades to empty; a missing site directory is fatal.
func (a *Aggregator) Aggregate(ctx context.Context, trailingWindowDays int) ([]model.SiteAggregate, error) {
	if trailingWindowDays <= 0 {
		trailingWindowDays = 7
	}
	now := a.Now()
	cutoff := OperationalDate(now).AddDate(0, 0, -trailingWindowDays)

	siteRows, err := a.Store.ReadAll(ctx, model.TableSites)
	if err != nil {
		return nil, fmt.Errorf("failed to open site directory: %w", err)
	}

	accs := make(map[string]*siteAccumulator)
	var order []string
	nameIndex := make(map[string]string) // lowercased name/code -> canonical code
	for _, row := range siteRows {
		site, ok := model.SiteFromRecord(row)
		if !ok || !site.IsActive() || !site.HasCoordinates() {
			continue
		}
		if _, dup := accs[site.Code]; dup {
			continue
		}
		accs[site.Code] = &siteAccumulator{agg: model.SiteAggregate{
			Code:   site.Code,
			NameEN: site.NameEN,
			NameLO: site.NameLO,
			Lat:    site.Lat,
			Lng:    site.Lng,
		}}
		order = append(order, site.Code)
		for _, key := range []string{site.Code, site.ID, site.NameEN, site.NameLO} {
			if key != "" {
				nameIndex[strings.ToLower(key)] = site.Code
			}
		}
	}

	a.foldInspections(ctx, accs, nameIndex, cutoff)
	a.mergeHandovers(ctx, accs, nameIndex, now)

	out := make([]model.SiteAggregate, 0, len(order))
	for _, code := range order {
		out = append(out, finalize(accs[code], now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IssueCount != out[j].IssueCount {
			return out[i].IssueCount > out[j].IssueCount
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (a *Aggregator) foldInspections(ctx context.Context, accs map[string]*siteAccumulator, nameIndex map[string]string, cutoff time.Time) {
	rows, err := a.Store.ReadAll(ctx, model.TableInspections)
	if err != nil {
		a.Logger.Warn("inspection log unavailable, reporting without visits", zap.Error(err))
		return
	}

	for _, row := range rows {
		log, ok := model.InspectionFromRecord(row)
		if !ok {
			// Malformed rows are skipped, never abort the whole report.
			continue
		}
		if OperationalDate(log.Timestamp).Before(cutoff) {
			continue
		}
		code, ok := nameIndex[strings.ToLower(log.SiteName)]
		if !ok {
			continue
		}
		applyInspection(accs[code], log)
	}
}

func applyInspection(acc *siteAccumulator, log model.InspectionLog) {
	agg := &acc.agg
	agg.Visits++
	acc.scoreSum += log.Score
	acc.durationSum += log.DurationMinutes

	if log.Timestamp.After(agg.LastVisit) {
		agg.LastVisit = log.Timestamp
	}

	visitHadIssue := false
	tally := func(stat *model.CategoryStat, value string) {
		if value == "" {
			return
		}
		if isAffirmative(value) {
			stat.OK++
		} else {
			stat.Issue++
			acc.checklistIssues++
			visitHadIssue = true
		}
	}
	tally(&agg.Equipment.Uniform, log.Uniform)
	tally(&agg.Equipment.Flashlight, log.Flashlight)
	tally(&agg.Equipment.DefenseTools, log.DefenseTools)
	tally(&agg.Equipment.Logbook, log.Logbook)
	tally(&agg.Security.Gates, log.Gates)
	tally(&agg.Security.Lighting, log.Lighting)
	tally(&agg.Security.FireSafety, log.FireSafety)

	if containsAny(log.Issues, sleepingTokens) {
		agg.Discipline.Sleeping.Count++
		visitHadIssue = true
	}
	if containsAny(log.Issues, offPositionTokens) {
		agg.Discipline.OffPosition.Count++
		visitHadIssue = true
	}
	if visitHadIssue {
		acc.issueVisits++
	}

	agg.RecentVisits = append(agg.RecentVisits, model.VisitSnapshot{
		Timestamp:       log.Timestamp,
		Inspector:       log.Inspector,
		GuardName:       log.GuardName,
		Score:           log.Score,
		DurationMinutes: log.DurationMinutes,
		Issues:          log.Issues,
		Notes:           log.Notes,
		Photo:           log.Photo,
	})
	if len(agg.RecentVisits) > maxRecentVisits {
		agg.RecentVisits = agg.RecentVisits[len(agg.RecentVisits)-maxRecentVisits:]
	}
}

func (a *Aggregator) mergeHandovers(ctx context.Context, accs map[string]*siteAccumulator, nameIndex map[string]string, now time.Time) {
	rows, err := a.Store.ReadAll(ctx, model.TableHandover)
	if err != nil {
		a.Logger.Warn("handover log unavailable", zap.Error(err))
		return
	}

	for _, row := range rows {
		note, ok := model.HandoverFromRecord(row)
		if !ok {
			continue
		}
		code, ok := nameIndex[strings.ToLower(note.SiteName)]
		if !ok {
			continue
		}
		agg := &accs[code].agg
		if agg.Handover == nil || note.Timestamp.After(agg.Handover.Timestamp) {
			n := note
			agg.Handover = &n
		}
	}

	// Only the freshest note per site survives, and only within the window.
	for _, acc := range accs {
		if acc.agg.Handover != nil && now.Sub(acc.agg.Handover.Timestamp) > handoverFreshness {
			acc.agg.Handover = nil
		}
	}
}

func finalize(acc *siteAccumulator, now time.Time) model.SiteAggregate {
	agg := acc.agg

	if agg.Visits > 0 {
		agg.AvgScore = acc.scoreSum / float64(agg.Visits)
		agg.AvgDurationMins = acc.durationSum / float64(agg.Visits)
	}

	rateOf := func(s model.CategoryStat) float64 {
		total := s.OK + s.Issue
		if total == 0 {
			return 100
		}
		return float64(s.OK) / float64(total) * 100
	}
	agg.Equipment.Uniform.Rate = rateOf(agg.Equipment.Uniform)
	agg.Equipment.Flashlight.Rate = rateOf(agg.Equipment.Flashlight)
	agg.Equipment.DefenseTools.Rate = rateOf(agg.Equipment.DefenseTools)
	agg.Equipment.Logbook.Rate = rateOf(agg.Equipment.Logbook)
	agg.Equipment.Rate = (agg.Equipment.Uniform.Rate + agg.Equipment.Flashlight.Rate +
		agg.Equipment.DefenseTools.Rate + agg.Equipment.Logbook.Rate) / 4

	agg.Security.Gates.Rate = rateOf(agg.Security.Gates)
	agg.Security.Lighting.Rate = rateOf(agg.Security.Lighting)
	agg.Security.FireSafety.Rate = rateOf(agg.Security.FireSafety)
	agg.Security.Rate = (agg.Security.Gates.Rate + agg.Security.Lighting.Rate +
		agg.Security.FireSafety.Rate) / 3

	incidentRate := func(count int) float64 {
		if agg.Visits == 0 {
			return 100
		}
		return float64(agg.Visits-count) / float64(agg.Visits) * 100
	}
	agg.Discipline.Sleeping.Rate = incidentRate(agg.Discipline.Sleeping.Count)
	agg.Discipline.OffPosition.Rate = incidentRate(agg.Discipline.OffPosition.Count)
	agg.Discipline.Rate = (agg.Discipline.Sleeping.Rate + agg.Discipline.OffPosition.Rate) / 2

	agg.IssueCount = acc.issueVisits
	agg.SinceLastVisit = humanSince(agg.LastVisit, now)
	agg.Status = classify(agg)

	// Most recent first for display.
	for i, j := 0, len(agg.RecentVisits)-1; i < j; i, j = i+1, j-1 {
		agg.RecentVisits[i], agg.RecentVisits[j] = agg.RecentVisits[j], agg.RecentVisits[i]
	}

	return agg
}

// classify applies the fixed status priority; the first matching rule wins.
func classify(agg model.SiteAggregate) string {
	switch {
	case agg.Discipline.Sleeping.Count > 2:
		return model.SiteStatusAlert
	case agg.IssueCount > 3:
		return model.SiteStatusAlert
	case agg.Visits == 0:
		return model.SiteStatusIdle
	case agg.Equipment.Rate < 80:
		return model.SiteStatusWarning
	case agg.Security.Rate < 80:
		return model.SiteStatusWarning
	case agg.Discipline.Rate < 80:
		return model.SiteStatusWarning
	default:
		return model.SiteStatusActive
	}
}

func humanSince(last, now time.Time) string {
	if last.IsZero() {
		return "never"
	}
	elapsed := now.Sub(last)
	switch {
	case elapsed >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	case elapsed >= time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return "just now"
	}
}

func isAffirmative(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if affirmativeTokens[v] {
		return true
	}
	return strings.Contains(v, "✓")
}

func containsAny(text string, tokens []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
