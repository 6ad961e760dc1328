package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vks.la/patrol/core"
	"vks.la/patrol/model"
	"vks.la/patrol/store/memory"
	"vks.la/patrol/utils"
)

var aggNow = time.Date(2024, 3, 10, 12, 0, 0, 0, utils.VientianeTZ)

func newAggregatorStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	for table, headers := range model.AllTables() {
		require.NoError(t, st.EnsureTable(table, headers))
	}
	sites := []model.Site{
		{Code: "VKS-A-001", NameEN: "Warehouse A", Status: "active", Lat: 17.96, Lng: 102.61},
		{Code: "VKS-A-002", NameEN: "Riverside Depot", Status: "active", Lat: 17.95, Lng: 102.60},
		{Code: "VKS-A-003", NameEN: "No Coordinates", Status: "active"},
		{Code: "VKS-A-004", NameEN: "Retired", Status: "inactive", Lat: 1, Lng: 1},
	}
	for _, s := range sites {
		require.NoError(t, st.AppendRow(context.Background(), model.TableSites, s.ToRecord()))
	}
	return st
}

func newAggregator(st *memory.Store) *core.Aggregator {
	return &core.Aggregator{
		Store:  st,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return aggNow },
	}
}

func addInspection(t *testing.T, st *memory.Store, log model.InspectionLog) {
	t.Helper()
	require.NoError(t, st.AppendRow(context.Background(), model.TableInspections, log.ToRecord()))
}

func findAggregate(t *testing.T, aggs []model.SiteAggregate, code string) model.SiteAggregate {
	t.Helper()
	for _, a := range aggs {
		if a.Code == code {
			return a
		}
	}
	t.Fatalf("no aggregate for %s", code)
	return model.SiteAggregate{}
}

func TestOperationalDate(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, utils.VientianeTZ)

	// 02:00 belongs to the previous reporting day; 06:00 to the same day.
	night := time.Date(2024, 3, 10, 2, 0, 0, 0, utils.VientianeTZ)
	assert.Equal(t, day.AddDate(0, 0, -1), core.OperationalDate(night))

	morning := time.Date(2024, 3, 10, 6, 0, 0, 0, utils.VientianeTZ)
	assert.Equal(t, day, core.OperationalDate(morning))

	boundary := time.Date(2024, 3, 10, 5, 30, 0, 0, utils.VientianeTZ)
	assert.Equal(t, day, core.OperationalDate(boundary))

	justBefore := time.Date(2024, 3, 10, 5, 29, 0, 0, utils.VientianeTZ)
	assert.Equal(t, day.AddDate(0, 0, -1), core.OperationalDate(justBefore))
}

func TestAggregateSeedsOnlyActiveSitesWithCoordinates(t *testing.T) {
	st := newAggregatorStore(t)
	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	for _, a := range aggs {
		assert.Contains(t, []string{"VKS-A-001", "VKS-A-002"}, a.Code)
		assert.Equal(t, model.SiteStatusIdle, a.Status)
		assert.Equal(t, "never", a.SinceLastVisit)
	}
}

func TestAggregateChecklistRatesAndStatus(t *testing.T) {
	st := newAggregatorStore(t)
	addInspection(t, st, model.InspectionLog{
		Timestamp: aggNow.Add(-2 * time.Hour),
		SiteName:  "Warehouse A",
		Inspector: "Somsack",
		Score:     8,
		Uniform:   "✓",
		Gates:     "No",
	})

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")

	assert.Equal(t, 1, a.Visits)
	assert.Equal(t, float64(100), a.Equipment.Uniform.Rate)
	assert.Equal(t, float64(0), a.Security.Gates.Rate)
	// Unobserved categories default to 100, so equipment overall stays 100.
	assert.Equal(t, float64(100), a.Equipment.Rate)
	// Security overall: (0 + 100 + 100) / 3.
	assert.InDelta(t, 66.7, a.Security.Rate, 0.1)
	assert.Equal(t, model.SiteStatusWarning, a.Status)
	assert.Equal(t, 1, a.IssueCount)
}

func TestAggregateSleepingAlertBeatsEquipmentWarning(t *testing.T) {
	st := newAggregatorStore(t)
	for i := 0; i < 3; i++ {
		addInspection(t, st, model.InspectionLog{
			Timestamp: aggNow.Add(-time.Duration(i+1) * time.Hour),
			SiteName:  "Warehouse A",
			Uniform:   "No", // equipment rate 50% territory
			Issues:    "guard sleeping 😴 at post",
		})
	}

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")

	assert.Equal(t, 3, a.Discipline.Sleeping.Count)
	// The sleeping rule fires before any equipment warning.
	assert.Equal(t, model.SiteStatusAlert, a.Status)
}

func TestAggregateLaoTokens(t *testing.T) {
	st := newAggregatorStore(t)
	addInspection(t, st, model.InspectionLog{
		Timestamp:  aggNow.Add(-time.Hour),
		SiteName:   "Warehouse A",
		Uniform:    "ມີ",      // affirmative
		Flashlight: "ບໍ່ມີ",    // not in the vocabulary -> issue
		Issues:     "ພະນັກງານນອນຢູ່ເວນ", // sleeping, Lao
	})

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")

	assert.Equal(t, 1, a.Equipment.Uniform.OK)
	assert.Equal(t, 1, a.Equipment.Flashlight.Issue)
	assert.Equal(t, 1, a.Discipline.Sleeping.Count)
}

func TestAggregateWindowExcludesOldRows(t *testing.T) {
	st := newAggregatorStore(t)
	addInspection(t, st, model.InspectionLog{
		Timestamp: aggNow.AddDate(0, 0, -30),
		SiteName:  "Warehouse A",
		Score:     2,
	})

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")
	assert.Zero(t, a.Visits)
	assert.Equal(t, model.SiteStatusIdle, a.Status)
}

func TestAggregateRecentVisitSnapshotsCappedAtFive(t *testing.T) {
	st := newAggregatorStore(t)
	for i := 0; i < 7; i++ {
		addInspection(t, st, model.InspectionLog{
			Timestamp: aggNow.Add(-time.Duration(7-i) * time.Hour),
			SiteName:  "Warehouse A",
			Inspector: "Somsack",
			Score:     float64(i),
		})
	}

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")

	require.Len(t, a.RecentVisits, 5)
	// Most recent first.
	assert.Equal(t, float64(6), a.RecentVisits[0].Score)
	assert.True(t, a.RecentVisits[0].Timestamp.After(a.RecentVisits[4].Timestamp))
}

func TestAggregateHandoverFreshness(t *testing.T) {
	st := newAggregatorStore(t)
	ctx := context.Background()

	fresh := model.HandoverComment{SiteName: "Warehouse A", Author: "Noi", Comment: "gate lock replaced", Timestamp: aggNow.Add(-3 * time.Hour)}
	older := model.HandoverComment{SiteName: "Warehouse A", Author: "Kham", Comment: "older note", Timestamp: aggNow.Add(-20 * time.Hour)}
	stale := model.HandoverComment{SiteName: "Riverside Depot", Author: "Noi", Comment: "too old", Timestamp: aggNow.Add(-72 * time.Hour)}
	for _, h := range []model.HandoverComment{older, fresh, stale} {
		require.NoError(t, st.AppendRow(ctx, model.TableHandover, h.ToRecord()))
	}

	aggs, err := newAggregator(st).Aggregate(ctx, 7)
	require.NoError(t, err)

	a := findAggregate(t, aggs, "VKS-A-001")
	require.NotNil(t, a.Handover)
	assert.Equal(t, "gate lock replaced", a.Handover.Comment)

	b := findAggregate(t, aggs, "VKS-A-002")
	assert.Nil(t, b.Handover)
}

func TestAggregateSortsByIssueCountDescending(t *testing.T) {
	st := newAggregatorStore(t)
	addInspection(t, st, model.InspectionLog{
		Timestamp: aggNow.Add(-time.Hour),
		SiteName:  "Riverside Depot",
		Gates:     "broken",
	})

	aggs, err := newAggregator(st).Aggregate(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "VKS-A-002", aggs[0].Code)
}

func TestAggregateMalformedRowsSkipped(t *testing.T) {
	st := newAggregatorStore(t)
	ctx := context.Background()
	// No timestamp and no site name: skipped, not fatal.
	require.NoError(t, st.AppendRow(ctx, model.TableInspections, map[string]string{"inspector": "x"}))
	addInspection(t, st, model.InspectionLog{Timestamp: aggNow.Add(-time.Hour), SiteName: "Warehouse A", Score: 9})

	aggs, err := newAggregator(st).Aggregate(ctx, 7)
	require.NoError(t, err)
	a := findAggregate(t, aggs, "VKS-A-001")
	assert.Equal(t, 1, a.Visits)
	assert.Equal(t, float64(9), a.AvgScore)
}

func TestAggregateFatalWithoutSiteDirectory(t *testing.T) {
	st := memory.New() // no tables at all
	_, err := newAggregator(st).Aggregate(context.Background(), 7)
	assert.Error(t, err)
}
