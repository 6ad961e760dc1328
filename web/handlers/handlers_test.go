package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vks.la/patrol/cache"
	"vks.la/patrol/core"
	"vks.la/patrol/model"
	"vks.la/patrol/store/memory"
	"vks.la/patrol/utils"
	"vks.la/patrol/web/handlers"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	for table, headers := range model.AllTables() {
		require.NoError(t, st.EnsureTable(table, headers))
	}
	require.NoError(t, st.AppendRow(context.Background(), model.TableSites, map[string]string{
		"code": "VKS1-1", "nameEN": "Riverside Warehouse", "status": "active",
		"lat": "17.9757", "lng": "102.6331",
	}))

	logger := zap.NewNop()
	dir := cache.NewDirectory(st, nil, 0, logger)
	proc := core.NewProcessor(st, nil, dir, core.GeofenceSettings{ThresholdMeters: 150}, logger)
	agg := &core.Aggregator{Store: st, Logger: logger, Now: utils.VientianeNow}

	r := gin.New()
	r.POST("/api/patrol/v1.0/scan", handlers.ScanHandler(proc))
	r.GET("/api/patrol/v1.0/sites/aggregate", handlers.SiteAggregateHandler(agg))
	r.GET("/api/patrol/v1.0/sites/:ref/config", handlers.SiteConfigHandler(dir))
	r.POST("/api/patrol/v1.0/inspections", handlers.InspectionHandler(st, nil, logger))
	r.POST("/api/patrol/v1.0/handover", handlers.HandoverHandler(st, logger))
	r.GET("/api/patrol/v1.0/changed", handlers.DataChangedHandler(st))
	return r, st
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScanHandler(t *testing.T) {
	t.Run("patrol scan round trip", func(t *testing.T) {
		r, st := newTestRouter(t)

		w := doJSON(r, http.MethodPost, "/api/patrol/v1.0/scan", `{
			"qrPayload": "VKS|VKS1-1|Gate A",
			"guardIdentifier": "EMP-7",
			"scanType": "PATROL",
			"meta": {"roundNumber": 1, "pointInRound": 1}
		}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"action":"SAVED"`)
		assert.Contains(t, w.Body.String(), `"canonicalSiteId":"VKS1-1"`)

		rows, err := st.ReadAll(context.Background(), model.TableScans)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "EMP-7", rows[0].Get("guardId"))
	})

	t.Run("missing scan type is a binding error", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(r, http.MethodPost, "/api/patrol/v1.0/scan", `{"qrPayload": "VKS|VKS1-1|Gate A"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "scanType")
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(r, http.MethodPost, "/api/patrol/v1.0/scan", `{
			"qrPayload": "", "guardIdentifier": "EMP-7", "scanType": "PATROL"
		}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSiteConfigHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/patrol/v1.0/sites/VKS1-1/config", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"checkpoints":4`)
	assert.Contains(t, w.Body.String(), `"shiftTiming":"06:00-14:00"`)
}

func TestSiteAggregateHandler(t *testing.T) {
	t.Run("default window", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(r, http.MethodGet, "/api/patrol/v1.0/sites/aggregate", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":1`)
	})

	t.Run("rejects non-numeric days", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(r, http.MethodGet, "/api/patrol/v1.0/sites/aggregate?days=week", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInspectionHandler(t *testing.T) {
	r, st := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/patrol/v1.0/inspections", `{
		"inspector": "Khamla",
		"siteName": "VKS1-1",
		"guardName": "Somchai",
		"score": 92,
		"uniform": "Yes",
		"gates": "No"
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	rows, err := st.ReadAll(context.Background(), model.TableInspections)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Khamla", rows[0].Get("inspector"))
	assert.NotEmpty(t, rows[0].Get("timestamp"))
}

func TestHandoverHandler(t *testing.T) {
	r, st := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/patrol/v1.0/handover", `{
		"siteName": "VKS1-1",
		"author": "Night lead",
		"comment": "Generator refueled at 02:00"
	}`)

	assert.Equal(t, http.StatusOK, w.Code)

	rows, err := st.ReadAll(context.Background(), model.TableHandover)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Generator refueled at 02:00", rows[0].Get("comment"))
}

func TestDataChangedHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/patrol/v1.0/changed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lastUpdate":""`)

	doJSON(r, http.MethodPost, "/api/patrol/v1.0/handover", `{
		"siteName": "VKS1-1", "comment": "note"
	}`)

	w = doJSON(r, http.MethodGet, "/api/patrol/v1.0/changed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"lastUpdate":""`)
}
