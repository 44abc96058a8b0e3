package server

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascadia-monitoring/streamtrend/internal/config"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
	"github.com/cascadia-monitoring/streamtrend/internal/store"
)

func newTestServer(t *testing.T, serverCfg config.ServerConfig) (*Server, store.Store) {
	t.Helper()

	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "streamtrend.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return New(st, pipeline.NewAnalyzer(2), serverCfg), st
}

func seedDataset(t *testing.T, st store.Store) {
	t.Helper()

	ctx := context.Background()
	var obs []model.Observation
	for i, v := range []float64{1, 2, 3, 4, 5} {
		obs = append(obs, model.Observation{EntityID: "MC-01", Year: 2015 + i, Value: model.Float(v)})
	}
	obs = append(obs,
		model.Observation{EntityID: "MC-02", Year: 2015, Value: model.Float(1)},
		model.Observation{EntityID: "MC-02", Year: 2016, Value: model.Float(2)},
	)
	_, err := st.ImportObservations(ctx, "counts", obs)
	require.NoError(t, err)

	_, err = st.UpsertSites(ctx, []model.Site{
		{ID: "MC-01", Watershed: "Mill"},
		{ID: "MC-02", Watershed: "Cedar"},
	})
	require.NoError(t, err)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{})

	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestDatasets(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/datasets")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Datasets []store.Dataset `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Datasets, 1)
	assert.Equal(t, "counts", body.Datasets[0].Name)
	assert.Equal(t, 7, body.Datasets[0].Observations)
}

func TestTrends_RequiresDataset(t *testing.T) {
	srv, _ := newTestServer(t, config.ServerConfig{})

	rec := get(t, srv, "/api/v1/trends")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "dataset is required")
}

func TestTrends(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// MC-02 has only two years and is excluded.
	assert.Equal(t, 2, body.GroupsTotal)
	assert.Equal(t, 1, body.GroupsExcluded)
	assert.Equal(t, 7, body.Observations)
	require.Len(t, body.Results, 1)

	r := body.Results[0]
	assert.Equal(t, "MC-01", r.EntityID)
	assert.Equal(t, 5, r.N)
	assert.Equal(t, 1.0, r.Tau)
	require.NotNil(t, r.PValue)
	assert.InDelta(t, 0.0275, *r.PValue, 0.0005)
	assert.Equal(t, "*", r.Significance)
}

func TestTrends_YearFilter(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&start=2016&end=2018")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Observations)
}

func TestTrends_BadYear(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&start=twenty")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrends_WatershedFilter(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&watershed=mill")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 5, body.Observations)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "MC-01", body.Results[0].EntityID)
}

func TestTrends_EntitiesIntersectWatershed(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&entities=MC-01,MC-02&watershed=mill")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// MC-02 sits in Cedar, so only MC-01 matches both filters.
	assert.Equal(t, 5, body.Observations)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "MC-01", body.Results[0].EntityID)
}

func TestTrends_DisjointEntitiesWatershedSelectsNothing(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&entities=MC-02&watershed=mill")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Observations)
	assert.Empty(t, body.Results)
}

func TestTrends_UnknownWatershedSelectsNothing(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{})
	seedDataset(t, st)

	rec := get(t, srv, "/api/v1/trends?dataset=counts&watershed=nowhere")
	require.Equal(t, http.StatusOK, rec.Code)

	var body trendsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.Observations)
	assert.Empty(t, body.Results)
}

func TestRateLimit(t *testing.T) {
	srv, st := newTestServer(t, config.ServerConfig{RatePerSec: 0.001, RateBurst: 2})
	seedDataset(t, st)

	router := srv.Routes()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestFiniteMapsNaNToNil(t *testing.T) {
	require.Nil(t, finite(math.NaN()))
	require.Nil(t, finite(math.Inf(1)))
	v := finite(0.5)
	require.NotNil(t, v)
	assert.Equal(t, 0.5, *v)
}
