package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/pipeline"
	"github.com/cascadia-monitoring/streamtrend/internal/selector"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets(r.Context())
	if err != nil {
		zap.L().Error("server: list datasets", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list datasets failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dataset := q.Get("dataset")
	if dataset == "" {
		writeError(w, http.StatusBadRequest, "dataset is required")
		return
	}

	f := selector.Filter{
		Entities:  splitList(q.Get("entities")),
		GroupKeys: splitList(q.Get("groups")),
	}
	var err error
	if f.StartYear, err = yearParam(q.Get("start")); err != nil {
		writeError(w, http.StatusBadRequest, "bad start year")
		return
	}
	if f.EndYear, err = yearParam(q.Get("end")); err != nil {
		writeError(w, http.StatusBadRequest, "bad end year")
		return
	}

	if shed := q.Get("watershed"); shed != "" {
		entities, err := s.watershedEntities(r, shed)
		if err != nil {
			zap.L().Error("server: expand watershed", zap.String("watershed", shed), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "watershed lookup failed")
			return
		}
		f.Entities = intersectEntities(f.Entities, entities)
	}

	obs, err := s.observations(r.Context(), dataset)
	if err != nil {
		zap.L().Error("server: load dataset", zap.String("dataset", dataset), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load dataset failed")
		return
	}

	sum, err := s.analyzer.Run(r.Context(), obs, f)
	if err != nil {
		zap.L().Error("server: pipeline run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, toTrendsResponse(sum))
}

// watershedEntities lists site ids belonging to a watershed.
func (s *Server) watershedEntities(r *http.Request, watershed string) ([]string, error) {
	sites, err := s.store.ListSites(r.Context())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, site := range sites {
		if strings.EqualFold(site.Watershed, watershed) {
			out = append(out, site.ID)
		}
	}
	return out, nil
}

// intersectEntities narrows an explicit entity list to the watershed's
// members, so combined filters select sites matching both. An empty result
// (including an unknown watershed) selects nothing rather than everything.
func intersectEntities(explicit, members []string) []string {
	var out []string
	if len(explicit) == 0 {
		out = members
	} else {
		in := make(map[string]bool, len(members))
		for _, id := range members {
			in[id] = true
		}
		for _, id := range explicit {
			if in[id] {
				out = append(out, id)
			}
		}
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}

// trendsResponse is the wire form of a pipeline summary. Undefined
// statistics are null, since NaN has no JSON encoding.
type trendsResponse struct {
	Results        []trendJSON `json:"results"`
	GroupsTotal    int         `json:"groups_total"`
	GroupsExcluded int         `json:"groups_excluded"`
	Observations   int         `json:"observations"`
}

type trendJSON struct {
	EntityID     string   `json:"entity_id"`
	GroupKey     string   `json:"group_key,omitempty"`
	N            int      `json:"n"`
	Tau          float64  `json:"tau"`
	Slope        float64  `json:"slope"`
	PValue       *float64 `json:"p_value"`
	Significance string   `json:"significance"`
	OLS          olsJSON  `json:"ols"`
}

type olsJSON struct {
	Intercept   *float64 `json:"intercept"`
	Slope       *float64 `json:"slope"`
	StdErrSlope *float64 `json:"stderr_slope"`
	R2          *float64 `json:"r_squared"`
	PValue      *float64 `json:"p_value"`
}

func toTrendsResponse(sum *pipeline.Summary) trendsResponse {
	resp := trendsResponse{
		Results:        make([]trendJSON, 0, len(sum.Results)),
		GroupsTotal:    sum.GroupsTotal,
		GroupsExcluded: sum.GroupsExcluded,
		Observations:   sum.Observations,
	}
	for _, r := range sum.Results {
		resp.Results = append(resp.Results, toTrendJSON(r))
	}
	return resp
}

func toTrendJSON(r model.TrendResult) trendJSON {
	return trendJSON{
		EntityID:     r.Group.EntityID,
		GroupKey:     r.Group.GroupKey,
		N:            r.N,
		Tau:          r.Tau,
		Slope:        r.Slope,
		PValue:       finite(r.PValue),
		Significance: r.Class.Label(),
		OLS: olsJSON{
			Intercept:   finite(r.OLS.Intercept),
			Slope:       finite(r.OLS.Slope),
			StdErrSlope: finite(r.OLS.StdErrSlope),
			R2:          finite(r.OLS.R2),
			PValue:      finite(r.OLS.PValue),
		},
	}
}

// finite returns nil for NaN or infinite values.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func yearParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
