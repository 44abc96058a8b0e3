// Package selector filters raw observation tables ahead of the trend
// pipeline.
package selector

import "github.com/cascadia-monitoring/streamtrend/internal/model"

// Filter specifies the active selection criteria. Empty slices and zero
// year bounds deactivate the corresponding predicate.
type Filter struct {
	Entities  []string `json:"entities,omitempty"`
	GroupKeys []string `json:"group_keys,omitempty"`
	StartYear int      `json:"start_year,omitempty"`
	EndYear   int      `json:"end_year,omitempty"`
}

// Select returns the subset of observations satisfying all active filters,
// preserving input order. A filter that matches nothing yields an empty
// result, not an error.
func Select(obs []model.Observation, f Filter) []model.Observation {
	entities := toSet(f.Entities)
	groups := toSet(f.GroupKeys)

	out := make([]model.Observation, 0, len(obs))
	for _, o := range obs {
		if entities != nil && !entities[o.EntityID] {
			continue
		}
		if groups != nil && !groups[o.GroupKey] {
			continue
		}
		if f.StartYear != 0 && o.Year < f.StartYear {
			continue
		}
		if f.EndYear != 0 && o.Year > f.EndYear {
			continue
		}
		out = append(out, o)
	}
	return out
}

// toSet builds a membership set, or nil when the predicate is inactive.
func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	s := make(map[string]bool, len(vals))
	for _, v := range vals {
		s[v] = true
	}
	return s
}
