// Package model defines the domain types shared across the trend pipeline.
package model

import "fmt"

// Observation is one measured value tied to a monitoring entity and a year.
// A nil Value marks a visit where the metric could not be measured; such
// rows are carried through selection but excluded from baselines.
type Observation struct {
	EntityID string   `json:"entity_id"`
	GroupKey string   `json:"group_key,omitempty"`
	Year     int      `json:"year"`
	Value    *float64 `json:"value,omitempty"`
}

// Float returns a pointer to v, for building observations inline.
func Float(v float64) *float64 {
	return &v
}

// GroupID identifies the unit over which baselines and trends are computed:
// one entity plus an optional secondary category (size class, habitat type).
type GroupID struct {
	EntityID string `json:"entity_id"`
	GroupKey string `json:"group_key,omitempty"`
}

func (g GroupID) String() string {
	if g.GroupKey == "" {
		return g.EntityID
	}
	return fmt.Sprintf("%s/%s", g.EntityID, g.GroupKey)
}

// Less orders group ids lexicographically by entity then group key.
func (g GroupID) Less(o GroupID) bool {
	if g.EntityID != o.EntityID {
		return g.EntityID < o.EntityID
	}
	return g.GroupKey < o.GroupKey
}

// AnomalyPoint is one retained observation with its deviation from the
// group mean.
type AnomalyPoint struct {
	Year    int     `json:"year"`
	Value   float64 `json:"value"`
	Anomaly float64 `json:"anomaly"`
}

// GroupSeries is the anomaly series for one group, ordered by year.
type GroupSeries struct {
	Group  GroupID        `json:"group"`
	Mean   float64        `json:"mean"`
	Points []AnomalyPoint `json:"points"`
}

// Site describes a monitoring location. Watershed membership drives
// entity-set expansion when filtering by watershed.
type Site struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Watershed string  `json:"watershed,omitempty"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
}
