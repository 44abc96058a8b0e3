// Package anomaly computes per-group baselines and deviations from them.
package anomaly

import (
	"sort"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Compute groups observations by (entity, group key), computes each group's
// mean over non-missing values, and emits the per-observation anomaly
// series. Missing values are excluded from both the mean and the emitted
// points; groups with no measurable values are dropped. Output is sorted by
// group id and, within a group, by year.
func Compute(obs []model.Observation) []model.GroupSeries {
	byGroup := make(map[model.GroupID][]model.Observation)
	for _, o := range obs {
		if o.Value == nil {
			continue
		}
		id := model.GroupID{EntityID: o.EntityID, GroupKey: o.GroupKey}
		byGroup[id] = append(byGroup[id], o)
	}

	out := make([]model.GroupSeries, 0, len(byGroup))
	for id, members := range byGroup {
		sum := 0.0
		for _, o := range members {
			sum += *o.Value
		}
		mean := sum / float64(len(members))

		sort.Slice(members, func(i, j int) bool { return members[i].Year < members[j].Year })

		points := make([]model.AnomalyPoint, len(members))
		for i, o := range members {
			points[i] = model.AnomalyPoint{
				Year:    o.Year,
				Value:   *o.Value,
				Anomaly: *o.Value - mean,
			}
		}

		out = append(out, model.GroupSeries{Group: id, Mean: mean, Points: points})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Group.Less(out[j].Group) })
	return out
}
