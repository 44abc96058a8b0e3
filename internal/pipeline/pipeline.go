// Package pipeline wires observation selection, anomaly computation, and
// per-group trend estimation into one request-scoped run.
package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cascadia-monitoring/streamtrend/internal/anomaly"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/selector"
	"github.com/cascadia-monitoring/streamtrend/internal/trend"
)

// Summary is one analysis run's output: the labeled trend table plus group
// bookkeeping for "insufficient data" displays.
type Summary struct {
	Results        []model.TrendResult `json:"results"`
	Series         []model.GroupSeries `json:"-"`
	GroupsTotal    int                 `json:"groups_total"`
	GroupsExcluded int                 `json:"groups_excluded"`
	Observations   int                 `json:"observations"`
}

// Analyzer runs the trend pipeline. Group estimations are independent, so
// they run concurrently up to the worker bound; result order is fixed by
// group id regardless of scheduling.
type Analyzer struct {
	workers int
}

// NewAnalyzer creates an Analyzer with the given concurrency bound.
// Anything below 1 runs sequentially.
func NewAnalyzer(workers int) *Analyzer {
	if workers < 1 {
		workers = 1
	}
	return &Analyzer{workers: workers}
}

// Run filters the observation table, computes per-group anomaly series, and
// estimates a trend for every group with enough data. Groups below the
// minimum series length are counted as excluded, never zero-filled.
func (a *Analyzer) Run(ctx context.Context, obs []model.Observation, f selector.Filter) (*Summary, error) {
	filtered := selector.Select(obs, f)
	series := anomaly.Compute(filtered)

	results := make([]*model.TrendResult, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, s := range series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if r, ok := trend.Estimate(s); ok {
				results[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := &Summary{
		Series:       series,
		GroupsTotal:  len(series),
		Observations: len(filtered),
	}
	for _, r := range results {
		if r == nil {
			sum.GroupsExcluded++
			continue
		}
		sum.Results = append(sum.Results, *r)
	}

	zap.L().Debug("pipeline: run complete",
		zap.Int("observations", sum.Observations),
		zap.Int("groups", sum.GroupsTotal),
		zap.Int("excluded", sum.GroupsExcluded),
	)
	return sum, nil
}
