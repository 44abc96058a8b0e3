package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cascadia-monitoring/streamtrend/internal/loader"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
	"github.com/cascadia-monitoring/streamtrend/internal/store"
)

// openStore opens the configured store with migrations applied.
func openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// importRows aggregates duplicate rows and writes them into a dataset.
func importRows(ctx context.Context, dataset string, obs []model.Observation) (int, error) {
	obs = loader.Aggregate(obs)

	st, err := openStore(ctx)
	if err != nil {
		return 0, err
	}
	defer st.Close() //nolint:errcheck

	n, err := st.ImportObservations(ctx, dataset, obs)
	if err != nil {
		return 0, eris.Wrap(err, "import observations")
	}
	return n, nil
}
