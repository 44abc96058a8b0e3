// Package store persists observation datasets and site metadata.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cascadia-monitoring/streamtrend/internal/config"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// Dataset summarizes one imported dataset.
type Dataset struct {
	Name         string `json:"name"`
	Observations int    `json:"observations"`
	Entities     int    `json:"entities"`
	MinYear      int    `json:"min_year"`
	MaxYear      int    `json:"max_year"`
}

// Store is the persistence interface for observations and sites. The
// pipeline never touches the store directly; callers load a dataset once
// and hand the rows to the analyzer.
type Store interface {
	// Observations
	ImportObservations(ctx context.Context, dataset string, obs []model.Observation) (int, error)
	ListObservations(ctx context.Context, dataset string) ([]model.Observation, error)
	ListDatasets(ctx context.Context) ([]Dataset, error)
	DeleteDataset(ctx context.Context, dataset string) (int, error)

	// Sites
	UpsertSites(ctx context.Context, sites []model.Site) (int, error)
	ListSites(ctx context.Context) ([]model.Site, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by config and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		s, err = NewSQLite(cfg.Path)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
