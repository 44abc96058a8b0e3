package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cascadia-monitoring/streamtrend/internal/db"
	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS observations (
	dataset   TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	group_key TEXT NOT NULL DEFAULT '',
	year      INTEGER NOT NULL,
	value     DOUBLE PRECISION,
	PRIMARY KEY (dataset, entity_id, group_key, year)
);

CREATE TABLE IF NOT EXISTS sites (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	watershed TEXT NOT NULL DEFAULT '',
	lon       DOUBLE PRECISION NOT NULL DEFAULT 0,
	lat       DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS import_log (
	id          UUID PRIMARY KEY,
	dataset     TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_observations_dataset ON observations(dataset);
CREATE INDEX IF NOT EXISTS idx_sites_watershed ON sites(watershed);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// ImportObservations upserts observations into a dataset and records the
// import batch.
func (s *PostgresStore) ImportObservations(ctx context.Context, dataset string, obs []model.Observation) (int, error) {
	if dataset == "" {
		return 0, eris.New("postgres: dataset name is required")
	}
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin import")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, o := range obs {
		_, err := tx.Exec(ctx, `
			INSERT INTO observations (dataset, entity_id, group_key, year, value)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (dataset, entity_id, group_key, year) DO UPDATE SET value = EXCLUDED.value`,
			dataset, o.EntityID, o.GroupKey, o.Year, o.Value)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: insert observation %s/%s/%d", o.EntityID, o.GroupKey, o.Year)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO import_log (id, dataset, rows, imported_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), dataset, len(obs), time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: record import")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit import")
	}
	return len(obs), nil
}

// ListObservations returns a dataset's rows ordered by entity, group, year.
func (s *PostgresStore) ListObservations(ctx context.Context, dataset string) ([]model.Observation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_id, group_key, year, value
		FROM observations
		WHERE dataset = $1
		ORDER BY entity_id, group_key, year`, dataset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list observations")
	}
	defer rows.Close()

	var out []model.Observation
	for rows.Next() {
		var (
			o model.Observation
			v *float64
		)
		if err := rows.Scan(&o.EntityID, &o.GroupKey, &o.Year, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan observation")
		}
		o.Value = v
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate observations")
}

// ListDatasets returns per-dataset summaries.
func (s *PostgresStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT dataset, COUNT(*), COUNT(DISTINCT entity_id), MIN(year), MAX(year)
		FROM observations
		GROUP BY dataset
		ORDER BY dataset`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var out []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.Name, &d.Observations, &d.Entities, &d.MinYear, &d.MaxYear); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate datasets")
}

// DeleteDataset removes a dataset's observations. Returns rows deleted.
func (s *PostgresStore) DeleteDataset(ctx context.Context, dataset string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM observations WHERE dataset = $1`, dataset)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete dataset")
	}
	return int(tag.RowsAffected()), nil
}

// UpsertSites inserts or updates site metadata.
func (s *PostgresStore) UpsertSites(ctx context.Context, sites []model.Site) (int, error) {
	if len(sites) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin sites upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	count := 0
	for _, site := range sites {
		if site.ID == "" {
			continue
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO sites (id, name, watershed, lon, lat)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				watershed = EXCLUDED.watershed,
				lon = EXCLUDED.lon,
				lat = EXCLUDED.lat`,
			site.ID, site.Name, site.Watershed, site.Lon, site.Lat)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: upsert site %s", site.ID)
		}
		count++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit sites upsert")
	}
	return count, nil
}

// ListSites returns all known sites ordered by id.
func (s *PostgresStore) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, watershed, lon, lat FROM sites ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sites")
	}
	defer rows.Close()

	var out []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Watershed, &site.Lon, &site.Lat); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		out = append(out, site)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate sites")
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
