package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cascadia-monitoring/streamtrend/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS observations (
	dataset   TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	group_key TEXT NOT NULL DEFAULT '',
	year      INTEGER NOT NULL,
	value     REAL,
	PRIMARY KEY (dataset, entity_id, group_key, year)
);

CREATE TABLE IF NOT EXISTS sites (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	watershed TEXT NOT NULL DEFAULT '',
	lon       REAL NOT NULL DEFAULT 0,
	lat       REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS import_log (
	id          TEXT PRIMARY KEY,
	dataset     TEXT NOT NULL,
	rows        INTEGER NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_observations_dataset ON observations(dataset);
CREATE INDEX IF NOT EXISTS idx_sites_watershed ON sites(watershed);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// ImportObservations upserts observations into a dataset and records the
// import batch. Re-imported rows replace the stored value.
func (s *SQLiteStore) ImportObservations(ctx context.Context, dataset string, obs []model.Observation) (int, error) {
	if dataset == "" {
		return 0, eris.New("sqlite: dataset name is required")
	}
	if len(obs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (dataset, entity_id, group_key, year, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (dataset, entity_id, group_key, year) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	for _, o := range obs {
		var v sql.NullFloat64
		if o.Value != nil {
			v = sql.NullFloat64{Float64: *o.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, dataset, o.EntityID, o.GroupKey, o.Year, v); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert observation %s/%s/%d", o.EntityID, o.GroupKey, o.Year)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO import_log (id, dataset, rows, imported_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), dataset, len(obs), time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: record import")
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return len(obs), nil
}

// ListObservations returns a dataset's rows ordered by entity, group, year.
func (s *SQLiteStore) ListObservations(ctx context.Context, dataset string) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, group_key, year, value
		FROM observations
		WHERE dataset = ?
		ORDER BY entity_id, group_key, year`, dataset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list observations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Observation
	for rows.Next() {
		var (
			o model.Observation
			v sql.NullFloat64
		)
		if err := rows.Scan(&o.EntityID, &o.GroupKey, &o.Year, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan observation")
		}
		if v.Valid {
			o.Value = model.Float(v.Float64)
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate observations")
}

// ListDatasets returns per-dataset summaries.
func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset, COUNT(*), COUNT(DISTINCT entity_id), MIN(year), MAX(year)
		FROM observations
		GROUP BY dataset
		ORDER BY dataset`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close() //nolint:errcheck

	var out []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.Name, &d.Observations, &d.Entities, &d.MinYear, &d.MaxYear); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dataset")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate datasets")
}

// DeleteDataset removes a dataset's observations. Returns rows deleted.
func (s *SQLiteStore) DeleteDataset(ctx context.Context, dataset string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM observations WHERE dataset = ?`, dataset)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete dataset")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return int(n), nil
}

// UpsertSites inserts or updates site metadata.
func (s *SQLiteStore) UpsertSites(ctx context.Context, sites []model.Site) (int, error) {
	if len(sites) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin sites upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sites (id, name, watershed, lon, lat)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			watershed = excluded.watershed,
			lon = excluded.lon,
			lat = excluded.lat`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare sites upsert")
	}
	defer stmt.Close() //nolint:errcheck

	count := 0
	for _, site := range sites {
		if site.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, site.ID, site.Name, site.Watershed, site.Lon, site.Lat); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert site %s", site.ID)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit sites upsert")
	}
	return count, nil
}

// ListSites returns all known sites ordered by id.
func (s *SQLiteStore) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, watershed, lon, lat FROM sites ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sites")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Watershed, &site.Lon, &site.Lat); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site")
		}
		out = append(out, site)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate sites")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
