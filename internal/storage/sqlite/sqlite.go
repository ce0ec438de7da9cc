package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/shopscout/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS region_matches (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	run_id TEXT NOT NULL,
	region TEXT NOT NULL,
	region_name TEXT NOT NULL,
	rank INTEGER NOT NULL,
	place_id TEXT,
	name TEXT,
	lat REAL,
	lng REAL,
	rating REAL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS region_matches_run ON region_matches (run_id);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, records ...*storage.Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO region_matches (
		id, run_id, region, region_name, rank, place_id, name, lat, lng, rating, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID,
			r.RunID,
			r.Region,
			r.RegionName,
			r.Rank,
			r.PlaceID,
			r.Name,
			r.Lat,
			r.Lng,
			r.Rating,
			r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite insert %s rank %d: %w", r.Region, r.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, region, region_name, rank, place_id, name, lat, lng, rating, created_at FROM region_matches WHERE 1=1`
	args := []any{}

	if filter.Region != "" {
		query += ` AND (region = ? OR region_name = ?)`
		args = append(args, filter.Region, filter.Region)
	}
	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}

	query += ` ORDER BY seq ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires LIMIT before OFFSET
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	var results []*storage.Record
	for rows.Next() {
		var r storage.Record
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Region, &r.RegionName, &r.Rank,
			&r.PlaceID, &r.Name, &r.Lat, &r.Lng, &r.Rating, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
