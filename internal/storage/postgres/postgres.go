package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/shopscout/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS region_matches (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	run_id TEXT NOT NULL,
	region TEXT NOT NULL,
	region_name TEXT NOT NULL,
	rank INTEGER NOT NULL,
	place_id TEXT,
	name TEXT,
	lat DOUBLE PRECISION,
	lng DOUBLE PRECISION,
	rating DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS region_matches_run ON region_matches (run_id);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	_, err = pool.Exec(ctx, schema)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, records ...*storage.Record) error {
	const query = `
	INSERT INTO region_matches (
		id, run_id, region, region_name, rank, place_id, name, lat, lng, rating, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query,
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
	}

	// a region's rows commit together or not at all
	err := pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, region, region_name, rank, place_id, name, lat, lng, rating, created_at FROM region_matches WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Region != "" {
		query += fmt.Sprintf(` AND (region = $%d OR region_name = $%d)`, paramCount, paramCount)
		args = append(args, filter.Region)
		paramCount++
	}
	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, paramCount)
		args = append(args, filter.RunID)
		paramCount++
	}

	query += ` ORDER BY seq ASC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
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
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
