package main

import (
	"context"
	"fmt"

	"github.com/FranksOps/shopscout/internal/config"
	"github.com/FranksOps/shopscout/internal/storage"
	"github.com/FranksOps/shopscout/internal/storage/csvbackend"
	"github.com/FranksOps/shopscout/internal/storage/jsonbackend"
	"github.com/FranksOps/shopscout/internal/storage/postgres"
	"github.com/FranksOps/shopscout/internal/storage/sqlite"
)

// openBackend opens the configured storage. appendMode only affects the CSV
// backend; query passes true so reading never truncates the file.
func openBackend(ctx context.Context, out config.OutputConfig, appendMode bool) (storage.Backend, error) {
	switch out.Backend {
	case config.BackendCSV:
		return csvbackend.New(out.Path, appendMode)
	case config.BackendJSON:
		return jsonbackend.New(out.Path)
	case config.BackendSQLite:
		return sqlite.New(out.Path)
	case config.BackendPostgres:
		return postgres.New(ctx, out.DSN)
	default:
		return nil, fmt.Errorf("unknown backend %q", out.Backend)
	}
}
