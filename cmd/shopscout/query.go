package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/FranksOps/shopscout/internal/config"
	"github.com/FranksOps/shopscout/internal/storage"
	"github.com/FranksOps/shopscout/internal/storage/csvbackend"
	"github.com/spf13/cobra"
)

func newQueryCmd(configPath *string) *cobra.Command {
	var filter storage.Filter

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print stored rows as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Output.Validate(); err != nil {
				return err
			}
			return queryRows(cmd.Context(), cfg.Output, filter, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&filter.Region, "region", "", "only rows for this region (full label or name)")
	flags.StringVar(&filter.RunID, "run-id", "", "only rows from this run")
	flags.IntVar(&filter.Limit, "limit", 0, "maximum rows to print (0 = all)")
	flags.IntVar(&filter.Offset, "offset", 0, "rows to skip")
	return cmd
}

func queryRows(ctx context.Context, out config.OutputConfig, filter storage.Filter, w io.Writer) error {
	if out.Backend != config.BackendPostgres {
		if _, err := os.Stat(out.Path); err != nil {
			return fmt.Errorf("no stored results: %w", err)
		}
	}

	backend, err := openBackend(ctx, out, true)
	if err != nil {
		return err
	}
	defer backend.Close()

	records, err := backend.Query(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvbackend.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(csvbackend.Row(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
