package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/FranksOps/shopscout/internal/config"
	"github.com/FranksOps/shopscout/internal/fingerprint"
	"github.com/FranksOps/shopscout/internal/logging"
	"github.com/FranksOps/shopscout/internal/metrics"
	"github.com/FranksOps/shopscout/internal/places"
	"github.com/FranksOps/shopscout/internal/report"
	"github.com/FranksOps/shopscout/internal/survey"
	"github.com/FranksOps/shopscout/pkg/httpclient"
	"github.com/FranksOps/shopscout/pkg/ratelimit"
	"github.com/spf13/cobra"
)

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Survey every configured region and store the ranked results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSurvey(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// runSurvey wires the collaborators from cfg and runs one survey. The report
// goes to stdout; logs go to stderr and the error log file.
func runSurvey(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger, closeLog, err := logging.New(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		ErrorFile: cfg.Log.ErrorFile,
	}, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if cfg.Metrics.Port > 0 {
		srv, err := metrics.Start(cfg.Metrics.Port, logger)
		if err != nil {
			return err
		}
		defer srv.Stop(context.Background())
		logger.Info("metrics listening", "addr", srv.Addr())
	}

	client, err := newHTTPClient(cfg)
	if err != nil {
		return err
	}

	fetcher, err := places.NewFetcher(places.FetchConfig{
		Endpoint:  cfg.Endpoint,
		APIKey:    cfg.APIKey,
		Category:  cfg.Category,
		PageDelay: cfg.PageDelay,
		MaxPages:  cfg.MaxPages,
		Client:    client,
		Limiter:   ratelimit.NewLimiter(cfg.RequestsPerSec, 0),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg.Output, cfg.Output.Append)
	if err != nil {
		return err
	}
	defer backend.Close()

	surveyor, err := survey.New(survey.Config{
		Fetcher:     fetcher,
		Backend:     backend,
		Limit:       cfg.MaxResults,
		Concurrency: cfg.Concurrency,
	}, logger)
	if err != nil {
		return err
	}

	regions := make([]places.Region, len(cfg.Regions))
	for i, r := range cfg.Regions {
		regions[i] = places.Region(r)
	}

	logger.Info("survey started",
		"run_id", surveyor.RunID(),
		"regions", len(regions),
		"category", cfg.Category,
		"backend", cfg.Output.Backend,
	)

	start := time.Now()
	outcomes, runErr := surveyor.Run(ctx, regions)
	summary := report.GenerateSummary(surveyor.RunID(), outcomes, start, time.Now())

	switch cfg.Report.Format {
	case "json":
		err = report.WriteJSON(stdout, summary)
	case "text":
		err = report.WriteText(stdout, summary)
	}
	if err != nil {
		return err
	}

	return runErr
}

func newHTTPClient(cfg *config.Config) (*httpclient.Client, error) {
	profile, err := fingerprint.ParseProfile(cfg.TLSProfile)
	if err != nil {
		return nil, err
	}

	var proxyURL *url.URL
	if cfg.ProxyURL != "" {
		proxyURL, err = url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
	}

	transport, err := fingerprint.Transport(profile, proxyURL)
	if err != nil {
		return nil, err
	}

	return httpclient.New(httpclient.Config{
		Timeout:      cfg.RequestTimeout,
		MaxRedirects: 5,
		UserAgent:    cfg.UserAgent,
		Transport:    transport,
	})
}
