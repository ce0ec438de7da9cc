// Package survey drives a run across regions: fetch every page, rank, and
// hand each region's top list to the storage backend. A region that fails is
// logged and skipped; the rest of the run continues.
package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/shopscout/internal/metrics"
	"github.com/FranksOps/shopscout/internal/places"
	"github.com/FranksOps/shopscout/internal/ranking"
	"github.com/FranksOps/shopscout/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the page-following half of a region survey.
type Fetcher interface {
	Fetch(ctx context.Context, region places.Region) (*places.FetchResult, error)
}

// Config provides the collaborators for a Surveyor.
type Config struct {
	Fetcher Fetcher
	Backend storage.Backend
	// Limit is the number of ranked matches kept per region (0 = ranking.DefaultLimit).
	Limit int
	// Concurrency is the number of regions fetched at once (0 = 1).
	Concurrency int
	// RunID tags every stored row (empty = random uuid).
	RunID string
	// Now stamps stored rows (nil = time.Now in UTC).
	Now func() time.Time
}

// Outcome is what happened to one region.
type Outcome struct {
	Region places.Region
	// Result is nil when the fetch failed.
	Result *places.FetchResult
	Ranked []places.Match
	// Rows is the number of rows the backend accepted.
	Rows     int
	Err      error
	Duration time.Duration
}

// Failed reports whether the region produced no output.
func (o *Outcome) Failed() bool {
	return o.Err != nil
}

// Truncated reports whether the page cap stopped the region early.
func (o *Outcome) Truncated() bool {
	return o.Result != nil && o.Result.Truncated
}

// Surveyor runs a survey over a list of regions.
type Surveyor struct {
	cfg    Config
	logger *slog.Logger
}

// New validates cfg and fills in defaults.
func New(cfg Config, logger *slog.Logger) (*Surveyor, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("survey: fetcher is required")
	}
	if cfg.Backend == nil {
		return nil, errors.New("survey: backend is required")
	}
	if cfg.Limit <= 0 {
		cfg.Limit = ranking.DefaultLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Surveyor{cfg: cfg, logger: logger.With("run_id", cfg.RunID)}, nil
}

// RunID identifies the rows written by this Surveyor.
func (s *Surveyor) RunID() string {
	return s.cfg.RunID
}

// Run surveys regions and returns one Outcome per region, in input order.
// Regions are fetched by up to Concurrency workers but always written in
// input order. Region failures are recorded on their Outcome; the returned
// error is non-nil only if ctx ends before the run completes.
func (s *Surveyor) Run(ctx context.Context, regions []places.Region) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(regions))
	done := make([]chan struct{}, len(regions))
	for i := range done {
		done[i] = make(chan struct{})
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)

	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, region := range regions {
			g.Go(func() error {
				defer close(done[i])
				outcomes[i] = s.survey(ctx, region)
				return nil
			})
		}
		_ = g.Wait()
	}()

	for i := range regions {
		<-done[i]
		s.write(ctx, outcomes[i])
	}
	<-launched

	failed, rows := 0, 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
		rows += o.Rows
	}

	if err := ctx.Err(); err != nil {
		s.logger.Warn("survey interrupted", "regions", len(regions), "failed", failed, "rows", rows, "err", err)
		return outcomes, err
	}

	s.logger.Info("survey complete", "regions", len(regions), "failed", failed, "rows", rows)
	return outcomes, nil
}

// survey fetches and ranks one region.
func (s *Surveyor) survey(ctx context.Context, region places.Region) *Outcome {
	start := time.Now()
	o := &Outcome{Region: region}
	defer func() { o.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	result, err := s.cfg.Fetcher.Fetch(ctx, region)
	if err != nil {
		o.Err = err
		if ctx.Err() == nil {
			s.logFailure(region, err)
			metrics.RecordRegion(region.Name(), metrics.OutcomeFailed, 0)
		}
		return o
	}

	o.Result = result
	o.Ranked = ranking.Rank(result.Matches, s.cfg.Limit)
	s.logger.Info("region ranked",
		"region", string(region),
		"pages", result.Pages(),
		"fetched", len(result.Matches),
		"kept", len(o.Ranked),
	)
	return o
}

// write persists a ranked region. Failed regions write nothing.
func (s *Surveyor) write(ctx context.Context, o *Outcome) {
	if o.Failed() {
		return
	}
	if err := ctx.Err(); err != nil {
		o.Err = fmt.Errorf("write skipped: %w", err)
		return
	}

	label := o.Region.Name()
	records := storage.NewRecords(s.cfg.RunID, o.Region, o.Ranked, s.cfg.Now())
	if len(records) > 0 {
		if err := s.cfg.Backend.Save(ctx, records...); err != nil {
			o.Err = fmt.Errorf("save %s: %w", o.Region, err)
			s.logger.Error("region not saved", "region", string(o.Region), "rows", len(records), "err", err)
			metrics.RecordRegion(label, metrics.OutcomeFailed, 0)
			return
		}
	}

	o.Rows = len(records)
	outcome := metrics.OutcomeOK
	if o.Truncated() {
		outcome = metrics.OutcomeTruncated
	}
	metrics.RecordRegion(label, outcome, o.Rows)
}

func (s *Surveyor) logFailure(region places.Region, err error) {
	var fe *places.FetchError
	if errors.As(err, &fe) {
		s.logger.Error("region skipped",
			"region", string(region),
			"page", fe.Page,
			"status", fe.StatusCode,
			"err", fe.Cause,
		)
		return
	}
	s.logger.Error("region skipped", "region", string(region), "err", err)
}
