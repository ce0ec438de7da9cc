package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Region outcomes used as the "outcome" label.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeTruncated = "truncated"
)

var (
	PageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_page_requests_total",
			Help: "Total number of search page requests, by result",
		},
		[]string{"region", "result"},
	)

	PageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopscout_page_duration_seconds",
			Help:    "Duration of search page requests in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"region"},
	)

	MatchesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_matches_fetched_total",
			Help: "Total matches returned by the search service before ranking",
		},
		[]string{"region"},
	)

	RegionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_regions_total",
			Help: "Regions processed, by outcome",
		},
		[]string{"region", "outcome"},
	)

	RowsWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopscout_rows_written_total",
			Help: "Ranked rows handed to the storage backend",
		},
		[]string{"region"},
	)
)

// RecordPage updates page-level metrics. A nil err counts as success.
func RecordPage(region string, matches int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PageRequestsTotal.WithLabelValues(region, result).Inc()
	PageDuration.WithLabelValues(region).Observe(d.Seconds())
	if err == nil {
		MatchesFetchedTotal.WithLabelValues(region).Add(float64(matches))
	}
}

// RecordRegion counts a finished region and, on success, the rows written.
func RecordRegion(region, outcome string, rows int) {
	RegionsTotal.WithLabelValues(region, outcome).Inc()
	if rows > 0 {
		RowsWrittenTotal.WithLabelValues(region).Add(float64(rows))
	}
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv  *http.Server
	addr string
}

// Start begins listening on the specified port and exposes /metrics.
// Port 0 picks a free port; Addr reports the one in use.
func Start(port int, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv, addr: ln.Addr().String()}, nil
}

// Addr returns the listen address, e.g. "[::]:9464".
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
