package places

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/FranksOps/shopscout/internal/metrics"
	"github.com/FranksOps/shopscout/pkg/httpclient"
	"github.com/FranksOps/shopscout/pkg/ratelimit"
)

const (
	// DefaultEndpoint is the Places text search JSON endpoint.
	DefaultEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"
	// DefaultPageDelay is how long a next_page_token needs before the service accepts it.
	DefaultPageDelay = 2 * time.Second
)

// State is the pagination state of a single region fetch.
type State int

const (
	StateFetching State = iota
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transition decides what follows page number page. A set token keeps the
// loop fetching unless maxPages (when > 0) has been reached, in which case the
// loop ends and truncated reports that a token was left unfollowed.
func transition(err error, token string, page, maxPages int) (next State, truncated bool) {
	switch {
	case err != nil:
		return StateFailed, false
	case token == "":
		return StateDone, false
	case maxPages > 0 && page >= maxPages:
		return StateDone, true
	default:
		return StateFetching, false
	}
}

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Endpoint string
	APIKey   string
	// Category is the search phrase placed before the region,
	// e.g. "highly rated bubble tea shops".
	Category string
	// PageDelay is waited before every continuation request (0 = DefaultPageDelay).
	PageDelay time.Duration
	// MaxPages caps pages per region; 0 means no cap.
	MaxPages int
	Client   *httpclient.Client
	// Limiter paces every request this fetcher makes; may be shared.
	Limiter *ratelimit.Limiter
	// Wait implements the inter-page delay (nil = ratelimit.Pause).
	Wait   ratelimit.WaitFunc
	Logger *slog.Logger
}

// Fetcher retrieves every page of text search results for a region.
// It holds no per-region state and is safe for concurrent use.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	logger *slog.Logger
}

// NewFetcher initializes a Fetcher, filling in defaults.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("places: invalid endpoint: %w", err)
	}
	if cfg.PageDelay == 0 {
		cfg.PageDelay = DefaultPageDelay
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = 0
	}
	if cfg.Wait == nil {
		cfg.Wait = ratelimit.Pause
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{MaxRedirects: 5})
		if err != nil {
			return nil, fmt.Errorf("places: create client: %w", err)
		}
	}

	return &Fetcher{config: cfg, client: client, logger: cfg.Logger}, nil
}

// Fetch follows continuation tokens for region until the service stops
// returning one. Matches are returned in service order. Any failed page
// aborts the region with a *FetchError and no partial results.
func (f *Fetcher) Fetch(ctx context.Context, region Region) (*FetchResult, error) {
	result := &FetchResult{Region: region}
	var fragments []string

	label := region.Name()
	target := f.searchURL(region)
	state := StateFetching

	for page := 1; state == StateFetching; page++ {
		if page > 1 {
			if err := f.config.Wait(ctx, f.config.PageDelay); err != nil {
				return nil, &FetchError{Region: region, Page: page, Cause: err}
			}
		}

		start := time.Now()
		p, status, err := f.fetchPage(ctx, target)
		elapsed := time.Since(start)

		matches := 0
		token := ""
		if p != nil {
			matches = len(p.Matches)
			token = p.NextPageToken
		}
		metrics.RecordPage(label, matches, elapsed, err)

		var truncated bool
		state, truncated = transition(err, token, page, f.config.MaxPages)

		switch state {
		case StateFailed:
			return nil, &FetchError{Region: region, Page: page, StatusCode: status, Cause: err}
		case StateFetching:
			target = f.continuationURL(token)
		}

		result.Matches = append(result.Matches, p.Matches...)
		result.Diagnostics = append(result.Diagnostics, PageDiagnostic{
			Kind:     DiagnosticPage,
			Page:     page,
			Matches:  matches,
			Duration: elapsed,
		})
		fragments = append(fragments, p.HTMLAttributions...)
		f.logger.Info("page fetched", "region", string(region), "page", page, "matches", matches)

		if truncated {
			result.Truncated = true
			result.Diagnostics = append(result.Diagnostics, PageDiagnostic{
				Kind: DiagnosticPageLimit,
				Page: page,
			})
			f.logger.Warn("page limit reached, continuation token not followed",
				"region", string(region), "max_pages", f.config.MaxPages)
		}
	}

	result.Attributions = PlainAttributions(fragments)
	return result, nil
}

// fetchPage performs one request and classifies service-level failures.
// The returned int is the HTTP status, 0 if none was received.
func (f *Fetcher) fetchPage(ctx context.Context, target string) (*Page, int, error) {
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	var resp searchResponse
	status, err := f.client.GetJSON(ctx, target, &resp)
	if err != nil {
		return nil, status, err
	}

	if err := resp.err(); err != nil {
		return nil, status, err
	}
	return resp.page(), status, nil
}

func (f *Fetcher) searchURL(region Region) string {
	q := url.Values{}
	query := string(region)
	if f.config.Category != "" {
		query = f.config.Category + " in " + query
	}
	q.Set("query", query)
	q.Set("key", f.config.APIKey)
	return f.config.Endpoint + "?" + q.Encode()
}

// continuationURL builds a follow-up request keyed only by the token; the
// original query is not resent.
func (f *Fetcher) continuationURL(token string) string {
	q := url.Values{}
	q.Set("pagetoken", token)
	q.Set("key", f.config.APIKey)
	return f.config.Endpoint + "?" + q.Encode()
}
