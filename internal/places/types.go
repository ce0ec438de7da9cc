package places

import (
	"strings"
	"time"
)

// Region is a free-text place descriptor such as "North York, Toronto, ON".
// It is sent verbatim as part of the search query and used as the grouping
// key for output rows.
type Region string

// Name returns the label before the first comma, e.g. "North York".
func (r Region) Name() string {
	label, _, _ := strings.Cut(string(r), ",")
	label = strings.TrimSpace(label)
	if label == "" {
		return strings.TrimSpace(string(r))
	}
	return label
}

// Location holds optional coordinates; either side may be absent.
type Location struct {
	Lat *float64
	Lng *float64
}

// Match is a single place returned by the search service. Absent fields are
// nil; no sentinel values are stored here.
type Match struct {
	PlaceID  *string
	Name     *string
	Location Location
	Rating   *float64
}

// Score is the ranking key: the rating, or 0 when the service sent none.
func (m Match) Score() float64 {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

// Page is the decoded outcome of one search request.
type Page struct {
	Matches          []Match
	NextPageToken    string
	HTMLAttributions []string
}

// DiagnosticKind distinguishes ordinary page records from the page-cap marker.
type DiagnosticKind string

const (
	DiagnosticPage      DiagnosticKind = "page"
	DiagnosticPageLimit DiagnosticKind = "page_limit"
)

// PageDiagnostic records what a single page contributed.
type PageDiagnostic struct {
	Kind     DiagnosticKind
	Page     int
	Matches  int
	Duration time.Duration
}

// FetchResult is everything gathered for one region, in service order.
type FetchResult struct {
	Region       Region
	Matches      []Match
	Diagnostics  []PageDiagnostic
	Attributions []string
	// Truncated is set when MaxPages stopped the loop while a token was still pending.
	Truncated bool
}

// Pages returns the number of pages actually fetched.
func (r *FetchResult) Pages() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == DiagnosticPage {
			n++
		}
	}
	return n
}
