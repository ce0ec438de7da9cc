package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/FranksOps/shopscout/internal/places"
	"github.com/google/uuid"
)

// NotAvailable is written in place of any absent value.
const NotAvailable = "N/A"

// Record is one ranked match of one region, as persisted by a Backend.
type Record struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Region     string    `json:"region"`      // full region label as configured
	RegionName string    `json:"region_name"` // label before the first comma
	Rank       int       `json:"rank"`        // 1-based position after ranking
	PlaceID    *string   `json:"place_id"`
	Name       *string   `json:"name"`
	Lat        *float64  `json:"lat"`
	Lng        *float64  `json:"lng"`
	Rating     *float64  `json:"rating"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter allows querying for specific Records.
type Filter struct {
	Region string // matches either Region or RegionName
	RunID  string
	Limit  int
	Offset int
}

// Backend defines the interface for storing and querying ranked results.
// Save persists all records for one region as a unit.
type Backend interface {
	Save(ctx context.Context, records ...*Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}

// NewRecords converts a region's ranked matches into Records stamped with
// runID and now. Ranks follow slice order.
func NewRecords(runID string, region places.Region, ranked []places.Match, now time.Time) []*Record {
	records := make([]*Record, 0, len(ranked))
	for i, m := range ranked {
		records = append(records, &Record{
			ID:         uuid.NewString(),
			RunID:      runID,
			Region:     string(region),
			RegionName: region.Name(),
			Rank:       i + 1,
			PlaceID:    m.PlaceID,
			Name:       m.Name,
			Lat:        m.Location.Lat,
			Lng:        m.Location.Lng,
			Rating:     m.Rating,
			CreatedAt:  now,
		})
	}
	return records
}

// Matches reports whether r passes the filter's equality conditions.
// Limit and Offset are left to the caller.
func (f Filter) Matches(r *Record) bool {
	if f.Region != "" && r.Region != f.Region && r.RegionName != f.Region {
		return false
	}
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered, ordered slice.
func (f Filter) Page(records []*Record) []*Record {
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*Record{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// FormatString renders an optional string for tabular output.
func FormatString(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return *s
}

// FormatFloat renders an optional number for tabular output using the
// shortest representation that round-trips.
func FormatFloat(f *float64) string {
	if f == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// ParseString is the inverse of FormatString.
func ParseString(s string) *string {
	if s == NotAvailable {
		return nil
	}
	return &s
}

// ParseFloat is the inverse of FormatFloat. Unparseable input is treated as absent.
func ParseFloat(s string) *float64 {
	if s == NotAvailable || s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
