package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/shopscout/internal/places"
	"github.com/FranksOps/shopscout/internal/storage"
	"github.com/google/uuid"
)

func ptr[T any](v T) *T { return &v }

func TestPostgresBackend(t *testing.T) {
	// Only run this test if SHOPSCOUT_TEST_PG_DSN is set
	dsn := os.Getenv("SHOPSCOUT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: SHOPSCOUT_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	// a fresh run ID keeps repeated test runs from seeing each other's rows
	runID := uuid.NewString()
	now := time.Now().UTC()

	records := storage.NewRecords(runID, "East York, Toronto, ON", []places.Match{
		{
			PlaceID:  ptr("ey1"),
			Name:     ptr("Presotea"),
			Location: places.Location{Lat: ptr(43.6896), Lng: ptr(-79.3301)},
			Rating:   ptr(4.3),
		},
		{PlaceID: ptr("ey2")},
	}, now)

	if err := b.Save(ctx, records...); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{RunID: runID})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	got := results[0]
	if got.ID != records[0].ID || got.Rank != 1 || got.RegionName != "East York" {
		t.Errorf("unexpected first record %+v", got)
	}
	if got.Name == nil || *got.Name != "Presotea" || got.Rating == nil || *got.Rating != 4.3 {
		t.Errorf("Expected name and rating to round-trip, got %+v", got)
	}
	// Postgres timestamps might differ slightly in sub-millisecond precision
	if got.CreatedAt.Unix() != now.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", now, got.CreatedAt)
	}
	if results[1].Name != nil || results[1].Lat != nil || results[1].Rating != nil {
		t.Errorf("Expected NULLs to scan as nil, got %+v", results[1])
	}

	byRegion, err := b.Query(ctx, storage.Filter{RunID: runID, Region: "East York", Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query by region: %v", err)
	}
	if len(byRegion) != 1 || byRegion[0].ID != records[1].ID {
		t.Fatalf("Expected second record, got %+v", byRegion)
	}
}
