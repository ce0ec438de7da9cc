package jsonbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/shopscout/internal/places"
	"github.com/FranksOps/shopscout/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestJSONBackend(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "shops.ndjson")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create JSON backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond).UTC()

	run1 := storage.NewRecords("run-1", "Scarborough, Toronto, ON", []places.Match{
		{PlaceID: ptr("s1"), Name: ptr("Boba Box"), Rating: ptr(4.8),
			Location: places.Location{Lat: ptr(43.77), Lng: ptr(-79.25)}},
		{PlaceID: ptr("s2")},
	}, now)
	run2 := storage.NewRecords("run-2", "Scarborough, Toronto, ON", []places.Match{
		{PlaceID: ptr("s3"), Rating: ptr(0.0)},
	}, now.Add(time.Hour))

	if err := b.Save(ctx, run1...); err != nil {
		t.Fatalf("Failed to save run 1: %v", err)
	}
	if err := b.Save(ctx, run2...); err != nil {
		t.Fatalf("Failed to save run 2: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(all))
	}

	got := all[0]
	if got.ID != run1[0].ID || got.RunID != "run-1" || got.RegionName != "Scarborough" || got.Rank != 1 {
		t.Errorf("unexpected first record %+v", got)
	}
	if *got.Lat != 43.77 || *got.Lng != -79.25 || *got.Rating != 4.8 {
		t.Errorf("coordinates or rating lost: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("Expected CreatedAt %v, got %v", now, got.CreatedAt)
	}
	if all[1].Name != nil || all[1].Rating != nil {
		t.Errorf("expected absent fields to stay absent, got %+v", all[1])
	}
	if all[2].Rating == nil || *all[2].Rating != 0 {
		t.Errorf("expected explicit zero rating to survive")
	}

	byRun, err := b.Query(ctx, storage.Filter{RunID: "run-2"})
	if err != nil {
		t.Fatalf("Failed to query by run: %v", err)
	}
	if len(byRun) != 1 || byRun[0].ID != run2[0].ID {
		t.Errorf("expected only run-2 record, got %+v", byRun)
	}

	byRegion, err := b.Query(ctx, storage.Filter{Region: "Scarborough", Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query by region: %v", err)
	}
	if len(byRegion) != 1 || byRegion[0].ID != run1[1].ID {
		t.Errorf("expected second Scarborough record, got %+v", byRegion)
	}
}
