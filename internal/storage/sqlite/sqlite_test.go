package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/shopscout/internal/places"
	"github.com/FranksOps/shopscout/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestSQLiteBackend(t *testing.T) {
	// Use an in-memory database for testing
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	york := storage.NewRecords("run-1", "North York, Toronto, ON", []places.Match{
		{
			PlaceID:  ptr("ny1"),
			Name:     ptr("The Alley"),
			Location: places.Location{Lat: ptr(43.7615), Lng: ptr(-79.4111)},
			Rating:   ptr(4.4),
		},
		{PlaceID: ptr("ny2"), Location: places.Location{Lat: ptr(43.77)}},
	}, now)
	downtown := storage.NewRecords("run-2", "Downtown Toronto, ON", []places.Match{
		{PlaceID: ptr("dt1"), Rating: ptr(4.9)},
	}, now)

	if err := b.Save(ctx, york...); err != nil {
		t.Fatalf("Failed to save york: %v", err)
	}
	if err := b.Save(ctx, downtown...); err != nil {
		t.Fatalf("Failed to save downtown: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{Region: "North York"})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	got := results[0]
	want := york[0]
	if got.ID != want.ID {
		t.Errorf("Expected ID %s, got %s", want.ID, got.ID)
	}
	if got.Region != want.Region || got.RegionName != "North York" {
		t.Errorf("Expected region %s, got %s / %s", want.Region, got.Region, got.RegionName)
	}
	if got.Rank != 1 || results[1].Rank != 2 {
		t.Errorf("Expected ranks 1,2 got %d,%d", got.Rank, results[1].Rank)
	}
	if got.Name == nil || *got.Name != "The Alley" {
		t.Errorf("Expected name The Alley, got %v", got.Name)
	}
	if got.Lat == nil || *got.Lat != 43.7615 || got.Lng == nil || *got.Lng != -79.4111 {
		t.Errorf("Expected coordinates, got %v %v", got.Lat, got.Lng)
	}
	if got.Rating == nil || *got.Rating != 4.4 {
		t.Errorf("Expected rating 4.4, got %v", got.Rating)
	}
	if got.CreatedAt.Unix() != now.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", now, got.CreatedAt)
	}

	partial := results[1]
	if partial.Name != nil || partial.Rating != nil || partial.Lng != nil {
		t.Errorf("Expected NULL columns to scan as nil, got %+v", partial)
	}
	if partial.Lat == nil || *partial.Lat != 43.77 {
		t.Errorf("Expected lat 43.77, got %v", partial.Lat)
	}

	byRun, err := b.Query(ctx, storage.Filter{RunID: "run-2"})
	if err != nil {
		t.Fatalf("Failed to query by run: %v", err)
	}
	if len(byRun) != 1 || byRun[0].ID != downtown[0].ID {
		t.Fatalf("Expected only the run-2 record, got %+v", byRun)
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 2})
	if err != nil {
		t.Fatalf("Failed to query with offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != downtown[0].ID {
		t.Fatalf("Expected write-order offset to land on downtown, got %+v", offset)
	}

	limited, err := b.Query(ctx, storage.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != york[0].ID {
		t.Fatalf("Expected first york record, got %+v", limited)
	}
}

func TestSQLiteBackend_SaveIsAtomic(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	b, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	recs := storage.NewRecords("run-1", "York, Toronto, ON", []places.Match{
		{PlaceID: ptr("a")}, {PlaceID: ptr("b")},
	}, time.Now().UTC())
	// duplicate primary key on the second row forces the insert to fail midway
	recs[1].ID = recs[0].ID

	if err := b.Save(ctx, recs...); err == nil {
		t.Fatal("expected unique constraint error")
	}

	results, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected rollback to leave no rows, got %d", len(results))
	}
}
