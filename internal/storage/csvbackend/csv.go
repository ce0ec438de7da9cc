package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/FranksOps/shopscout/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"region name",
	"shop id",
	"shop name",
	"latitude",
	"longitude",
	"star rating",
}

// Header returns a copy of the column names in file order.
func Header() []string {
	return append([]string(nil), headers...)
}

// Row renders a record in column order, with N/A for absent values.
func Row(r *storage.Record) []string {
	return []string{
		r.RegionName,
		storage.FormatString(r.PlaceID),
		storage.FormatString(r.Name),
		storage.FormatFloat(r.Lat),
		storage.FormatFloat(r.Lng),
		storage.FormatFloat(r.Rating),
	}
}

// New creates a new CSV-backed storage.Backend. The file is truncated unless
// appendMode is set; the header row is written whenever the file is empty.
func New(filePath string, appendMode bool) (storage.Backend, error) {
	flags := os.O_CREATE | os.O_RDWR
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv open %s: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csv stat %s: %w", filePath, err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csv header: %w", err)
		}
	}

	return &csvBackend{
		file: f,
	}, nil
}

// Save appends one row per record and flushes once, so a region's rows land together.
func (b *csvBackend) Save(ctx context.Context, records ...*storage.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row(r))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csv seek: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}

	return nil
}

// Query reads the file back in write order. The CSV layout carries neither
// run ID nor timestamp, so filter.RunID is ignored, Region matches the
// region name column, and Rank is reconstructed from row order within each
// contiguous block of a region.
func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csv seek: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	_, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return []*storage.Record{}, nil
		}
		return nil, fmt.Errorf("csv read header: %w", err)
	}

	filter.RunID = ""

	var (
		allFiltered []*storage.Record
		lastRegion  string
		rank        int
	)

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}

		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		if row[0] != lastRegion {
			lastRegion = row[0]
			rank = 0
		}
		rank++

		rec := &storage.Record{
			Region:     row[0],
			RegionName: row[0],
			Rank:       rank,
			PlaceID:    storage.ParseString(row[1]),
			Name:       storage.ParseString(row[2]),
			Lat:        storage.ParseFloat(row[3]),
			Lng:        storage.ParseFloat(row[4]),
			Rating:     storage.ParseFloat(row[5]),
		}

		if !filter.Matches(rec) {
			continue
		}
		allFiltered = append(allFiltered, rec)
	}

	return filter.Page(allFiltered), nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
