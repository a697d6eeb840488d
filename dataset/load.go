package dataset

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Load reads and parses the dataset at path. A missing file fails with
// ErrNotFound; callers must not continue without a table.
func Load(ctx context.Context, src Source, path string) (*Table, error) {
	if src == nil {
		src = FileSource{}
	}
	modTime, err := src.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	return load(ctx, src, path, modTime)
}

func load(ctx context.Context, src Source, path string, modTime time.Time) (*Table, error) {
	rc, err := src.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	start := time.Now()
	t, err := ParseCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	t.Path = path
	t.ModTime = modTime
	t.LoadedAt = time.Now()

	log.Printf("📥 Loaded %d records from %s in %v", t.Len(), path, time.Since(start).Round(time.Millisecond))
	return t, nil
}
