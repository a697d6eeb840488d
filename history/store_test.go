package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	for i, q := range []string{"top 3 adult", "youth districts", "pincode gaps"} {
		_, err := store.Record(ctx, Entry{
			AskedAt:  base.Add(time.Duration(i) * time.Minute),
			Query:    q,
			Source:   "keyword",
			Fallback: i == 1,
			Topic:    "total",
			Level:    "state",
			TopN:     5,
			Panels:   1,
			Duration: 42 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("record %q: %v", q, err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Query != "pincode gaps" || entries[1].Query != "youth districts" {
		t.Errorf("order: %q, %q", entries[0].Query, entries[1].Query)
	}
	if !entries[1].Fallback || entries[0].Fallback {
		t.Error("fallback flag not round-tripped")
	}
	if entries[0].ID == "" || !entries[0].AskedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[0].Duration != 42*time.Millisecond {
		t.Errorf("duration: %v", entries[0].Duration)
	}
}

func TestRecordRequiresQuery(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Record(context.Background(), Entry{Query: "  "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if _, err := store.Record(context.Background(), Entry{Query: "q"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entries, err := store.Recent(context.Background(), 0)
	if err != nil || len(entries) != 1 {
		t.Fatalf("recent: %v %v", entries, err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
