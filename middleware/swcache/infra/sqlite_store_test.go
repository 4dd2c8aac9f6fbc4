package infra

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"image-gateway/middleware/swcache/domain"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_PutMatchOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	key := domain.RequestKey{Method: "GET", URL: "https://site/app.js"}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if _, ok, err := s.Match(ctx, "v1", key); err != nil || ok {
		t.Fatalf("expected empty miss, got ok=%v err=%v", ok, err)
	}

	err := s.Put(ctx, "v1", key, domain.Snapshot{
		Status:   200,
		Header:   map[string][]string{"Content-Type": {"text/javascript"}},
		Body:     []byte("one"),
		Type:     domain.ResponseBasic,
		StoredAt: at,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "v1", key, domain.Snapshot{Status: 200, Body: []byte("two"), Type: domain.ResponseCORS, StoredAt: at}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	snap, ok, err := s.Match(ctx, "v1", key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(snap.Body) != "two" || snap.Type != domain.ResponseCORS || snap.Status != 200 {
		t.Fatalf("expected overwritten snapshot, got %+v", snap)
	}
	if !snap.StoredAt.Equal(at) {
		t.Fatalf("expected stored_at %v, got %v", at, snap.StoredAt)
	}
}

func TestSQLiteStore_GenerationsAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	for i, g := range []string{"v2", "v1", "v2"} {
		key := domain.RequestKey{Method: "GET", URL: fmt.Sprintf("https://site/%s/%d", g, i)}
		if err := s.Put(ctx, g, key, domain.Snapshot{Status: 200}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	gens, err := s.Generations(ctx)
	if err != nil || len(gens) != 2 || gens[0] != "v1" || gens[1] != "v2" {
		t.Fatalf("expected [v1 v2], got %v err=%v", gens, err)
	}

	if err := s.DeleteGeneration(ctx, "v2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gens, _ = s.Generations(ctx)
	if len(gens) != 1 || gens[0] != "v1" {
		t.Fatalf("expected only v1 left, got %v", gens)
	}
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := OpenSQLiteStore("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
