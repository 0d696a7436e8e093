package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/stubreport/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SnapshotDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

// newTestRegistry builds a registry or fails the test.
func newTestRegistry(t *testing.T, name string, paths ...string) *model.Registry {
	t.Helper()

	entities := make([]model.Entity, len(paths))
	for i, p := range paths {
		entities[i] = model.Entity{
			Path: p,
			Type: model.TypeClass,
			Tags: map[string]string{model.VersionTagName: "SketchUp 2017"},
		}
	}
	reg, err := model.NewRegistry(name, entities)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return reg
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "nested", "db")
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dir, DBFileName)); err != nil {
			t.Errorf("expected database file to exist: %v", err)
		}
		if db.Path() != filepath.Join(dir, DBFileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, _, err := db.SaveSnapshot(context.Background(), newTestRegistry(t, "api", "A")); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		_ = db.Close()

		db2, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db2.Close()

		names, err := db2.ListRegistryNames(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(names) != 1 || names[0] != "api" {
			t.Errorf("expected [api], got %v", names)
		}
	})
}

// TestDefaultOptions tests default database options.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true")
	}
}

// TestFingerprint tests snapshot fingerprinting.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := newTestRegistry(t, "api", "B", "A")
	b := newTestRegistry(t, "api", "A", "B")
	c := newTestRegistry(t, "api", "A", "C")

	fa, _, err := Fingerprint(a.Snapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fb, _, _ := Fingerprint(b.Snapshot())
	fc, _, _ := Fingerprint(c.Snapshot())

	if fa != fb {
		t.Error("expected input order not to affect the fingerprint")
	}
	if fa == fc {
		t.Error("expected different registries to have different fingerprints")
	}
	if len(fa) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(fa))
	}
}

// TestSaveSnapshot tests snapshot storage and de-duplication.
func TestSaveSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("skips unchanged registry", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		id1, inserted, err := db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A"))
		if err != nil || !inserted {
			t.Fatalf("expected first save to insert, got inserted=%v err=%v", inserted, err)
		}

		id2, inserted, err := db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inserted {
			t.Error("expected unchanged registry not to be inserted")
		}
		if id2 != id1 {
			t.Errorf("expected existing id %d, got %d", id1, id2)
		}
	})

	t.Run("stores changed registry", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		id1, _, _ := db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A"))
		id2, inserted, err := db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A", "B"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !inserted || id2 == id1 {
			t.Errorf("expected a new snapshot, got id=%d inserted=%v", id2, inserted)
		}
	})

	t.Run("same contents under another name is stored", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		_, _, _ = db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A"))
		_, inserted, err := db.SaveSnapshot(ctx, newTestRegistry(t, "other", "A"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !inserted {
			t.Error("expected snapshot under a different name to be inserted")
		}
	})

	t.Run("concurrent saves of the same registry insert once", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		const workers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserts  int
			firstErr error
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reg, err := model.NewRegistry("api", []model.Entity{{Path: "A", Type: model.TypeClass}})
				if err == nil {
					var inserted bool
					_, inserted, err = db.SaveSnapshot(ctx, reg)
					mu.Lock()
					if inserted {
						inserts++
					}
					mu.Unlock()
				}
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if firstErr != nil {
			t.Fatalf("unexpected error: %v", firstErr)
		}
		if inserts != 1 {
			t.Errorf("expected exactly one insert, got %d", inserts)
		}
		records, err := db.ListSnapshots(ctx, "api")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected one stored snapshot, got %d", len(records))
		}
	})
}

// TestLatestSnapshots tests retrieval order and round-tripping.
func TestLatestSnapshots(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, paths := range [][]string{{"A"}, {"A", "B"}, {"B", "C"}} {
		if _, _, err := db.SaveSnapshot(ctx, newTestRegistry(t, "api", paths...)); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
	}

	t.Run("returns newest first", func(t *testing.T) {
		t.Parallel()

		snaps, err := db.LatestSnapshots(ctx, "api", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snaps) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(snaps))
		}
		if snaps[0].ID <= snaps[1].ID {
			t.Errorf("expected newest first, got ids %d, %d", snaps[0].ID, snaps[1].ID)
		}
		if snaps[0].EntityCount != 2 || snaps[0].Timestamp.IsZero() {
			t.Errorf("unexpected record: %+v", snaps[0].SnapshotRecord)
		}

		reg, err := snaps[0].Registry()
		if err != nil {
			t.Fatalf("failed to rebuild registry: %v", err)
		}
		if _, ok := reg.Lookup("C"); !ok {
			t.Error("expected rebuilt registry to contain C")
		}
		if reg.Name() != "api" {
			t.Errorf("expected name api, got %s", reg.Name())
		}
	})

	t.Run("unknown name returns nothing", func(t *testing.T) {
		t.Parallel()

		snaps, err := db.LatestSnapshots(ctx, "missing", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snaps) != 0 {
			t.Errorf("expected no snapshots, got %d", len(snaps))
		}
	})

	t.Run("list snapshots returns metadata", func(t *testing.T) {
		t.Parallel()

		recs, err := db.ListSnapshots(ctx, "api")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 3 {
			t.Fatalf("expected 3 records, got %d", len(recs))
		}
		if recs[2].EntityCount != 1 {
			t.Errorf("expected oldest snapshot to hold 1 entity, got %d", recs[2].EntityCount)
		}
	})
}

// TestGetSnapshotByID tests lookup by ID.
func TestGetSnapshotByID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return fixed }

	id, _, err := db.SaveSnapshot(ctx, newTestRegistry(t, "api", "A", "B"))
	if err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	t.Run("returns stored snapshot", func(t *testing.T) {
		t.Parallel()

		s, err := db.GetSnapshotByID(ctx, id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Name != "api" || len(s.Snapshot.Entities) != 2 {
			t.Errorf("unexpected snapshot: %+v", s.SnapshotRecord)
		}
		if !s.Timestamp.Equal(fixed) {
			t.Errorf("expected timestamp %v, got %v", fixed, s.Timestamp)
		}
	})

	t.Run("missing id returns ErrSnapshotNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := db.GetSnapshotByID(ctx, id+100)
		if !errors.Is(err, ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})
}

// TestParseTimestamp tests timestamp parsing fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "RFC3339Nano", input: "2026-03-01T12:00:00.123456789Z"},
		{name: "SQLite default", input: "2026-03-01 12:00:00"},
		{name: "ISO without zone", input: "2026-03-01T12:00:00"},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
