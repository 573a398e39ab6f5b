package settings

import (
	"context"
	"path/filepath"
	"testing"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadBackfillsDefaults(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FindCount != DefaultFindCount || got.NSFW != DefaultNSFW {
		t.Fatalf("fresh store must yield defaults, got %+v", got)
	}

	// 2nd load reads the backfilled rows, same values
	again, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != got {
		t.Fatalf("reload diverged: %+v vs %+v", again, got)
	}
}

func TestLoadDoesNotOverwritePresentKeys(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	// only nsfw present; findCount should be backfilled, nsfw kept
	if err := s.put(ctx, keyNSFW, "true"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.NSFW {
		t.Error("present key must survive the backfill")
	}
	if got.FindCount != DefaultFindCount {
		t.Errorf("missing key must be backfilled, got %d", got.FindCount)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	if err := s.Save(ctx, Settings{FindCount: 25, NSFW: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.FindCount != 25 || !got.NSFW {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestSaveRejectsNonPositiveFindCount(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	if err := s.Save(ctx, Settings{FindCount: 0}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := s.Load(ctx)
	if got.FindCount != DefaultFindCount {
		t.Fatalf("findCount 0 must fall back to the default, got %d", got.FindCount)
	}
}

func TestImportHistory(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	for _, st := range []string{"imported", "rejected", "imported"} {
		if err := s.RecordImport(ctx, "alice/elf", "elf.png", "character", st); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	recs, err := s.RecentImports(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("limit ignored, got %d records", len(recs))
	}
	if recs[0].Status != "imported" || recs[1].Status != "rejected" {
		t.Errorf("expected newest first, got %+v", recs)
	}
}
