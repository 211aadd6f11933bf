package canc_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperengineering/canc"
)

func newTestStore(t *testing.T) *canc.Store {
	t.Helper()
	s, err := canc.NewStore(filepath.Join(t.TempDir(), "models", "test", "canc.db"))
	if err != nil {
		t.Fatalf("NewStore() returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testModel(records int) canc.Model {
	return canc.Model{
		Version: canc.ExportVersion,
		Variant: canc.VariantPertinentAllValues,
		Stats:   canc.Stats{RecordsSeen: records},
		Labels:  []string{"no", "yes"},
		Concepts: []canc.Concept{{
			Extent: canc.NewExtent(0, 2),
			Intent: []canc.Pair{{Attribute: "sky", Value: "sunny"}},
		}},
		Rules: []canc.Rule{{
			Conditions: []canc.Pair{{Attribute: "sky", Value: "sunny"}},
			Label:      "no",
			Premise:    2,
			TruePos:    1,
		}},
	}
}

func TestStore_SaveAndGetSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	info, err := s.SaveSnapshot(ctx, testModel(3), "first")
	if err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}
	if info.ID == "" {
		t.Fatal("SaveSnapshot() returned empty ID")
	}
	if info.RuleCount != 1 || info.ConceptCount != 1 || info.RecordsSeen != 3 {
		t.Errorf("SaveSnapshot() info = %+v", info)
	}

	m, got, err := s.GetSnapshot(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSnapshot() returned error: %v", err)
	}
	if got.Label != "first" {
		t.Errorf("Label = %q, want first", got.Label)
	}
	if len(m.Rules) != 1 || m.Rules[0].Label != "no" || m.Rules[0].Premise != 2 {
		t.Errorf("GetSnapshot() rules = %+v", m.Rules)
	}
}

func TestStore_LatestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, _, err := s.LatestSnapshot(ctx); !errors.Is(err, canc.ErrSnapshotNotFound) {
		t.Fatalf("LatestSnapshot() on empty store = %v, want ErrSnapshotNotFound", err)
	}

	for i := 1; i <= 3; i++ {
		if _, err := s.SaveSnapshot(ctx, testModel(i), ""); err != nil {
			t.Fatalf("SaveSnapshot() returned error: %v", err)
		}
	}

	m, _, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot() returned error: %v", err)
	}
	if m.Stats.RecordsSeen != 3 {
		t.Errorf("LatestSnapshot() RecordsSeen = %d, want 3", m.Stats.RecordsSeen)
	}

	list, err := s.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("ListSnapshots() returned error: %v", err)
	}
	if len(list) != 2 || list[0].RecordsSeen != 3 || list[1].RecordsSeen != 2 {
		t.Errorf("ListSnapshots(2) = %+v, want newest two", list)
	}
}

func TestStore_DeleteSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	info, err := s.SaveSnapshot(ctx, testModel(1), "")
	if err != nil {
		t.Fatalf("SaveSnapshot() returned error: %v", err)
	}
	if err := s.DeleteSnapshot(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSnapshot() returned error: %v", err)
	}
	if err := s.DeleteSnapshot(ctx, info.ID); !errors.Is(err, canc.ErrSnapshotNotFound) {
		t.Errorf("second DeleteSnapshot() = %v, want ErrSnapshotNotFound", err)
	}
	if _, _, err := s.GetSnapshot(ctx, info.ID); !errors.Is(err, canc.ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot() after delete = %v, want ErrSnapshotNotFound", err)
	}
}

func TestStore_Metadata(t *testing.T) {
	s := newTestStore(t)

	if desc, err := s.Description(); err != nil || desc != "" {
		t.Errorf("Description() = %q, %v; want empty", desc, err)
	}
	if err := s.SetDescription("weather stream"); err != nil {
		t.Fatalf("SetDescription() returned error: %v", err)
	}
	if desc, _ := s.Description(); desc != "weather stream" {
		t.Errorf("Description() = %q, want %q", desc, "weather stream")
	}
	if v, _ := s.GetMetadata("schema_version"); v == "" {
		t.Error("schema_version metadata not set")
	}
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.SaveSnapshot(ctx, testModel(1), ""); err != nil {
		t.Fatal(err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() returned error: %v", err)
	}
	if stats.SnapshotCount != 1 {
		t.Errorf("SnapshotCount = %d, want 1", stats.SnapshotCount)
	}
	if stats.LastSnapshot.IsZero() {
		t.Error("LastSnapshot is zero")
	}
	if stats.Path != s.Path() {
		t.Errorf("Path = %q, want %q", stats.Path, s.Path())
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "canc.db")

	s, err := canc.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveSnapshot(ctx, testModel(7), ""); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = canc.NewStore(path)
	if err != nil {
		t.Fatalf("reopening store returned error: %v", err)
	}
	defer s.Close()
	m, _, err := s.LatestSnapshot(ctx)
	if err != nil || m.Stats.RecordsSeen != 7 {
		t.Errorf("LatestSnapshot() after reopen = %+v, %v", m, err)
	}
}

func TestStore_Closed(t *testing.T) {
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}
	if _, err := s.SaveSnapshot(context.Background(), testModel(1), ""); !errors.Is(err, canc.ErrClosed) {
		t.Errorf("SaveSnapshot() after Close = %v, want ErrClosed", err)
	}
}
