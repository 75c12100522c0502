package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return s
}

func TestInsertAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	recs := []*Record{
		{
			Path:        "/src/a.py",
			StartedAt:   time.Now().Add(-2 * time.Minute),
			Duration:    120 * time.Millisecond,
			Succeeded:   true,
			BytesBefore: 100,
			BytesAfter:  98,
			Warnings:    []string{"formatter reported failure; kept pre-format content"},
		},
		{
			Path:        "/src/b.py",
			StartedAt:   time.Now().Add(-1 * time.Minute),
			Duration:    40 * time.Millisecond,
			Succeeded:   false,
			FailedStage: "rewrite",
			Error:       "structural rewrite: line 3: unbalanced brackets",
		},
	}
	for _, rec := range recs {
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", rec.Path, err)
		}
		if rec.ID == 0 {
			t.Errorf("Insert(%s) did not set ID", rec.Path)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(got))
	}

	// Newest first.
	if got[0].Path != "/src/b.py" {
		t.Errorf("Recent()[0].Path = %s, want /src/b.py", got[0].Path)
	}
	if got[0].Succeeded {
		t.Error("failed run round-tripped as succeeded")
	}
	if got[0].FailedStage != "rewrite" {
		t.Errorf("FailedStage = %q, want rewrite", got[0].FailedStage)
	}
	if got[1].Duration != 120*time.Millisecond {
		t.Errorf("Duration = %v, want 120ms", got[1].Duration)
	}
	if len(got[1].Warnings) != 1 {
		t.Errorf("Warnings = %v, want one entry", got[1].Warnings)
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := &Record{Path: "/src/a.py", StartedAt: time.Now(), Succeeded: true}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	got, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent(3) returned %d records", len(got))
	}
}

func TestRecentForPath(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, path := range []string{"/src/a.py", "/src/b.py", "/src/a.py"} {
		rec := &Record{Path: path, StartedAt: time.Now(), Succeeded: true}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	got, err := s.RecentForPath(ctx, "/src/a.py", 10)
	if err != nil {
		t.Fatalf("RecentForPath() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentForPath() returned %d records, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Path != "/src/a.py" {
			t.Errorf("record for wrong path: %s", rec.Path)
		}
	}
}

func TestGetStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	outcomes := []bool{true, true, false, true}
	for _, ok := range outcomes {
		rec := &Record{Path: "/src/a.py", StartedAt: time.Now(), Succeeded: ok}
		if err := s.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	st, err := s.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if st.Total != 4 || st.Succeeded != 3 || st.Failed != 1 {
		t.Errorf("GetStats() = %+v, want {4 3 1}", st)
	}
}

func TestGetStatsEmpty(t *testing.T) {
	s := openTestStore(t)

	st, err := s.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if st.Total != 0 || st.Succeeded != 0 || st.Failed != 0 {
		t.Errorf("GetStats() on empty store = %+v", st)
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := s.InitSchema(); err != nil {
		t.Errorf("second InitSchema() error = %v", err)
	}
}
