package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/phetcrawl/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CatalogDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(started time.Time, sims ...model.Simulation) *CrawlRun {
	return &CrawlRun{
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Languages:  []string{"en", "es"},
		Catalog:    sims,
		Downloads: []model.DownloadResult{
			{DownloadTarget: model.DownloadTarget{Kind: model.AssetDocument, URL: "https://h/a_en.html", FileName: "a_en.html"}, StatusCode: 200, Bytes: 10},
			{DownloadTarget: model.DownloadTarget{Kind: model.AssetImage, URL: "https://h/a-600.png", FileName: "a.png"}, StatusCode: 404, Error: "unexpected HTTP status 404"},
		},
		Failures: 2,
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveCrawlRun(context.Background(), sampleRun(time.Now())); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()

		runs, err := db.ListRuns(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 {
			t.Errorf("got %d runs after reopen, want 1", len(runs))
		}
	})
}

func TestSaveCrawlRun(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sims := []model.Simulation{
		{ID: "b", Language: "es", Title: "B", Description: "d", Topics: []string{"t1"}, Categories: []string{"Physics"}},
		{ID: "a", Language: "en", Title: "A", Topics: nil, Categories: []string{}},
	}
	id, err := db.SaveCrawlRun(ctx, sampleRun(started, sims...))
	if err != nil {
		t.Fatalf("SaveCrawlRun() error = %v", err)
	}

	run, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	want := &RunRecord{
		ID:              id,
		StartedAt:       started,
		FinishedAt:      started.Add(time.Minute),
		Languages:       []string{"en", "es"},
		Simulations:     2,
		Downloads:       2,
		FailedDownloads: 1,
		Failures:        2,
	}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}

	catalog, err := db.GetCatalog(ctx, id)
	if err != nil {
		t.Fatalf("GetCatalog() error = %v", err)
	}
	wantCatalog := []model.Simulation{
		{ID: "a", Language: "en", Title: "A", Topics: []string{}, Categories: []string{}},
		{ID: "b", Language: "es", Title: "B", Description: "d", Topics: []string{"t1"}, Categories: []string{"Physics"}},
	}
	if diff := cmp.Diff(wantCatalog, catalog); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}

	failures, err := db.GetDownloadFailures(ctx, id)
	if err != nil {
		t.Fatalf("GetDownloadFailures() error = %v", err)
	}
	if len(failures) != 1 || failures[0].FileName != "a.png" || failures[0].StatusCode != 404 || failures[0].Kind != model.AssetImage {
		t.Errorf("failures = %+v", failures)
	}
}

func TestSaveCrawlRun_DuplicateSimulationRollsBack(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	dup := model.Simulation{ID: "a", Language: "en"}
	if _, err := db.SaveCrawlRun(ctx, sampleRun(time.Now(), dup, dup)); err == nil {
		t.Fatal("expected an error for a duplicate simulation")
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("failed run was stored: %+v", runs)
	}
}

func TestLatestRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := db.SaveCrawlRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour)))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	latest, err := db.LatestRuns(ctx, 2)
	if err != nil {
		t.Fatalf("LatestRuns() error = %v", err)
	}
	if len(latest) != 2 || latest[0].ID != ids[2] || latest[1].ID != ids[1] {
		t.Errorf("LatestRuns(2) = %+v, want runs %d and %d", latest, ids[2], ids[1])
	}

	all, err := db.ListRuns(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ListRuns() returned %d runs, want 3", len(all))
	}

	missing, err := db.GetRun(ctx, 999)
	if err != nil || missing != nil {
		t.Errorf("GetRun(999) = %+v, %v; want nil, nil", missing, err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{in: "2026-03-01T12:00:00Z", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{in: "2026-03-01 12:00:00", want: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{in: "garbage", want: time.Time{}},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
