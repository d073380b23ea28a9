package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/phetcrawl/internal/config"
	"github.com/nao1215/phetcrawl/internal/model"
)

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	srv := newSiteServer(t, map[string]string{
		"/en/simulations/category/physics/index": listingPage("balloons", "projectile-motion"),
		"/en/simulations/category/math/index":    listingPage("projectile-motion"),
		"/en/offline-access":                     offlinePage("projectile-motion_en.html", "balloons_en.html", "gone_en.html"),
		"/en/simulation/balloons":                detailPage("balloons", "en", "Balloons", "Static", "Charge"),
		"/en/simulation/projectile-motion":       detailPage("projectile-motion", "en", "Projectile Motion", "Cannons", "Vectors"),
		"/sims/html/balloons/latest/balloons_en.html":                   "<html>balloons</html>",
		"/sims/html/balloons/latest/balloons-600.png":                   "png-b",
		"/sims/html/projectile-motion/latest/projectile-motion_en.html": "<html>pm</html>",
	})

	cfg := config.NewConfig()
	cfg.BaseURL = srv.URL
	cfg.Categories = []string{"Physics", "Math"}
	cfg.StateDir = t.TempDir()
	cfg.CategoryRate = 0

	result, err := New(cfg).Crawl(context.Background())
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	gotIDs := make([]string, 0, len(result.Catalog))
	for _, s := range result.Catalog {
		gotIDs = append(gotIDs, s.ID)
	}
	if diff := cmp.Diff([]string{"balloons", "projectile-motion"}, gotIDs); diff != "" {
		t.Errorf("catalog ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Physics", "Math"}, result.Catalog[1].Categories); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	if result.CatalogPath != cfg.CatalogPath() {
		t.Errorf("CatalogPath = %q, want %q", result.CatalogPath, cfg.CatalogPath())
	}
	written, err := ReadCatalog(cfg.CatalogPath())
	if err != nil {
		t.Fatalf("ReadCatalog() error = %v", err)
	}
	if diff := cmp.Diff(result.Catalog, written); diff != "" {
		t.Errorf("written catalog mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"balloons_en.html", "balloons.png", "projectile-motion_en.html"} {
		if _, err := os.Stat(filepath.Join(cfg.FetchDir(), name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.FetchDir(), "projectile-motion.png")); !os.IsNotExist(err) {
		t.Errorf("failed image download left a file behind: %v", err)
	}

	stages := make(map[model.Stage]int)
	for _, f := range result.Failures {
		stages[f.Stage]++
	}
	if diff := cmp.Diff(map[model.Stage]int{model.StageEnrich: 1, model.StageDownload: 1}, stages); diff != "" {
		t.Errorf("failure stages mismatch (-want +got):\n%s", diff)
	}
	if len(result.FailedDownloads()) != 1 {
		t.Errorf("FailedDownloads() = %d, want 1", len(result.FailedDownloads()))
	}
}
