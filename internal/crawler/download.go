package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kennygrant/sanitize"
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/pipeline"
)

// DocumentURL returns the URL of a simulation's HTML document.
func DocumentURL(baseURL string, ref model.SimulationRef) string {
	return strings.TrimRight(baseURL, "/") + "/sims/html/" + ref.ID + "/latest/" + ref.ID + "_" + ref.Language + ".html"
}

// ImageURL returns the URL of a simulation's screenshot at the given resolution.
func ImageURL(baseURL, id string, resolution int) string {
	return fmt.Sprintf("%s/sims/html/%s/latest/%s-%d.png", strings.TrimRight(baseURL, "/"), id, id, resolution)
}

// Targets derives the download list for a catalog: one document per
// simulation, then one image per distinct simulation id.
func Targets(baseURL string, sims []model.Simulation, resolution int) []model.DownloadTarget {
	targets := make([]model.DownloadTarget, 0, len(sims)*2)
	for _, sim := range sims {
		u := DocumentURL(baseURL, sim.Ref())
		targets = append(targets, model.DownloadTarget{
			Kind:     model.AssetDocument,
			URL:      u,
			FileName: FileName(u, 0),
		})
	}

	seen := make(map[string]bool, len(sims))
	for _, sim := range sims {
		if seen[sim.ID] {
			continue
		}
		seen[sim.ID] = true
		u := ImageURL(baseURL, sim.ID, resolution)
		targets = append(targets, model.DownloadTarget{
			Kind:     model.AssetImage,
			URL:      u,
			FileName: FileName(u, resolution),
		})
	}
	return targets
}

// FileName derives the stored file name from a URL's last path segment.
// When resolution is positive a trailing "-<resolution>" is removed from the
// stem, so "foo-600.png" is stored as "foo.png". Each underscore-separated
// part of the stem is sanitized on its own so the id/language split survives.
func FileName(rawURL string, resolution int) string {
	segment := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		segment = u.Path
	}
	segment = path.Base(segment)

	ext := path.Ext(segment)
	stem := strings.TrimSuffix(segment, ext)
	if resolution > 0 {
		stem = strings.TrimSuffix(stem, fmt.Sprintf("-%d", resolution))
	}

	parts := strings.Split(stem, "_")
	for i, p := range parts {
		parts[i] = sanitize.BaseName(p)
	}
	return strings.Join(parts, "_") + strings.ToLower(ext)
}

// Downloader fetches download targets into the fetch-stage directory.
type Downloader struct {
	fetcher  Fetcher
	dir      string
	workers  int
	logger   *slog.Logger
	reporter *log.Reporter
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(fetcher Fetcher, dir string, workers int, reporter *log.Reporter) *Downloader {
	if reporter == nil {
		reporter = log.NewReporter(nil, false)
	}
	return &Downloader{
		fetcher:  fetcher,
		dir:      dir,
		workers:  workers,
		logger:   reporter.Logger(),
		reporter: reporter,
	}
}

// DownloadAll fetches every target and returns one result per target, in
// input order. Failed downloads leave no file behind.
func (d *Downloader) DownloadAll(ctx context.Context, targets []model.DownloadTarget) []model.DownloadResult {
	results := pipeline.Run(ctx, d.workers, targets, d.download)

	out := make([]model.DownloadResult, len(results))
	for i, r := range results {
		out[i] = r.Value
		out[i].DownloadTarget = r.Item
		if r.Err == nil {
			continue
		}
		out[i].Error = r.Err.Error()
		if errors.Is(r.Err, ErrUnexpectedStatus) {
			d.logger.Warn("download returned unexpected status", "file", r.Item.FileName, "status", out[i].StatusCode)
		}
		d.reporter.Skip(string(r.Item.Kind), r.Item.FileName, r.Err)
	}
	return out
}

func (d *Downloader) download(ctx context.Context, target model.DownloadTarget) (model.DownloadResult, error) {
	dest := filepath.Join(d.dir, target.FileName)
	status, err := d.fetcher.Download(ctx, target.URL, dest)
	result := model.DownloadResult{DownloadTarget: target, StatusCode: status}
	if err != nil {
		return result, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return result, fmt.Errorf("downloaded file missing: %w", err)
	}
	result.Bytes = info.Size()
	d.logger.Debug("downloaded", "file", target.FileName, "bytes", result.Bytes)
	return result, nil
}
