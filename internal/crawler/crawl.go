package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/phetcrawl/internal/config"
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/model"
)

// Result is the outcome of one crawl stage run.
type Result struct {
	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl ended.
	FinishedAt time.Time `json:"finished_at"`

	// Languages are the languages that were crawled.
	Languages []string `json:"languages"`

	// Catalog is the enriched catalog, sorted by language then id.
	Catalog []model.Simulation `json:"catalog"`

	// CatalogPath is where the catalog was written. Empty if the write failed.
	CatalogPath string `json:"catalog_path,omitempty"`

	// Downloads holds one result per download target.
	Downloads []model.DownloadResult `json:"downloads"`

	// Failures lists every item dropped during the crawl.
	Failures []model.Failure `json:"failures"`
}

// FailedDownloads returns the downloads that did not succeed.
func (r *Result) FailedDownloads() []model.DownloadResult {
	failed := make([]model.DownloadResult, 0)
	for _, d := range r.Downloads {
		if !d.OK() {
			failed = append(failed, d)
		}
	}
	return failed
}

// Crawler runs the crawl stage: discover, enrich, write the catalog, and
// download every document and image into the fetch-stage directory.
type Crawler struct {
	cfg      *config.Config
	fetcher  Fetcher
	parser   markup.Parser
	tree     CategoryLookup
	logger   *slog.Logger
	reporter *log.Reporter
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithFetcher replaces the HTTP client.
func WithFetcher(f Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// WithParser replaces the HTML parser.
func WithParser(p markup.Parser) Option {
	return func(c *Crawler) {
		c.parser = p
	}
}

// WithCategoryLookup replaces the category tree.
func WithCategoryLookup(l CategoryLookup) Option {
	return func(c *Crawler) {
		c.tree = l
	}
}

// WithReporter sets the failure reporter and, through it, the logger.
func WithReporter(r *log.Reporter) Option {
	return func(c *Crawler) {
		c.reporter = r
	}
}

// New creates a Crawler for cfg.
func New(cfg *config.Config, opts ...Option) *Crawler {
	c := &Crawler{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.reporter == nil {
		c.reporter = log.NewReporter(nil, cfg.Verbose)
	}
	c.logger = c.reporter.Logger()
	if c.fetcher == nil {
		c.fetcher = NewClient(WithTimeout(cfg.Timeout), WithUserAgent(cfg.UserAgent))
	}
	if c.parser == nil {
		c.parser = markup.NewParser()
	}
	if c.tree == nil {
		c.tree = NewCategoryTree(c.fetcher, c.parser, cfg.BaseURL, cfg.Categories,
			WithCategoryWorkers(cfg.CategoryWorkers),
			WithCategoryRate(cfg.CategoryRate),
			WithCategoryReporter(c.reporter),
		)
	}
	return c
}

// Crawl runs the stage. Per-item failures are recorded in the Result; an
// error is returned only when the fetch-stage directory cannot be created.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	result := &Result{
		StartedAt: time.Now(),
		Languages: c.cfg.Languages,
	}

	dir := c.cfg.FetchDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create fetch directory: %w", err)
	}

	discoverer := NewDiscoverer(c.fetcher, c.parser, c.cfg.BaseURL, c.cfg.Workers, c.reporter)
	refs, failures := discoverer.Discover(ctx, c.cfg.Languages)
	result.Failures = append(result.Failures, failures...)

	enricher := NewEnricher(c.fetcher, c.parser, c.tree, c.cfg.BaseURL, c.cfg.Workers, c.reporter)
	sims, failures := enricher.Enrich(ctx, refs)
	result.Failures = append(result.Failures, failures...)

	model.SortSimulations(sims)
	result.Catalog = sims
	c.logger.Info("catalog enriched", "simulations", len(sims))

	catalogPath := c.cfg.CatalogPath()
	if err := WriteCatalog(catalogPath, sims); err != nil {
		c.reporter.Skip("catalog", catalogPath, err)
		result.Failures = append(result.Failures, model.NewFailure(model.StageCatalog, catalogPath, err))
	} else {
		result.CatalogPath = catalogPath
	}

	targets := Targets(c.cfg.BaseURL, sims, c.cfg.ImageResolution)
	c.logger.Info("downloading assets", "files", len(targets))
	downloader := NewDownloader(c.fetcher, dir, c.cfg.Workers, c.reporter)
	result.Downloads = downloader.DownloadAll(ctx, targets)
	for _, d := range result.FailedDownloads() {
		result.Failures = append(result.Failures, model.Failure{Stage: model.StageDownload, Subject: d.URL, Error: d.Error})
	}

	result.FinishedAt = time.Now()
	return result, nil
}
