package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/pipeline"
)

// Detail page selectors.
const (
	downloadLinkSelector = ".sim-download"
	titleSelector        = ".simulation-main-title"
	topicsSelector       = ".sim-page-content ul"
	descriptionSelector  = ".simulation-panel-indent[itemprop]"
)

// Enricher turns discovered refs into catalog records by scraping each
// simulation's detail page and joining in its categories.
type Enricher struct {
	fetcher    Fetcher
	parser     markup.Parser
	categories CategoryLookup
	baseURL    string
	workers    int
	logger     *slog.Logger
	reporter   *log.Reporter
}

// NewEnricher creates an Enricher.
func NewEnricher(fetcher Fetcher, parser markup.Parser, categories CategoryLookup, baseURL string, workers int, reporter *log.Reporter) *Enricher {
	if reporter == nil {
		reporter = log.NewReporter(nil, false)
	}
	return &Enricher{
		fetcher:    fetcher,
		parser:     parser,
		categories: categories,
		baseURL:    strings.TrimRight(baseURL, "/"),
		workers:    workers,
		logger:     reporter.Logger(),
		reporter:   reporter,
	}
}

// Enrich scrapes every ref. A simulation whose page cannot be fetched or
// parsed is dropped and reported; it never aborts the batch. Records whose
// canonical identity duplicates an earlier one are dropped.
func (e *Enricher) Enrich(ctx context.Context, refs []model.SimulationRef) ([]model.Simulation, []model.Failure) {
	results := pipeline.Run(ctx, e.workers, refs, e.enrichOne)

	seen := make(map[model.SimulationRef]bool, len(results))
	sims := make([]model.Simulation, 0, len(results))
	var failures []model.Failure
	for _, r := range results {
		if r.Err != nil {
			e.reporter.Skip("simulation", r.Item.String(), r.Err)
			failures = append(failures, model.NewFailure(model.StageEnrich, r.Item.String(), r.Err))
			continue
		}
		if seen[r.Value.Ref()] {
			e.logger.Debug("duplicate simulation dropped", "simulation", r.Value.Ref().String(), "discovered_as", r.Item.String())
			continue
		}
		seen[r.Value.Ref()] = true
		sims = append(sims, r.Value)
	}
	return sims, failures
}

func (e *Enricher) enrichOne(ctx context.Context, ref model.SimulationRef) (model.Simulation, error) {
	body, err := e.fetcher.GetHTML(ctx, e.baseURL+"/"+ref.Language+"/simulation/"+ref.ID)
	if err != nil {
		return model.Simulation{}, err
	}
	doc, err := e.parser.Parse(strings.NewReader(body))
	if err != nil {
		return model.Simulation{}, err
	}

	canonical, err := canonicalRef(doc)
	if err != nil {
		return model.Simulation{}, err
	}
	if canonical != ref {
		e.logger.Debug("simulation identity differs from discovery", "discovered", ref.String(), "canonical", canonical.String())
	}

	sim := model.Simulation{
		ID:          canonical.ID,
		Language:    canonical.Language,
		Title:       firstText(doc, titleSelector),
		Description: firstText(doc, descriptionSelector),
		Topics:      splitLines(firstText(doc, topicsSelector)),
		Categories:  e.lookupCategories(ctx, canonical.ID),
	}
	return sim, nil
}

// lookupCategories returns the deduplicated categories of slug. A failed
// tree build is logged and treated as no categories.
func (e *Enricher) lookupCategories(ctx context.Context, slug string) []string {
	categories := make([]string, 0)
	if e.categories == nil {
		return categories
	}

	found, err := e.categories.Categories(ctx, slug)
	if err != nil {
		if e.reporter.Verbose() {
			e.logger.Warn("category lookup failed", "simulation", slug, "error", err)
		} else {
			e.logger.Warn("category lookup failed", "simulation", slug)
		}
		return categories
	}

	seen := make(map[string]bool, len(found))
	for _, c := range found {
		if !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	return categories
}

// canonicalRef reads the page's own identity from its download link.
func canonicalRef(doc markup.Document) (model.SimulationRef, error) {
	link, ok := doc.First(downloadLinkSelector)
	if !ok {
		return model.SimulationRef{}, ErrMissingDownloadLink
	}
	href, _ := link.Attr("href")
	ref, ok := model.ParseSimulationRef(href)
	if !ok {
		return model.SimulationRef{}, fmt.Errorf("%w: unrecognized href %q", ErrMissingDownloadLink, href)
	}
	return ref, nil
}

func firstText(doc markup.Document, selector string) string {
	n, ok := doc.First(selector)
	if !ok {
		return ""
	}
	return strings.TrimSpace(n.Text())
}

// splitLines splits text into trimmed, non-empty lines.
func splitLines(text string) []string {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
