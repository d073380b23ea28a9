package crawler

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/pipeline"
)

// offlineLinkSelector selects download links in the HTML5 section of the
// offline-access page.
const offlineLinkSelector = ".oa-html5 > a"

// Discoverer lists the simulations offered for offline download per language.
type Discoverer struct {
	fetcher Fetcher
	parser  markup.Parser
	baseURL string
	workers  int
	logger   *slog.Logger
	reporter *log.Reporter
}

// NewDiscoverer creates a Discoverer. A nil reporter means a terse reporter
// on slog.Default().
func NewDiscoverer(fetcher Fetcher, parser markup.Parser, baseURL string, workers int, reporter *log.Reporter) *Discoverer {
	if reporter == nil {
		reporter = log.NewReporter(nil, false)
	}
	return &Discoverer{
		fetcher:  fetcher,
		parser:   parser,
		baseURL:  strings.TrimRight(baseURL, "/"),
		workers:  workers,
		logger:   reporter.Logger(),
		reporter: reporter,
	}
}

// Discover fetches the offline-access page of every language and returns
// the simulations found, in language order. A language whose page cannot be
// fetched is reported in the failures and does not stop the others.
func (d *Discoverer) Discover(ctx context.Context, languages []string) ([]model.SimulationRef, []model.Failure) {
	results := pipeline.Run(ctx, d.workers, languages, d.discoverLanguage)

	var refs []model.SimulationRef
	var failures []model.Failure
	for _, r := range results {
		if r.Err != nil {
			d.reporter.Skip("language", r.Item, r.Err)
			failures = append(failures, model.NewFailure(model.StageDiscover, r.Item, r.Err))
			continue
		}
		d.logger.Info("discovered simulations", "language", r.Item, "count", len(r.Value))
		refs = append(refs, r.Value...)
	}
	return refs, failures
}

// discoverLanguage returns the refs linked from one offline-access page.
// Links whose file name carries a different language are ignored.
func (d *Discoverer) discoverLanguage(ctx context.Context, lang string) ([]model.SimulationRef, error) {
	body, err := d.fetcher.GetHTML(ctx, d.baseURL+"/"+lang+"/offline-access")
	if err != nil {
		return nil, err
	}
	doc, err := d.parser.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := make(map[model.SimulationRef]bool)
	refs := make([]model.SimulationRef, 0)
	for _, link := range doc.Find(offlineLinkSelector) {
		href, ok := link.Attr("href")
		if !ok {
			continue
		}
		ref, ok := model.ParseSimulationRef(href)
		if !ok || ref.Language != lang || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs, nil
}
