package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/pipeline"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// categoryLinkSelector selects simulation links on a category listing page.
const categoryLinkSelector = ".simulation-index a"

// CategoryLookup returns the category titles a simulation slug was listed under.
type CategoryLookup interface {
	Categories(ctx context.Context, slug string) ([]string, error)
}

// CategoryTree maps simulation slugs to the category titles they are listed
// under. It is built lazily on the first lookup by fetching one listing page
// per configured category.
//
// Concurrent first lookups share a single build. A build in which at least
// one listing was fetched is kept for the lifetime of the tree. A build in
// which every listing failed returns ErrCategoryTreeEmpty and is not kept,
// so the next lookup starts a new build.
type CategoryTree struct {
	fetcher    Fetcher
	parser     markup.Parser
	baseURL    string
	categories []string
	workers    int
	limiter    *rate.Limiter
	logger     *slog.Logger
	reporter   *log.Reporter

	group singleflight.Group

	// mu guards tree.
	mu sync.RWMutex
	// tree is nil until a build succeeds.
	tree map[string][]string
}

// CategoryOption configures a CategoryTree.
type CategoryOption func(*CategoryTree)

// WithCategoryWorkers sets how many listing pages are fetched at once.
func WithCategoryWorkers(n int) CategoryOption {
	return func(t *CategoryTree) {
		t.workers = n
	}
}

// WithCategoryRate caps listing requests per second. Zero or less disables the limit.
func WithCategoryRate(perSecond float64) CategoryOption {
	return func(t *CategoryTree) {
		if perSecond <= 0 {
			t.limiter = nil
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithCategoryReporter sets the failure reporter and, through it, the logger.
func WithCategoryReporter(r *log.Reporter) CategoryOption {
	return func(t *CategoryTree) {
		t.reporter = r
	}
}

// NewCategoryTree creates an unbuilt CategoryTree for the given category titles.
func NewCategoryTree(fetcher Fetcher, parser markup.Parser, baseURL string, categories []string, opts ...CategoryOption) *CategoryTree {
	t := &CategoryTree{
		fetcher:    fetcher,
		parser:     parser,
		baseURL:    strings.TrimRight(baseURL, "/"),
		categories: slices.Clone(categories),
		workers:    2,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.reporter == nil {
		t.reporter = log.NewReporter(nil, false)
	}
	t.logger = t.reporter.Logger()
	return t
}

// Categories returns the category titles slug was listed under, building the
// tree first if needed. An unknown slug yields an empty slice and no error.
// An error is returned only when the tree could not be built.
func (t *CategoryTree) Categories(ctx context.Context, slug string) ([]string, error) {
	tree, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(tree[slug]), nil
}

// Len returns the number of slugs in the tree, or 0 if it is not built.
func (t *CategoryTree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tree)
}

func (t *CategoryTree) cached() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree
}

func (t *CategoryTree) load(ctx context.Context) (map[string][]string, error) {
	if tree := t.cached(); tree != nil {
		return tree, nil
	}

	v, err, _ := t.group.Do("tree", func() (any, error) {
		if tree := t.cached(); tree != nil {
			return tree, nil
		}
		tree, err := t.build(ctx)
		if err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.tree = tree
		t.mu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string][]string), nil
}

func (t *CategoryTree) build(ctx context.Context) (map[string][]string, error) {
	t.logger.Info("building category tree", "categories", len(t.categories))

	results := pipeline.Run(ctx, t.workers, t.categories, t.fetchListing)

	tree := make(map[string][]string)
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			t.reporter.Skip("category", r.Item, r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Item, r.Err))
			continue
		}
		if len(r.Value) == 0 {
			t.logger.Warn("category listing has no simulation links", "category", r.Item)
		}
		for _, slug := range r.Value {
			tree[slug] = append(tree[slug], r.Item)
		}
	}

	if len(t.categories) > 0 && len(errs) == len(t.categories) {
		return nil, fmt.Errorf("%w: %w", ErrCategoryTreeEmpty, errors.Join(errs...))
	}

	t.logger.Debug("category tree built", "slugs", len(tree))
	return tree, nil
}

// fetchListing returns the slugs linked from one category listing page.
func (t *CategoryTree) fetchListing(ctx context.Context, title string) ([]string, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := t.fetcher.GetHTML(ctx, t.listingURL(title))
	if err != nil {
		return nil, err
	}
	doc, err := t.parser.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var slugs []string
	for _, link := range doc.Find(categoryLinkSelector) {
		href, ok := link.Attr("href")
		if !ok {
			continue
		}
		if slug := lastSegment(href); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	return slugs, nil
}

func (t *CategoryTree) listingURL(title string) string {
	return t.baseURL + "/en/simulations/category/" + Slugify(title) + "/index"
}

// lastSegment returns the final path segment of href, ignoring any query,
// fragment, or trailing slash.
func lastSegment(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		href = href[:i]
	}
	href = strings.TrimRight(href, "/")
	if href == "" {
		return ""
	}
	return path.Base(href)
}
