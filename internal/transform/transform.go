package transform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/phetcrawl/internal/config"
	"github.com/nao1215/phetcrawl/internal/log"
	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/pipeline"
	"github.com/tdewolff/minify/v2"
)

// Summary is the outcome of one transform stage run.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Documents is the number of documents written.
	Documents int `json:"documents"`
	// DocumentsFailed is the number of documents skipped after an error.
	DocumentsFailed int `json:"documents_failed"`

	// Images is the number of images written.
	Images int `json:"images"`
	// ImagesFailed is the number of images not emitted.
	ImagesFailed int `json:"images_failed"`

	// Payloads is the number of data URI references rewritten.
	Payloads int64 `json:"payloads"`
	// Scripts is the number of inline scripts externalized.
	Scripts int64 `json:"scripts"`

	// BytesBefore and BytesAfter total the sizes of the emitted images.
	BytesBefore int64 `json:"bytes_before"`
	BytesAfter  int64 `json:"bytes_after"`

	// MetadataStripped is the number of JPEGs whose EXIF tags were dropped.
	MetadataStripped int `json:"metadata_stripped"`

	// Steps counts successful document steps by name.
	Steps map[string]int `json:"steps"`

	// Failures lists every skipped document and image.
	Failures []model.Failure `json:"failures"`
}

// Transformer runs the transform stage over the fetch-stage directory.
type Transformer struct {
	fetchDir    string
	outDir      string
	workers     int
	jpegQuality int

	parser      markup.Parser
	minifier    *minify.M
	reporter    *log.Reporter
	logger      *slog.Logger
	progressOut io.Writer
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithReporter sets the failure reporter and, through it, the logger.
func WithReporter(r *log.Reporter) Option {
	return func(t *Transformer) {
		t.reporter = r
	}
}

// WithProgressWriter sets where progress is drawn. Nil disables it.
func WithProgressWriter(w io.Writer) Option {
	return func(t *Transformer) {
		t.progressOut = w
	}
}

// WithParser replaces the HTML parser.
func WithParser(p markup.Parser) Option {
	return func(t *Transformer) {
		t.parser = p
	}
}

// New creates a Transformer for cfg.
func New(cfg *config.Config, opts ...Option) *Transformer {
	t := &Transformer{
		fetchDir:    cfg.FetchDir(),
		outDir:      cfg.TransformDir(),
		workers:     cfg.Workers,
		jpegQuality: cfg.JPEGQuality,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.reporter == nil {
		t.reporter = log.NewReporter(nil, cfg.Verbose)
	}
	t.logger = t.reporter.Logger()
	if t.parser == nil {
		t.parser = markup.NewParser()
	}
	t.minifier = NewMinifier()
	return t
}

// Run transforms every document, then optimizes every image. Per-file
// failures are recorded in the Summary; an error is returned only when a
// stage directory cannot be read or created.
func (t *Transformer) Run(ctx context.Context) (*Summary, error) {
	s := &Summary{StartedAt: time.Now(), Steps: make(map[string]int)}

	if err := t.TransformDocuments(ctx, s); err != nil {
		return nil, err
	}
	if err := t.OptimizeImages(ctx, s); err != nil {
		return nil, err
	}

	s.FinishedAt = time.Now()
	return s, nil
}

// TransformDocuments rewrites every HTML document in the fetch-stage
// directory. Documents are processed one at a time; a failing document is
// reported and skipped without affecting the others.
func (t *Transformer) TransformDocuments(ctx context.Context, s *Summary) error {
	if err := t.ensureOutDir(); err != nil {
		return err
	}
	names, err := t.listFetched(func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".html")
	})
	if err != nil {
		return err
	}
	if s.Steps == nil {
		s.Steps = make(map[string]int)
	}

	base64Step := NewBase64Extractor(t.outDir, t.workers, t.logger)
	scriptStep := NewScriptExtractor(t.parser, t.outDir, t.workers)
	pipe := pipeline.New(
		pipeline.WithLogger(t.logger),
		pipeline.WithStepHook(func(step string) { s.Steps[step]++ }),
	)
	persist := pipeline.NewStepFunc("persist", func(_ context.Context, doc *model.Document) error {
		return writeFile(filepath.Join(t.outDir, doc.Name), []byte(doc.Text))
	})
	pipe.AddSteps(base64Step, NewLicenseStripper(t.minifier), scriptStep, persist)

	t.logger.Info("transforming documents", "count", len(names), "steps", pipe.StepNames())
	bar := newProgress(t.progressOut, "documents", len(names), t.logger)
	defer bar.Finish()

	for _, name := range names {
		if err := t.transformDocument(ctx, pipe, name); err != nil {
			t.reporter.Skip("document", name, err)
			s.DocumentsFailed++
			s.Failures = append(s.Failures, model.NewFailure(model.StageDocument, name, err))
		} else {
			s.Documents++
		}
		bar.Increment(name)
	}

	s.Payloads += base64Step.Extracted()
	s.Scripts += scriptStep.Extracted()
	return nil
}

func (t *Transformer) transformDocument(ctx context.Context, pipe *pipeline.Pipeline, name string) error {
	data, err := os.ReadFile(filepath.Join(t.fetchDir, name))
	if err != nil {
		return err
	}
	return pipe.Execute(ctx, &model.Document{Name: name, Text: string(data)})
}

// imageResult is the size accounting for one emitted image.
type imageResult struct {
	before       int64
	after        int64
	metadataTags int
}

// OptimizeImages optimizes every image in the fetch-stage directory through
// the worker pool. A failing image is reported and not emitted.
func (t *Transformer) OptimizeImages(ctx context.Context, s *Summary) error {
	if err := t.ensureOutDir(); err != nil {
		return err
	}
	names, err := t.listFetched(IsImage)
	if err != nil {
		return err
	}

	t.logger.Info("optimizing images", "count", len(names))
	optimizer := NewOptimizer(t.minifier, t.jpegQuality)
	bar := newProgress(t.progressOut, "images", len(names), t.logger)

	results := pipeline.Run(ctx, t.workers, names, func(_ context.Context, name string) (imageResult, error) {
		defer bar.Increment(name)
		r, err := t.optimizeImage(optimizer, name)
		if err != nil {
			t.reporter.Skip("image", name, err)
		}
		return r, err
	})
	bar.Finish()

	for _, r := range pipeline.Errors(results) {
		s.ImagesFailed++
		s.Failures = append(s.Failures, model.NewFailure(model.StageImage, r.Item, r.Err))
	}
	for _, v := range pipeline.Values(results) {
		s.Images++
		s.BytesBefore += v.before
		s.BytesAfter += v.after
		if v.metadataTags > 0 {
			s.MetadataStripped++
		}
	}
	return nil
}

func (t *Transformer) optimizeImage(o *Optimizer, name string) (imageResult, error) {
	data, err := os.ReadFile(filepath.Join(t.fetchDir, name))
	if err != nil {
		return imageResult{}, err
	}
	opt, err := o.Optimize(name, data)
	if err != nil {
		return imageResult{}, err
	}
	if err := writeFile(filepath.Join(t.outDir, name), opt.Data); err != nil {
		return imageResult{}, err
	}
	return imageResult{
		before:       int64(len(data)),
		after:        int64(len(opt.Data)),
		metadataTags: opt.MetadataTags,
	}, nil
}

func (t *Transformer) ensureOutDir() error {
	if err := os.MkdirAll(t.outDir, 0750); err != nil {
		return fmt.Errorf("failed to create transform directory: %w", err)
	}
	return nil
}

// listFetched returns the regular files in the fetch-stage directory
// accepted by keep, sorted by name.
func (t *Transformer) listFetched(keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(t.fetchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fetch directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
