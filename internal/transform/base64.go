package transform

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/nao1215/phetcrawl/internal/model"
)

// dataURILiteral matches a data URI, optionally preceded by a src attribute
// opening. Group 1 is the attribute prefix, group 2 the literal.
var dataURILiteral = regexp.MustCompile(`(src=["'])?(data:[^"'\s<>)]*)`)

// inlinedExtensions are payload types left embedded in the document; the
// player expects them inline.
var inlinedExtensions = map[string]bool{
	"ogg":  true,
	"mpeg": true,
}

// Base64Extractor moves base64 data URI payloads out of a document into
// content-addressed files and rewrites each reference to the file name.
type Base64Extractor struct {
	dir     string
	workers int
	logger  *slog.Logger

	extracted atomic.Int64
}

// NewBase64Extractor creates an extractor writing into dir.
func NewBase64Extractor(dir string, workers int, logger *slog.Logger) *Base64Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base64Extractor{dir: dir, workers: workers, logger: logger}
}

// Name implements pipeline.Step.
func (e *Base64Extractor) Name() string {
	return "base64"
}

// Extracted returns the number of payload references rewritten so far.
func (e *Base64Extractor) Extracted() int64 {
	return e.extracted.Load()
}

// Do implements pipeline.Step. Payloads that are empty, undecodable, or of
// an inlined type are left untouched. Files are written concurrently; the
// document text is rewritten once all writes have finished.
func (e *Base64Extractor) Do(ctx context.Context, doc *model.Document) error {
	matches := dataURILiteral.FindAllStringSubmatchIndex(doc.Text, -1)
	if len(matches) == 0 {
		return nil
	}

	replacements := make(map[string]string)
	assets := make(map[string]model.ExtractedAsset)
	for _, m := range matches {
		literal := doc.Text[m[4]:m[5]]
		if _, done := replacements[literal]; done {
			continue
		}
		asset, ok := e.assetFor(doc.Name, literal)
		if !ok {
			continue
		}
		replacements[literal] = asset.FileName()
		assets[asset.FileName()] = asset
	}
	if len(replacements) == 0 {
		return nil
	}

	if err := writeAssets(ctx, e.dir, e.workers, assets); err != nil {
		return err
	}

	var b strings.Builder
	b.Grow(len(doc.Text))
	last := 0
	rewritten := int64(0)
	for _, m := range matches {
		name, ok := replacements[doc.Text[m[4]:m[5]]]
		if !ok {
			continue
		}
		b.WriteString(doc.Text[last:m[4]])
		b.WriteString(name)
		last = m[5]
		rewritten++
	}
	b.WriteString(doc.Text[last:])

	doc.Text = b.String()
	e.extracted.Add(rewritten)
	return nil
}

// assetFor decodes one literal. ok is false when the literal is skipped.
func (e *Base64Extractor) assetFor(docName, literal string) (model.ExtractedAsset, bool) {
	payload := model.ParseBase64Payload(literal)
	if payload.IsEmpty() {
		return model.ExtractedAsset{}, false
	}
	ext := payload.Extension()
	if ext == "" || inlinedExtensions[ext] {
		return model.ExtractedAsset{}, false
	}

	data, err := payload.Decode()
	if err != nil {
		e.logger.Warn("skipping undecodable payload", "document", docName, "mime", payload.MIMEType)
		e.logger.Debug("payload decode error", "document", docName, "error", err)
		return model.ExtractedAsset{}, false
	}

	return model.ExtractedAsset{
		ContentHash: ContentHash(data),
		Extension:   ext,
		Bytes:       data,
	}, true
}
