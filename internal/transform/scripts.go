package transform

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/nao1215/phetcrawl/internal/markup"
	"github.com/nao1215/phetcrawl/internal/model"
)

// ScriptExtractor moves inline script bodies into content-addressed .js
// files and turns each inline element into a reference to its file.
type ScriptExtractor struct {
	parser  markup.Parser
	dir     string
	workers int

	extracted atomic.Int64
}

// NewScriptExtractor creates an extractor writing into dir.
func NewScriptExtractor(parser markup.Parser, dir string, workers int) *ScriptExtractor {
	if parser == nil {
		parser = markup.NewParser()
	}
	return &ScriptExtractor{parser: parser, dir: dir, workers: workers}
}

// Name implements pipeline.Step.
func (e *ScriptExtractor) Name() string {
	return "scripts"
}

// Extracted returns the number of script elements rewritten so far.
func (e *ScriptExtractor) Extracted() int64 {
	return e.extracted.Load()
}

// Do implements pipeline.Step. Each element is rewritten through its own
// node handle, so elements with identical bodies share one file but are
// never confused with each other.
func (e *ScriptExtractor) Do(ctx context.Context, doc *model.Document) error {
	parsed, err := e.parser.Parse(strings.NewReader(doc.Text))
	if err != nil {
		return err
	}

	type inline struct {
		node markup.Node
		file string
	}
	var scripts []inline
	assets := make(map[string]model.ExtractedAsset)

	for _, node := range parsed.Find("script") {
		if _, external := node.Attr("src"); external {
			continue
		}
		body := node.Text()
		if strings.TrimSpace(body) == "" {
			continue
		}
		asset := model.ExtractedAsset{
			ContentHash: ContentHash([]byte(body)),
			Extension:   "js",
			Bytes:       []byte(body),
		}
		assets[asset.FileName()] = asset
		scripts = append(scripts, inline{node: node, file: asset.FileName()})
	}
	if len(scripts) == 0 {
		return nil
	}

	if err := writeAssets(ctx, e.dir, e.workers, assets); err != nil {
		return err
	}

	for _, s := range scripts {
		s.node.RemoveChildren()
		s.node.SetAttr("src", s.file)
	}

	rendered, err := parsed.Render()
	if err != nil {
		return err
	}
	doc.Text = rendered
	e.extracted.Add(int64(len(scripts)))
	return nil
}
