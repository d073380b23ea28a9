package transform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"
)

// License block markers embedded in the bundled script of every simulation.
const (
	LicenseStartMarker = "// ### START THIRD PARTY LICENSE ENTRIES ###"
	LicenseEndMarker   = "// ### END THIRD PARTY LICENSE ENTRIES ###"
)

// Media types registered with the minifier.
const (
	mediaHTML = "text/html"
	mediaCSS  = "text/css"
	mediaSVG  = "image/svg+xml"
)

// inlineDataURI matches a data URI the minifier must not re-encode.
var inlineDataURI = regexp.MustCompile(`data:[A-Za-z0-9.+\-]+/[A-Za-z0-9.+\-]+;base64,[A-Za-z0-9+/=]+`)

// NewMinifier returns the minifier used for documents and SVG images.
// HTML comments are removed; scripts are left as they are.
func NewMinifier() *minify.M {
	m := minify.New()
	m.Add(mediaHTML, &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaSVG, svg.Minify)
	return m
}

// LicenseStripper removes the third-party license block from a document and
// minifies what remains.
type LicenseStripper struct {
	minifier *minify.M
}

// NewLicenseStripper creates a LicenseStripper. A nil minifier means NewMinifier().
func NewLicenseStripper(m *minify.M) *LicenseStripper {
	if m == nil {
		m = NewMinifier()
	}
	return &LicenseStripper{minifier: m}
}

// Name implements pipeline.Step.
func (s *LicenseStripper) Name() string {
	return "license"
}

// Do implements pipeline.Step.
func (s *LicenseStripper) Do(_ context.Context, doc *model.Document) error {
	stripped, err := s.Strip(doc.Text)
	if err != nil {
		return err
	}
	doc.Text = stripped
	return nil
}

// Strip returns text without the license block, minified. Text without a
// start marker is returned unchanged. A start marker without a following end
// marker is ErrUnterminatedLicenseBlock; a minifier failure wraps ErrMinify.
func (s *LicenseStripper) Strip(text string) (string, error) {
	start := strings.Index(text, LicenseStartMarker)
	if start < 0 {
		return text, nil
	}

	rest := text[start+len(LicenseStartMarker):]
	end := strings.Index(rest, LicenseEndMarker)
	if end < 0 {
		return "", ErrUnterminatedLicenseBlock
	}
	without := text[:start] + rest[end+len(LicenseEndMarker):]

	shielded, restore := shieldDataURIs(without)
	out, err := s.minifier.String(mediaHTML, shielded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMinify, err)
	}
	return restore.Replace(out), nil
}

// shieldDataURIs swaps every data URI in text for a placeholder token and
// returns a replacer that puts the literals back. The HTML minifier rewrites
// base64 data URIs in attributes into percent-encoded form.
func shieldDataURIs(text string) (string, *strings.Replacer) {
	var pairs []string
	shielded := inlineDataURI.ReplaceAllStringFunc(text, func(literal string) string {
		token := "__phetcrawl_payload_" + strconv.Itoa(len(pairs)/2) + "__"
		pairs = append(pairs, token, literal)
		return token
	})
	return shielded, strings.NewReplacer(pairs...)
}
