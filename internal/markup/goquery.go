package markup

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// goqueryParser implements Parser on top of goquery.
type goqueryParser struct{}

// NewParser returns the default Parser.
func NewParser() Parser {
	return goqueryParser{}
}

// Parse parses r as an HTML document.
func (goqueryParser) Parse(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &goqueryDocument{doc: goquery.NewDocumentFromNode(root)}, nil
}

type goqueryDocument struct {
	doc *goquery.Document
}

func (d *goqueryDocument) Find(selector string) []Node {
	sel := d.doc.Find(selector)
	nodes := make([]Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, goqueryNode{sel: s})
	})
	return nodes
}

func (d *goqueryDocument) First(selector string) (Node, bool) {
	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return goqueryNode{sel: sel}, true
}

func (d *goqueryDocument) Render() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return out, nil
}

// goqueryNode wraps a single-element selection.
type goqueryNode struct {
	sel *goquery.Selection
}

func (n goqueryNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n goqueryNode) SetAttr(name, value string) {
	n.sel.SetAttr(name, value)
}

func (n goqueryNode) Text() string {
	return n.sel.Text()
}

func (n goqueryNode) RemoveChildren() {
	n.sel.Empty()
}
