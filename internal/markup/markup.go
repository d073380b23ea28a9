package markup

import "io"

// Parser turns HTML text into a queryable Document.
type Parser interface {
	Parse(r io.Reader) (Document, error)
}

// Document is a parsed HTML document.
type Document interface {
	// Find returns every node matching the CSS selector, in document order.
	Find(selector string) []Node
	// First returns the first node matching the selector.
	First(selector string) (Node, bool)
	// Render serializes the (possibly mutated) document back to HTML.
	Render() (string, error)
}

// Node is a single element of a Document.
type Node interface {
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	// Text returns the combined text content of the node and its descendants.
	Text() string
	// RemoveChildren drops every child of the node, leaving it empty.
	RemoveChildren()
}
