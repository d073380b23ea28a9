// Package markup is the HTML capability used by the crawl and transform
// stages: parse a document, select nodes, read and write attributes and text,
// and render the result back to markup.
//
// Pipeline code depends only on the Parser, Document and Node interfaces.
// The implementation returned by NewParser parses with golang.org/x/net/html
// and selects with goquery's CSS engine.
package markup
