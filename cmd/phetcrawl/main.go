// Package main provides the entry point for the phetcrawl CLI.
//
// phetcrawl mirrors an HTML5 simulation catalog for offline use. The crawl
// stage discovers every simulation per language, writes catalog.json, and
// downloads each simulation document and screenshot. The transform stage
// makes the downloaded documents smaller and easier to serve by moving
// inlined payloads and scripts into content-addressed files and by
// optimizing the screenshots.
//
// Usage:
//
//	phetcrawl crawl -l en,fr
//	phetcrawl transform
//	phetcrawl run
//
// See --help for all available options.
package main

// main is the entry point for phetcrawl.
func main() {
	Execute()
}
