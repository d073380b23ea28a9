// Package report renders run summaries for the terminal and for sharing.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - MarkdownWriter: Markdown with tables, alerts, and a mermaid pie chart
//   - JSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface and can be composed with
// MultiWriter. Each renders three documents: a run Report (crawl and/or
// transform stage), a catalog Comparison between two recorded runs, and
// the list of recorded runs.
package report
