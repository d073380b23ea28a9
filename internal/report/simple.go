package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/phetcrawl/internal/crawler"
	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/transform"
)

const (
	lineWidth  = 70
	timeLayout = "2006-01-02 15:04:05 MST"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose lists every failure instead of counting them.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(report *Report) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PHETCRAWL REPORT")
	if report.Crawl != nil {
		w.writeCrawl(&sb, report.Crawl)
	}
	if report.Transform != nil {
		w.writeTransform(&sb, report.Transform)
	}
	w.writeFooter(&sb, report.Version)

	return w.output.Write([]byte(sb.String()))
}

// writeCrawl writes the crawl stage section.
func (w *SimpleWriter) writeCrawl(sb *strings.Builder, r *crawler.Result) {
	writeSection(sb, "CRAWL")

	fmt.Fprintf(sb, "Started:     %s\n", r.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:    %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(sb, "Languages:   %s\n", strings.Join(r.Languages, ", "))
	fmt.Fprintf(sb, "Catalog:     %d simulations\n", len(r.Catalog))
	if r.CatalogPath != "" {
		fmt.Fprintf(sb, "Written to:  %s\n", r.CatalogPath)
	}
	failed := len(r.FailedDownloads())
	fmt.Fprintf(sb, "Downloads:   %d ok, %d failed\n", len(r.Downloads)-failed, failed)
	sb.WriteString("\n")

	order, counts := catalogByLanguage(r.Catalog)
	if len(order) > 0 {
		sb.WriteString("  By language:\n")
		for _, lang := range order {
			fmt.Fprintf(sb, "    %-8s %d\n", lang, counts[lang])
		}
		sb.WriteString("\n")
	}

	w.writeFailures(sb, r.Failures)
}

// writeTransform writes the transform stage section.
func (w *SimpleWriter) writeTransform(sb *strings.Builder, s *transform.Summary) {
	writeSection(sb, "TRANSFORM")

	fmt.Fprintf(sb, "Started:     %s\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:    %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(sb, "Documents:   %d ok, %d failed\n", s.Documents, s.DocumentsFailed)
	fmt.Fprintf(sb, "Payloads:    %d extracted\n", s.Payloads)
	fmt.Fprintf(sb, "Scripts:     %d extracted\n", s.Scripts)
	fmt.Fprintf(sb, "Images:      %d ok, %d failed\n", s.Images, s.ImagesFailed)
	fmt.Fprintf(sb, "Image bytes: %d -> %d (%.1f%% saved)\n",
		s.BytesBefore, s.BytesAfter, savedPercent(s.BytesBefore, s.BytesAfter))
	if s.MetadataStripped > 0 {
		fmt.Fprintf(sb, "Metadata:    stripped from %d image(s)\n", s.MetadataStripped)
	}
	sb.WriteString("\n")

	if w.verbose && len(s.Steps) > 0 {
		sb.WriteString("  Steps:\n")
		names := make([]string, 0, len(s.Steps))
		for name := range s.Steps {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintf(sb, "    %-8s %d\n", name, s.Steps[name])
		}
		sb.WriteString("\n")
	}

	w.writeFailures(sb, s.Failures)
}

// writeFailures lists failures in verbose mode and counts them otherwise.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, failures []model.Failure) {
	if len(failures) == 0 {
		if w.showEmpty {
			sb.WriteString("  No failures\n\n")
		}
		return
	}

	if !w.verbose {
		fmt.Fprintf(sb, "  [!] %d item(s) skipped, rerun with --verbose for details\n\n", len(failures))
		return
	}

	sb.WriteString("  Skipped:\n")
	for _, f := range failures {
		fmt.Fprintf(sb, "    [%s] %s\n", f.Stage, f.Subject)
		fmt.Fprintf(sb, "        %s\n", f.Error)
	}
	sb.WriteString("\n")
}

// WriteComparison outputs a catalog comparison in human-readable format.
func (w *SimpleWriter) WriteComparison(c *Comparison) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "CATALOG COMPARISON")
	fmt.Fprintf(&sb, "Older run:   #%d (%s)\n", c.Older.ID, c.Older.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Newer run:   #%d (%s)\n", c.Newer.ID, c.Newer.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Unchanged:   %d\n\n", c.Diff.Unchanged)

	if !c.Diff.HasChanges() {
		sb.WriteString("  No catalog changes\n\n")
	}
	w.writeSimulations(&sb, "ADDED", "+", c.Diff.Added)
	w.writeSimulations(&sb, "REMOVED", "-", c.Diff.Removed)
	w.writeSimulations(&sb, "CHANGED", "~", c.Diff.Changed)

	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeSimulations(sb *strings.Builder, title, mark string, sims []model.Simulation) {
	if len(sims) == 0 && !w.showEmpty {
		return
	}
	writeSection(sb, title)
	if len(sims) == 0 {
		sb.WriteString("  None\n\n")
		return
	}
	for _, s := range sims {
		fmt.Fprintf(sb, "  [%s] %-40s %s\n", mark, s.Ref(), truncateString(s.Title, 25))
	}
	sb.WriteString("\n")
}

// WriteRuns outputs the recorded runs as a table.
func (w *SimpleWriter) WriteRuns(runs []database.RunRecord) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No recorded runs\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-6s %-25s %-12s %6s %9s %7s\n", "ID", "STARTED", "LANGUAGES", "SIMS", "DOWNLOADS", "FAILED")
	for _, r := range runs {
		fmt.Fprintf(&sb, "%-6d %-25s %-12s %6d %9d %7d\n",
			r.ID,
			r.StartedAt.Format(timeLayout),
			truncateString(strings.Join(r.Languages, ","), 12),
			r.Simulations,
			r.Downloads,
			r.Failures,
		)
	}
	return w.output.Write([]byte(sb.String()))
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, version string) {
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	if version != "" {
		fmt.Fprintf(sb, "Report generated by phetcrawl %s\n", version)
	} else {
		sb.WriteString("Report generated by phetcrawl\n")
	}
	sb.WriteString("https://github.com/nao1215/phetcrawl\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
}

func writeBanner(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n")
	pad := max((lineWidth-len(title))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", lineWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", lineWidth))
	sb.WriteString("\n\n")
}
