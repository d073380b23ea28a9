package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phetcrawl/internal/crawler"
	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/transform"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("phetcrawl Report")
	md.PlainText("")

	if report.Crawl != nil {
		w.writeCrawl(md, report.Crawl)
	}
	if report.Transform != nil {
		w.writeTransform(md, report.Transform)
	}

	w.writeFooter(md, report.Version)

	return len(md.String()), md.Build()
}

// writeCrawl writes the crawl stage section.
func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, r *crawler.Result) {
	md.H2("Crawl")
	md.PlainText("")

	failed := len(r.FailedDownloads())
	rows := [][]string{
		{"Started", r.StartedAt.Format(timeLayout)},
		{"Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()},
		{"Languages", strings.Join(r.Languages, ", ")},
		{"Simulations", strconv.Itoa(len(r.Catalog))},
		{"Downloads", fmt.Sprintf("%d ok, %d failed", len(r.Downloads)-failed, failed)},
	}
	if r.CatalogPath != "" {
		rows = append(rows, []string{"Catalog", "`" + r.CatalogPath + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	order, counts := catalogByLanguage(r.Catalog)
	if len(order) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Simulations by Language"),
			piechart.WithShowData(true),
		)
		for _, lang := range order {
			chart.LabelAndIntValue(lang, uint64(counts[lang]))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	w.writeFailures(md, r.Failures)
}

// writeTransform writes the transform stage section.
func (w *MarkdownWriter) writeTransform(md *markdown.Markdown, s *transform.Summary) {
	md.H2("Transform")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Processed", "Failed"},
		Rows: [][]string{
			{"Documents", strconv.Itoa(s.Documents), strconv.Itoa(s.DocumentsFailed)},
			{"Images", strconv.Itoa(s.Images), strconv.Itoa(s.ImagesFailed)},
		},
	})
	md.PlainText("")

	md.BulletList(
		fmt.Sprintf("Extracted payloads: %d", s.Payloads),
		fmt.Sprintf("Extracted scripts: %d", s.Scripts),
		fmt.Sprintf("Image bytes: %d -> %d (%.1f%% saved)",
			s.BytesBefore, s.BytesAfter, savedPercent(s.BytesBefore, s.BytesAfter)),
		fmt.Sprintf("Images with metadata stripped: %d", s.MetadataStripped),
	)
	md.PlainText("")

	if len(s.Steps) > 0 {
		names := make([]string, 0, len(s.Steps))
		for name := range s.Steps {
			names = append(names, name)
		}
		slices.Sort(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{"`" + name + "`", strconv.Itoa(s.Steps[name])})
		}
		md.Details("Completed document steps", tableText(markdown.TableSet{
			Header: []string{"Step", "Documents"},
			Rows:   rows,
		}))
		md.PlainText("")
	}

	w.writeFailures(md, s.Failures)
}

// writeFailures writes an alert and a table of skipped items.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, failures []model.Failure) {
	if len(failures) == 0 {
		md.Tip("Every item was processed.")
		md.PlainText("")
		return
	}

	md.Warningf("%d item(s) were skipped.", len(failures))
	md.PlainText("")

	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{
			string(f.Stage),
			truncateString(f.Subject, 50),
			truncateString(f.Error, 70),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Item", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteComparison outputs a catalog comparison in Markdown format.
func (w *MarkdownWriter) WriteComparison(c *Comparison) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Catalog Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Run", "ID", "Started", "Simulations"},
		Rows: [][]string{
			{"Older", strconv.FormatInt(c.Older.ID, 10), c.Older.StartedAt.Format(timeLayout), strconv.Itoa(c.Older.Simulations)},
			{"Newer", strconv.FormatInt(c.Newer.ID, 10), c.Newer.StartedAt.Format(timeLayout), strconv.Itoa(c.Newer.Simulations)},
		},
	})
	md.PlainText("")

	if !c.Diff.HasChanges() {
		md.Note("The catalog did not change between these runs.")
		md.PlainText("")
	} else {
		md.Importantf("%d added, %d removed, %d changed, %d unchanged.",
			len(c.Diff.Added), len(c.Diff.Removed), len(c.Diff.Changed), c.Diff.Unchanged)
		md.PlainText("")
		w.writeSimulations(md, "Added", c.Diff.Added)
		w.writeSimulations(md, "Removed", c.Diff.Removed)
		w.writeSimulations(md, "Changed", c.Diff.Changed)
	}

	w.writeFooter(md, "")
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSimulations(md *markdown.Markdown, title string, sims []model.Simulation) {
	if len(sims) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")
	rows := make([][]string, len(sims))
	for i, s := range sims {
		rows[i] = []string{"`" + s.ID + "`", s.Language, truncateString(s.Title, 50)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Simulation", "Language", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteRuns outputs the recorded runs as a Markdown table.
func (w *MarkdownWriter) WriteRuns(runs []database.RunRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Recorded Runs")
	md.PlainText("")
	if len(runs) == 0 {
		md.PlainText("No recorded runs.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Format(timeLayout),
			strings.Join(r.Languages, ", "),
			strconv.Itoa(r.Simulations),
			strconv.Itoa(r.Downloads),
			strconv.Itoa(r.Failures),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Languages", "Simulations", "Downloads", "Failures"},
		Rows:   rows,
	})
	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, version string) {
	md.HorizontalRule()
	md.PlainText("")
	if version != "" {
		md.PlainTextf("*Report generated by [phetcrawl %s](https://github.com/nao1215/phetcrawl)*", version)
		return
	}
	md.PlainTextf("*Report generated by [phetcrawl](https://github.com/nao1215/phetcrawl)*")
}

// tableText renders a table on its own so it can be nested in a details block.
func tableText(set markdown.TableSet) string {
	var sb strings.Builder
	md := markdown.NewMarkdown(&sb)
	md.Table(set)
	return md.String()
}
