package report

import (
	"io"

	"github.com/nao1215/phetcrawl/internal/crawler"
	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/transform"
)

// Report is the summary of one invocation. Either stage may be nil when
// only the other one ran.
type Report struct {
	// Version is the phetcrawl version that produced the report.
	Version string `json:"version"`

	// Crawl is the crawl stage result.
	Crawl *crawler.Result `json:"crawl,omitempty"`

	// Transform is the transform stage summary.
	Transform *transform.Summary `json:"transform,omitempty"`
}

// Comparison is the catalog difference between two recorded runs.
type Comparison struct {
	Older database.RunRecord `json:"older"`
	Newer database.RunRecord `json:"newer"`
	Diff  model.CatalogDiff  `json:"diff"`
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a run report.
	// Returns the number of bytes written and any error encountered.
	Write(report *Report) (int, error)

	// WriteComparison outputs a catalog comparison.
	WriteComparison(c *Comparison) (int, error)

	// WriteRuns outputs the list of recorded runs.
	WriteRuns(runs []database.RunRecord) (int, error)
}

// MultiWriter writes to multiple Writers in turn and stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
func (m *MultiWriter) Write(report *Report) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteComparison outputs the comparison to all configured Writers.
func (m *MultiWriter) WriteComparison(c *Comparison) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteComparison(c) })
}

// WriteRuns outputs the run list to all configured Writers.
func (m *MultiWriter) WriteRuns(runs []database.RunRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRuns(runs) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// catalogByLanguage counts catalog records per language, in first-seen order.
func catalogByLanguage(sims []model.Simulation) ([]string, map[string]int) {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, s := range sims {
		if _, ok := counts[s.Language]; !ok {
			order = append(order, s.Language)
		}
		counts[s.Language]++
	}
	return order, counts
}

// savedPercent returns how much smaller after is than before, in percent.
func savedPercent(before, after int64) float64 {
	if before == 0 {
		return 0
	}
	return float64(before-after) * 100 / float64(before)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
