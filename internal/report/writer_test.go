package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/phetcrawl/internal/crawler"
	"github.com/nao1215/phetcrawl/internal/database"
	"github.com/nao1215/phetcrawl/internal/model"
	"github.com/nao1215/phetcrawl/internal/transform"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// createTestReport creates a report with sample data for testing.
func createTestReport() *Report {
	return &Report{
		Version: "v1.2.3",
		Crawl: &crawler.Result{
			StartedAt:  testStart,
			FinishedAt: testStart.Add(90 * time.Second),
			Languages:  []string{"en", "fr"},
			Catalog: []model.Simulation{
				{ID: "acid-base-solutions", Language: "en", Title: "Acid-Base Solutions"},
				{ID: "area-builder", Language: "en", Title: "Area Builder"},
				{ID: "area-builder", Language: "fr", Title: "Constructeur d'aires"},
			},
			CatalogPath: "/data/fetch/catalog.json",
			Downloads: []model.DownloadResult{
				{DownloadTarget: model.DownloadTarget{FileName: "area-builder_en.html"}, StatusCode: 200, Bytes: 10},
				{DownloadTarget: model.DownloadTarget{FileName: "area-builder.png"}, StatusCode: 404, Error: "unexpected status 404"},
			},
			Failures: []model.Failure{
				model.NewFailure(model.StageDownload, "area-builder.png", errors.New("unexpected status 404")),
			},
		},
		Transform: &transform.Summary{
			StartedAt:        testStart,
			FinishedAt:       testStart.Add(5 * time.Second),
			Documents:        2,
			Images:           1,
			ImagesFailed:     1,
			Payloads:         4,
			Scripts:          3,
			BytesBefore:      1000,
			BytesAfter:       750,
			MetadataStripped: 1,
			Steps:            map[string]int{"base64": 2, "license": 2, "scripts": 2},
			Failures: []model.Failure{
				model.NewFailure(model.StageImage, "broken.png", errors.New("png: invalid format")),
			},
		},
	}
}

func createTestComparison() *Comparison {
	older := []model.Simulation{
		{ID: "area-builder", Language: "en", Title: "Area Builder"},
		{ID: "balloons", Language: "en", Title: "Balloons"},
	}
	newer := []model.Simulation{
		{ID: "area-builder", Language: "en", Title: "Area Builder 2"},
		{ID: "build-an-atom", Language: "en", Title: "Build an Atom"},
	}
	return &Comparison{
		Older: database.RunRecord{ID: 1, StartedAt: testStart, Simulations: 2},
		Newer: database.RunRecord{ID: 2, StartedAt: testStart.Add(24 * time.Hour), Simulations: 2},
		Diff:  model.CompareCatalogs(older, newer),
	}
}

func createTestRuns() []database.RunRecord {
	return []database.RunRecord{
		{ID: 2, StartedAt: testStart.Add(time.Hour), Languages: []string{"en"}, Simulations: 120, Downloads: 240, Failures: 1},
		{ID: 1, StartedAt: testStart, Languages: []string{"en", "fr"}, Simulations: 230, Downloads: 460},
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes both stages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"PHETCRAWL REPORT",
			"CRAWL",
			"TRANSFORM",
			"Catalog:     3 simulations",
			"Downloads:   1 ok, 1 failed",
			"Languages:   en, fr",
			"Image bytes: 1000 -> 750 (25.0% saved)",
			"phetcrawl v1.2.3",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("counts failures unless verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "1 item(s) skipped") {
			t.Error("expected skipped count")
		}
		if strings.Contains(buf.String(), "broken.png") {
			t.Error("expected failure subjects to be hidden without verbose")
		}
	})

	t.Run("lists failures when verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[image] broken.png") {
			t.Error("expected image failure to be listed")
		}
		if !strings.Contains(output, "png: invalid format") {
			t.Error("expected failure error to be listed")
		}
		if !strings.Contains(output, "license") {
			t.Error("expected step counts in verbose output")
		}
	})

	t.Run("crawl only", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Transform = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "TRANSFORM") {
			t.Error("expected no transform section")
		}
	})

	t.Run("show empty failures", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Crawl.Failures = nil
		report.Transform = nil

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No failures") {
			t.Error("expected empty failure section")
		}
	})
}

func TestSimpleWriter_WriteComparison(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewSimpleWriter(&buf).WriteComparison(createTestComparison()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"CATALOG COMPARISON",
		"[+] build-an-atom_en",
		"[-] balloons_en",
		"[~] area-builder_en",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q\n%s", want, output)
		}
	}
}

func TestSimpleWriter_WriteRuns(t *testing.T) {
	t.Parallel()

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[1], "2 ") {
			t.Errorf("expected newest run first, got %q", lines[1])
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteRuns(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No recorded runs") {
			t.Error("expected empty message")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips the report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got Report
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if diff := cmp.Diff(report, &got); diff != "" {
			t.Errorf("report mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("omits missing stage", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		report := createTestReport()
		report.Crawl = nil
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), `"crawl"`) {
			t.Error("expected crawl to be omitted")
		}
	})

	t.Run("empty run list is an array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteRuns(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("got %q, want []", got)
		}
	})

	t.Run("comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got struct {
			Diff struct {
				Added     []model.Simulation `json:"added"`
				Unchanged int                `json:"unchanged"`
			} `json:"diff"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("failed to parse JSON: %v", err)
		}
		if len(got.Diff.Added) != 1 || got.Diff.Added[0].ID != "build-an-atom" {
			t.Errorf("unexpected added list: %+v", got.Diff.Added)
		}
	})
}

// TestWithIndent tests pretty-printed JSON output.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  {") {
			t.Error("expected two-space indentation")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent("", "\t")).WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t{") {
			t.Error("expected tab indentation")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewMarkdownWriter(&buf).Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n == 0 {
			t.Error("expected non-zero byte count")
		}

		output := buf.String()
		for _, want := range []string{
			"# phetcrawl Report",
			"## Crawl",
			"## Transform",
			"```mermaid",
			"Simulations by Language",
			"[!WARNING]",
			"broken.png",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("tip when nothing failed", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Crawl.Failures = nil
		report.Transform = nil

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected tip alert")
		}
	})

	t.Run("no chart for a single language", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Crawl.Catalog = report.Crawl.Catalog[:2]

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("expected no pie chart")
		}
	})

	t.Run("comparison", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteComparison(createTestComparison()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, want := range []string{"# Catalog Comparison", "## Added", "## Removed", "## Changed", "`build-an-atom`"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("unchanged comparison", func(t *testing.T) {
		t.Parallel()

		c := createTestComparison()
		c.Diff = model.CatalogDiff{Unchanged: 3}

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteComparison(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!NOTE]") {
			t.Error("expected note alert")
		}
	})

	t.Run("runs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteRuns(createTestRuns()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Recorded Runs") {
			t.Error("expected heading")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	multi := NewMultiWriter(NewSimpleWriter(&buf1), NewJSONWriter(&buf2))

	n, err := multi.Write(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != buf1.Len()+buf2.Len() {
		t.Errorf("got %d bytes, want %d", n, buf1.Len()+buf2.Len())
	}
	if strings.Contains(buf1.String(), "{") {
		t.Error("expected buf1 (simple) to not be JSON")
	}
	if !json.Valid(buf2.Bytes()) {
		t.Error("expected buf2 to be valid JSON")
	}
}

func TestSavedPercent(t *testing.T) {
	t.Parallel()

	if got := savedPercent(0, 0); got != 0 {
		t.Errorf("savedPercent(0, 0) = %v, want 0", got)
	}
	if got := savedPercent(200, 50); got != 75 {
		t.Errorf("savedPercent(200, 50) = %v, want 75", got)
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
