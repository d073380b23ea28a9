package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Sims</title></head>
<body>
<div class="simulation-index">
  <a href="/en/simulation/projectile-motion">Projectile Motion</a>
  <a href="/en/simulation/balloons">Balloons</a>
</div>
<script>var a = 1;</script>
<script src="lib.js"></script>
</body></html>`

func TestParser_FindAndAttr(t *testing.T) {
	t.Parallel()

	doc, err := NewParser().Parse(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var hrefs []string
	for _, n := range doc.Find(".simulation-index a") {
		href, ok := n.Attr("href")
		if !ok {
			t.Fatal("anchor without href")
		}
		hrefs = append(hrefs, href)
	}

	want := []string{"/en/simulation/projectile-motion", "/en/simulation/balloons"}
	if diff := cmp.Diff(want, hrefs); diff != "" {
		t.Errorf("hrefs mismatch (-want +got):\n%s", diff)
	}
}

func TestParser_First(t *testing.T) {
	t.Parallel()

	doc, err := NewParser().Parse(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	title, ok := doc.First("title")
	if !ok {
		t.Fatal("title not found")
	}
	if got := title.Text(); got != "Sims" {
		t.Errorf("Text() = %q, want %q", got, "Sims")
	}

	if _, ok := doc.First(".missing"); ok {
		t.Error("First() found a node for a missing selector")
	}
}

func TestDocument_MutateAndRender(t *testing.T) {
	t.Parallel()

	doc, err := NewParser().Parse(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, n := range doc.Find("script") {
		if _, ok := n.Attr("src"); ok {
			continue
		}
		n.SetAttr("src", "abc.js")
		n.RemoveChildren()
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(out, "var a = 1;") {
		t.Error("inline script body survived RemoveChildren")
	}
	if !strings.Contains(out, `<script src="abc.js"></script>`) {
		t.Errorf("rewritten script missing from output:\n%s", out)
	}
	if !strings.Contains(out, `<script src="lib.js"></script>`) {
		t.Errorf("external script was modified:\n%s", out)
	}
}
