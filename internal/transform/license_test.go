package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/phetcrawl/internal/model"
)

const licensedDocument = `<!DOCTYPE html>
<html>
<head>
<title>Foo</title>
<script>
var a = 1;
// ### START THIRD PARTY LICENSE ENTRIES ###
// lodash: MIT license, copyright holders listed here
// ### END THIRD PARTY LICENSE ENTRIES ###
var b = 2;
</script>
</head>
<body>
  <!-- build comment -->
  <p>Hello</p>
</body>
</html>`

func TestLicenseStripper_Strip(t *testing.T) {
	t.Parallel()

	s := NewLicenseStripper(nil)

	t.Run("removes block and minifies", func(t *testing.T) {
		t.Parallel()

		out, err := s.Strip(licensedDocument)
		if err != nil {
			t.Fatalf("Strip() error = %v", err)
		}
		for _, gone := range []string{"THIRD PARTY LICENSE", "lodash", "build comment"} {
			if strings.Contains(out, gone) {
				t.Errorf("output still contains %q:\n%s", gone, out)
			}
		}
		for _, kept := range []string{"var a = 1;", "var b = 2;", "Hello"} {
			if !strings.Contains(out, kept) {
				t.Errorf("output lost %q:\n%s", kept, out)
			}
		}
		if len(out) >= len(licensedDocument) {
			t.Errorf("output not smaller: %d >= %d", len(out), len(licensedDocument))
		}
	})

	t.Run("inline audio payloads are kept byte for byte", func(t *testing.T) {
		t.Parallel()

		const (
			ogg  = `<audio src="data:audio/ogg;base64,T2dnUw=="></audio>`
			mpeg = `<img src="data:audio/mpeg;base64,SUQzBAA=">`
		)
		in := "<html><body><script>" + LicenseStartMarker + "\n" + LicenseEndMarker +
			"</script>\n  " + ogg + "\n  " + mpeg + "\n</body></html>"
		out, err := s.Strip(in)
		if err != nil {
			t.Fatalf("Strip() error = %v", err)
		}
		for _, want := range []string{ogg, mpeg} {
			if !strings.Contains(out, want) {
				t.Errorf("output lost %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "__phetcrawl_payload_") {
			t.Errorf("placeholder left in output:\n%s", out)
		}
	})

	t.Run("document without markers is unchanged", func(t *testing.T) {
		t.Parallel()

		in := "<html>\n  <!-- keep me -->\n  <body><p>Hi</p></body>\n</html>"
		out, err := s.Strip(in)
		if err != nil {
			t.Fatalf("Strip() error = %v", err)
		}
		if out != in {
			t.Errorf("Strip() = %q, want input unchanged", out)
		}
	})

	t.Run("start marker without end marker is an error", func(t *testing.T) {
		t.Parallel()

		in := "<script>" + LicenseStartMarker + "\n// never closed</script>"
		if _, err := s.Strip(in); !errors.Is(err, ErrUnterminatedLicenseBlock) {
			t.Errorf("expected ErrUnterminatedLicenseBlock, got %v", err)
		}
	})

	t.Run("end marker before start marker is an error", func(t *testing.T) {
		t.Parallel()

		in := LicenseEndMarker + "\n" + LicenseStartMarker
		if _, err := s.Strip(in); !errors.Is(err, ErrUnterminatedLicenseBlock) {
			t.Errorf("expected ErrUnterminatedLicenseBlock, got %v", err)
		}
	})
}

func TestLicenseStripper_Do(t *testing.T) {
	t.Parallel()

	doc := &model.Document{Name: "foo_en.html", Text: licensedDocument}
	if err := NewLicenseStripper(nil).Do(context.Background(), doc); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if strings.Contains(doc.Text, LicenseStartMarker) {
		t.Error("license block survived")
	}
}
