package transform

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x / 16 * 60), G: 120, B: 200, A: 255})
		}
	}
	return img
}

func uncompressedPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOptimizer_Optimize(t *testing.T) {
	t.Parallel()

	o := NewOptimizer(nil, 85)

	t.Run("png is recompressed", func(t *testing.T) {
		t.Parallel()

		in := uncompressedPNG(t)
		out, err := o.Optimize("foo.png", in)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if !out.Reencoded || len(out.Data) >= len(in) {
			t.Errorf("expected a smaller re-encoded png, got %d bytes from %d", len(out.Data), len(in))
		}
		if _, err := png.Decode(bytes.NewReader(out.Data)); err != nil {
			t.Errorf("output is not a valid png: %v", err)
		}
	})

	t.Run("jpeg is re-encoded or kept", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, testImage(), &jpeg.Options{Quality: 100}); err != nil {
			t.Fatal(err)
		}
		in := buf.Bytes()
		out, err := o.Optimize("foo.JPG", in)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if len(out.Data) > len(in) {
			t.Errorf("output larger than input: %d > %d", len(out.Data), len(in))
		}
		if out.MetadataTags != 0 {
			t.Errorf("MetadataTags = %d for a jpeg without exif", out.MetadataTags)
		}
	})

	t.Run("gif round-trips", func(t *testing.T) {
		t.Parallel()

		pal := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		var buf bytes.Buffer
		if err := gif.EncodeAll(&buf, &gif.GIF{Image: []*image.Paletted{pal}, Delay: []int{0}}); err != nil {
			t.Fatal(err)
		}
		out, err := o.Optimize("anim.gif", buf.Bytes())
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if _, err := gif.DecodeAll(bytes.NewReader(out.Data)); err != nil {
			t.Errorf("output is not a valid gif: %v", err)
		}
	})

	t.Run("svg is minified", func(t *testing.T) {
		t.Parallel()

		in := []byte(`<?xml version="1.0"?>
<!-- exported by an editor -->
<svg xmlns="http://www.w3.org/2000/svg"   width="10"   height="10">
    <rect x="0" y="0" width="10" height="10" fill="#ff0000"/>
</svg>`)
		out, err := o.Optimize("icon.svg", in)
		if err != nil {
			t.Fatalf("Optimize() error = %v", err)
		}
		if !out.Reencoded || bytes.Contains(out.Data, []byte("exported by")) {
			t.Errorf("svg not minified: %s", out.Data)
		}
	})

	t.Run("corrupt png fails", func(t *testing.T) {
		t.Parallel()

		if _, err := o.Optimize("bad.png", []byte("not a png")); err == nil {
			t.Error("expected an error for corrupt png")
		}
	})

	t.Run("unsupported extension fails", func(t *testing.T) {
		t.Parallel()

		if _, err := o.Optimize("movie.webm", []byte{1, 2, 3}); !errors.Is(err, ErrUnsupportedImage) {
			t.Errorf("expected ErrUnsupportedImage, got %v", err)
		}
	})
}

func TestIsImage(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.png":        true,
		"a.jpg":        true,
		"a.JPEG":       true,
		"a.gif":        true,
		"a.svg":        true,
		"a_en.html":    false,
		"catalog.json": false,
		"noext":        false,
	}
	for name, want := range tests {
		if got := IsImage(name); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", name, got, want)
		}
	}
}
