package transform

import (
	"bytes"
	"fmt"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	"github.com/tdewolff/minify/v2"
)

// Optimized is the result of optimizing one image.
type Optimized struct {
	// Data is the output; never larger than the input.
	Data []byte

	// Reencoded is true when Data differs from the input.
	Reencoded bool

	// MetadataTags is the number of EXIF tags dropped by re-encoding.
	MetadataTags int
}

// Optimizer applies the format-specific optimization for an image file.
type Optimizer struct {
	minifier    *minify.M
	jpegQuality int
}

// NewOptimizer creates an Optimizer. A nil minifier means NewMinifier().
func NewOptimizer(m *minify.M, jpegQuality int) *Optimizer {
	if m == nil {
		m = NewMinifier()
	}
	return &Optimizer{minifier: m, jpegQuality: jpegQuality}
}

// IsImage reports whether name has an extension Optimize supports.
func IsImage(name string) bool {
	switch imageFormat(name) {
	case "png", "jpeg", "gif", "svg":
		return true
	default:
		return false
	}
}

func imageFormat(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	ext := strings.ToLower(name[i+1:])
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

// Optimize optimizes data according to the extension of name. The smaller
// of the input and the optimized output is kept.
func (o *Optimizer) Optimize(name string, data []byte) (Optimized, error) {
	var (
		out []byte
		err error
	)
	format := imageFormat(name)
	switch format {
	case "png":
		out, err = optimizePNG(data)
	case "jpeg":
		out, err = optimizeJPEG(data, o.jpegQuality)
	case "gif":
		out, err = optimizeGIF(data)
	case "svg":
		out, err = o.minifier.Bytes(mediaSVG, data)
	default:
		return Optimized{}, fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
	}
	if err != nil {
		return Optimized{}, fmt.Errorf("failed to optimize %s: %w", format, err)
	}

	if len(out) >= len(data) {
		return Optimized{Data: data}, nil
	}

	result := Optimized{Data: out, Reencoded: true}
	if format == "jpeg" {
		result.MetadataTags = countExifTags(data)
	}
	return result, nil
}

func optimizePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optimizeJPEG(data []byte, quality int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optimizeGIF(data []byte) ([]byte, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// countExifTags returns the number of EXIF tags in a JPEG, or 0 if it has none.
func countExifTags(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return 0
	}
	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 0
	}
	return len(entries)
}
