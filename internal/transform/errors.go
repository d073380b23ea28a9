package transform

import "errors"

var (
	// ErrUnterminatedLicenseBlock is returned when a document has a license
	// start marker but no end marker after it.
	ErrUnterminatedLicenseBlock = errors.New("license block has no end marker")

	// ErrMinify is returned when the markup minifier rejects a document.
	ErrMinify = errors.New("failed to minify document")

	// ErrUnsupportedImage is returned for an image extension with no optimizer.
	ErrUnsupportedImage = errors.New("unsupported image format")
)
