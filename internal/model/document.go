package model

// Document is one HTML document moving through the transform steps. Each
// step replaces Text with its rewritten form.
type Document struct {
	// Name is the base file name, e.g. "build-an-atom_en.html".
	Name string

	// Text is the current document content.
	Text string
}
