package model

// ExtractedAsset is a content-addressed file produced by the transform
// stage. Its file name depends only on its content, so extracting the same
// bytes twice yields the same name and overwrites instead of duplicating.
type ExtractedAsset struct {
	// ContentHash is the hex digest of Bytes.
	ContentHash string

	// Extension is the file extension without the leading dot.
	Extension string

	// Bytes is the file content.
	Bytes []byte
}

// FileName returns "<hash>.<ext>".
func (a ExtractedAsset) FileName() string {
	return a.ContentHash + "." + a.Extension
}
