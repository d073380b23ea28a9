package model

// AssetKind distinguishes the two kinds of files downloaded by the crawl stage.
type AssetKind string

const (
	// AssetDocument is a simulation HTML document.
	AssetDocument AssetKind = "document"

	// AssetImage is a simulation screenshot.
	AssetImage AssetKind = "image"
)

// DownloadTarget is one URL to fetch together with the file it is stored as.
type DownloadTarget struct {
	// Kind is the asset kind.
	Kind AssetKind `json:"kind"`

	// URL is the absolute source URL.
	URL string `json:"url"`

	// FileName is the base name inside the fetch-stage directory.
	FileName string `json:"file_name"`
}

// DownloadResult records the outcome of one download.
type DownloadResult struct {
	DownloadTarget

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int `json:"status_code"`

	// Bytes is the number of bytes written on success.
	Bytes int64 `json:"bytes"`

	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`
}

// OK reports whether the download succeeded.
func (r DownloadResult) OK() bool {
	return r.Error == ""
}
