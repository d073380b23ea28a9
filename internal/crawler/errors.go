package crawler

import "errors"

var (
	// ErrUnexpectedStatus is returned when the site answers with a status
	// other than 200. The status code is included in the wrapping message.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrMissingDownloadLink is returned when a simulation detail page has
	// no download link to derive the canonical id and language from.
	ErrMissingDownloadLink = errors.New("simulation page has no download link")

	// ErrCategoryTreeEmpty is returned when no category listing could be
	// fetched while building the category tree.
	ErrCategoryTreeEmpty = errors.New("no category listing could be fetched")
)
