package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoLanguages is returned when no target language is configured.
	ErrNoLanguages = errors.New("no languages configured: set languages in the config file or use --lang")

	// ErrNoCategories is returned when no category title is configured.
	ErrNoCategories = errors.New("no categories configured")

	// ErrInvalidWorkers is returned when a concurrency limit is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidResolution is returned when the image resolution is not positive.
	ErrInvalidResolution = errors.New("invalid image resolution: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidJPEGQuality is returned when the JPEG quality is outside 1-100.
	ErrInvalidJPEGQuality = errors.New("invalid jpeg quality: must be between 1 and 100")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
