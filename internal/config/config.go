package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the catalog site root.
	DefaultBaseURL = "https://phet.colorado.edu"

	// DefaultWorkers is the concurrency limit for metadata fetches,
	// downloads, and image optimization.
	DefaultWorkers = 10

	// DefaultCategoryWorkers is the concurrency limit for category listing
	// fetches. The listing endpoint answers 503 under load, so this stays low.
	DefaultCategoryWorkers = 2

	// DefaultCategoryRate is the number of category listing requests per second.
	DefaultCategoryRate = 2.0

	// DefaultImageResolution is the screenshot width suffix, as in "<id>-600.png".
	DefaultImageResolution = 600

	// DefaultStateDir is the root of the stage directories.
	DefaultStateDir = "state"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultJPEGQuality is the re-encoding quality for JPEG screenshots.
	DefaultJPEGQuality = 85

	// DefaultUserAgent identifies phetcrawl in HTTP requests.
	DefaultUserAgent = "phetcrawl/1.0 (+https://github.com/nao1215/phetcrawl)"

	// AppName is the application name used for XDG directory paths.
	AppName = "phetcrawl"

	// FetchStageDir is the crawl stage output directory under StateDir.
	FetchStageDir = "get"

	// TransformStageDir is the transform stage output directory under StateDir.
	TransformStageDir = "transform"
)

// Environment variables read by ApplyEnv.
const (
	EnvWorkers       = "PHET_WORKERS"
	EnvVerboseErrors = "PHET_VERBOSE_ERRORS"
	EnvLanguages     = "PHET_LANGUAGES"
)

// DefaultLanguages returns the languages crawled when nothing is configured.
func DefaultLanguages() []string {
	return []string{"en"}
}

// DefaultCategories returns the category titles whose listing pages feed
// the category tree.
func DefaultCategories() []string {
	return []string{"Physics", "Biology", "Chemistry", "Earth Science", "Math"}
}

// Config holds all configuration options for phetcrawl.
// It is populated from defaults, the config file, the environment, and CLI
// flags, then passed down explicitly; nothing reads it from global state.
type Config struct {
	// BaseURL is the catalog site root without a trailing slash.
	BaseURL string

	// Languages are the locale codes whose offline-access pages are crawled.
	Languages []string

	// Categories are the category titles used to build the category tree.
	Categories []string

	// Workers is the concurrency limit for most network and CPU bound stages.
	Workers int

	// CategoryWorkers is the concurrency limit for category listing fetches.
	CategoryWorkers int

	// CategoryRate caps category listing requests per second. Zero disables
	// the limiter.
	CategoryRate float64

	// ImageResolution is the screenshot resolution suffix.
	ImageResolution int

	// StateDir is the root directory holding the stage directories.
	StateDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// JPEGQuality is the JPEG re-encoding quality (1-100).
	JPEGQuality int

	// Verbose enables debug logging and full error detail on failures.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .phetcrawl in the current and home directories.
	ConfigFilePath string

	// SaveToDB records crawl runs in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string

	// JSONReport prints the run summary as JSON.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the run summary to a file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		Languages:       DefaultLanguages(),
		Categories:      DefaultCategories(),
		Workers:         DefaultWorkers,
		CategoryWorkers: DefaultCategoryWorkers,
		CategoryRate:    DefaultCategoryRate,
		ImageResolution: DefaultImageResolution,
		StateDir:        DefaultStateDir,
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		JPEGQuality:     DefaultJPEGQuality,
		SaveToDB:        true,
		DBDir:           XDGDataDir(),
	}
}

// FetchDir returns the crawl stage directory.
func (c *Config) FetchDir() string {
	return filepath.Join(c.StateDir, FetchStageDir)
}

// TransformDir returns the transform stage directory.
func (c *Config) TransformDir() string {
	return filepath.Join(c.StateDir, TransformStageDir)
}

// CatalogPath returns the path of catalog.json in the fetch stage directory.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.FetchDir(), "catalog.json")
}

// ApplyFile overrides the configuration with the non-zero values of f.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if len(f.Languages) > 0 {
		c.Languages = f.Languages
	}
	if len(f.Categories) > 0 {
		c.Categories = f.Categories
	}
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	if f.CategoryWorkers > 0 {
		c.CategoryWorkers = f.CategoryWorkers
	}
	if f.CategoryRate > 0 {
		c.CategoryRate = f.CategoryRate
	}
	if f.ImageResolution > 0 {
		c.ImageResolution = f.ImageResolution
	}
	if f.StateDir != "" {
		c.StateDir = f.StateDir
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.JPEGQuality > 0 {
		c.JPEGQuality = f.JPEGQuality
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
}

// ApplyEnv overrides the configuration from environment variables.
// lookup is normally os.LookupEnv. Malformed values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvWorkers); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Workers = n
		}
	}
	if v, ok := lookup(EnvVerboseErrors); ok {
		c.Verbose = strings.TrimSpace(v) == "true"
	}
	if v, ok := lookup(EnvLanguages); ok {
		langs := splitList(v)
		if len(langs) > 0 {
			c.Languages = langs
		}
	}
}

// splitList splits a comma separated list, dropping empty entries.
func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// XDGDataDir returns the XDG data directory for phetcrawl.
// On Linux: ~/.local/share/phetcrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phetcrawl.
// On Linux: ~/.config/phetcrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Languages) == 0 {
		return ErrNoLanguages
	}

	if len(c.Categories) == 0 {
		return ErrNoCategories
	}

	if c.Workers <= 0 || c.CategoryWorkers <= 0 {
		return ErrInvalidWorkers
	}

	if c.ImageResolution <= 0 {
		return ErrInvalidResolution
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return ErrInvalidJPEGQuality
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
