package transform

import (
	"io"
	"log/slog"

	"github.com/cheggaaa/pb/v3"
	"github.com/nao1215/phetcrawl/internal/log"
)

// progress reports per-file completion. Implementations are safe for
// concurrent use.
type progress interface {
	Increment(name string)
	Finish()
}

// newProgress draws a bar on a terminal and logs one line per file otherwise.
// A nil writer disables progress output.
func newProgress(w io.Writer, label string, total int, logger *slog.Logger) progress {
	if w == nil || total == 0 {
		return nopProgress{}
	}
	if !log.IsTerminal(w) {
		return &logProgress{logger: logger, label: label}
	}
	bar := pb.New(total)
	bar.SetWriter(w)
	bar.Set("prefix", label+" ")
	bar.Start()
	return &barProgress{bar: bar}
}

type barProgress struct {
	bar *pb.ProgressBar
}

func (p *barProgress) Increment(string) { p.bar.Increment() }
func (p *barProgress) Finish()          { p.bar.Finish() }

type logProgress struct {
	logger *slog.Logger
	label  string
}

func (p *logProgress) Increment(name string) { p.logger.Info("+ "+name, "stage", p.label) }
func (p *logProgress) Finish()               {}

type nopProgress struct{}

func (nopProgress) Increment(string) {}
func (nopProgress) Finish()          {}
