package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/phetcrawl/internal/model"
)

// Step is one rewrite applied to a document.
type Step interface {
	// Do rewrites doc in place. An error aborts the remaining steps for
	// this document.
	Do(ctx context.Context, doc *model.Document) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// StepFunc adapts a plain function to the Step interface.
type StepFunc struct {
	name string
	fn   func(ctx context.Context, doc *model.Document) error
}

// NewStepFunc creates a named Step from fn.
func NewStepFunc(name string, fn func(ctx context.Context, doc *model.Document) error) StepFunc {
	return StepFunc{name: name, fn: fn}
}

// Do calls the wrapped function.
func (s StepFunc) Do(ctx context.Context, doc *model.Document) error {
	return s.fn(ctx, doc)
}

// Name returns the step name.
func (s StepFunc) Name() string {
	return s.name
}

// Pipeline executes steps over a document in the order they were added.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// onStep is called after every successful step.
	onStep func(step string)
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithStepHook registers a callback invoked after every successful step.
// The transform driver uses it to count completed steps per name.
func WithStepHook(fn func(step string)) Option {
	return func(p *Pipeline) {
		p.onStep = fn
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps over doc in sequence. It stops at the first
// failing step and returns its error wrapped with the step name.
func (p *Pipeline) Execute(ctx context.Context, doc *model.Document) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"document", doc.Name,
		)

		if err := step.Do(ctx, doc); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}

		if p.onStep != nil {
			p.onStep(step.Name())
		}
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
