package tui

import (
	"errors"
	"io"
	"log/slog"
)

var (
	// ErrAborted reports that the user interrupted a prompt.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoDriver is returned when the renderer has no prompt driver.
	ErrNoDriver = errors.New("tui: prompt driver is nil")
)

// OutputFormat is the encoding of the document a fill session produces.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Prefixes are prepended to the messages the renderer prints between
// prompts.
type Prefixes struct {
	Info  string
	Error string
}

type Option func(*Renderer)

// WithPromptDriver replaces the survey driver, typically in tests.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

func WithPrefixes(prefixes Prefixes) Option {
	return func(r *Renderer) { r.prefixes = prefixes }
}

// WithMaxAttempts bounds how often a widget is asked again while it still
// reports validation messages. Values below one keep the default of three.
func WithMaxAttempts(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithInfoWriter is where the survey driver prints messages.
func WithInfoWriter(w io.Writer) Option {
	return func(r *Renderer) {
		if w != nil {
			r.infoOut = w
		}
	}
}

// WithLogger receives a warning for every rejected edit.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
