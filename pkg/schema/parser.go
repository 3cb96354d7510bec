package schema

import (
	"context"

	"github.com/goliatone/go-shexform/pkg/shex"
)

// Parser turns a loaded Document into a schema.
type Parser interface {
	Parse(ctx context.Context, doc Document) (*shex.Schema, error)
}

// ParserOptions configures parsing.
type ParserOptions struct {
	// BaseURI resolves relative IRIs of compact syntax schemas that do not
	// declare a BASE.
	BaseURI string

	// Format pins the input format; FormatAuto detects it per document.
	Format Format

	// SkipValidation disables the structural check of ShExJ input.
	SkipValidation bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithBaseURI sets the base for relative IRIs.
func WithBaseURI(base string) ParserOption {
	return func(opts *ParserOptions) {
		opts.BaseURI = base
	}
}

// WithFormat pins the input format.
func WithFormat(format Format) ParserOption {
	return func(opts *ParserOptions) {
		opts.Format = format
	}
}

// WithoutValidation skips the ShExJ structural check.
func WithoutValidation() ParserOption {
	return func(opts *ParserOptions) {
		opts.SkipValidation = true
	}
}

// NewParserOptions applies ParserOption functions and returns the resulting
// configuration.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
