package session

import (
	"log/slog"

	"github.com/goliatone/go-shexform/pkg/form"
)

// Option configures a Session.
type Option func(*Session)

// WithRootURI sets the "@id" of a freshly seeded document.
func WithRootURI(uri string) Option {
	return func(s *Session) {
		s.rootURI = uri
	}
}

// WithBaseURI records the base URI the schema was parsed against.
func WithBaseURI(uri string) Option {
	return func(s *Session) {
		s.baseURI = uri
	}
}

// WithStartShape starts the form from the shape with id and hides the
// chooser.
func WithStartShape(id string) Option {
	return func(s *Session) {
		s.start = id
	}
}

// WithDocument prefills the session. The map is copied; a missing "@id" is
// filled from the root URI.
func WithDocument(doc map[string]any) Option {
	return func(s *Session) {
		if doc == nil {
			return
		}
		s.initialDoc = doc
		s.initialFrom = true
	}
}

// WithLogger sets the logger rejected and applied edits are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDatatypes replaces the primitive editor registry.
func WithDatatypes(registry *form.DatatypeRegistry) Option {
	return func(s *Session) {
		if registry != nil {
			s.datatypes = registry
		}
	}
}

// WithMaxReferenceDepth bounds nested shape references per branch.
func WithMaxReferenceDepth(depth int) Option {
	return func(s *Session) {
		s.maxDepth = depth
	}
}

// WithDecorator registers a function applied to every rendered tree.
func WithDecorator(decorate Decorator) Option {
	return func(s *Session) {
		if decorate != nil {
			s.decorators = append(s.decorators, decorate)
		}
	}
}
