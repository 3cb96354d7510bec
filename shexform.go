// Package shexform renders interactive input forms from ShEx schemas and
// edits the JSON-LD document the form describes. The subpackages hold the
// pieces; this package re-exports the common entry points.
package shexform

import (
	"context"

	"github.com/goliatone/go-shexform/pkg/orchestrator"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/schema"
	"github.com/goliatone/go-shexform/pkg/session"
	theme "github.com/goliatone/go-theme"
)

// RenderOptions describes per-request data renderers can use, such as the
// post URL or server-side validation errors.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// Session aliases session.Session, the owner of a form's document.
type Session = session.Session

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the schema source and renders the form starting at
// start (empty shows the shape chooser) with the named renderer.
func GenerateHTML(ctx context.Context, source schema.Source, start, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		Start:    start,
		Renderer: rendererName,
	})
}

// NewSession loads the schema source and opens an editable form session on
// it.
func NewSession(ctx context.Context, source schema.Source, rootURI string, options ...orchestrator.Option) (*session.Session, error) {
	gen := orchestrator.New(options...)
	return gen.NewSession(ctx, orchestrator.Request{
		Source:  source,
		RootURI: rootURI,
	})
}

// WithThemeSelector passes a go-theme selector through to the orchestrator so
// theme/variant choices can be resolved ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) orchestrator.Option {
	return orchestrator.WithThemeSelector(selector)
}

// WithThemes registers manifests with an in-memory selector and makes
// defaultTheme/defaultVariant the choice for requests that name none.
func WithThemes(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (orchestrator.Option, error) {
	selector, err := orchestrator.NewManifestSelector(manifests...)
	if err != nil {
		return nil, err
	}
	selector.SetDefaults(defaultTheme, defaultVariant)
	return orchestrator.WithThemeSelector(selector), nil
}

// WithThemeFallbacks forwards fallback partials used when deriving renderer
// configuration from a theme selection.
func WithThemeFallbacks(fallbacks map[string]string) orchestrator.Option {
	return orchestrator.WithThemeFallbacks(fallbacks)
}
