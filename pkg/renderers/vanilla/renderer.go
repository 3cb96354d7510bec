package vanilla

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-shexform/pkg/render"
	rendertemplate "github.com/goliatone/go-shexform/pkg/render/template"
	gotemplate "github.com/goliatone/go-shexform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/shex"
)

const (
	pageTemplate   = "templates/form.tmpl"
	pagePartialKey = "forms.page"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *components.Registry
	hideDocument     bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// WithoutDocument omits the JSON preview of the edited document.
func WithoutDocument() Option {
	return func(cfg *config) {
		cfg.hideDocument = true
	}
}

// Renderer renders a session as a self-contained HTML page. Widgets are
// named by node ID and actions travel as submit buttons so the page works
// without scripts; a live URL upgrades it to websocket edits.
type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	registry     *components.Registry
	hideDocument bool
}

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	registry := cfg.registry
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	return &Renderer{
		templates:    renderer,
		registry:     registry,
		hideDocument: cfg.hideDocument,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(ctx context.Context, s *session.Session, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, errors.New("vanilla renderer: template renderer is nil")
	}
	if s == nil {
		return nil, errors.New("vanilla renderer: session is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := s.Render()
	mapped := render.MapErrorPayload(root, options.Errors)
	interactive := options.Action != "" || options.LiveURL != ""

	var partials map[string]string
	if options.Theme != nil {
		partials = options.Theme.Partials
	}

	walker := newComponentRenderer(r.templates, r.registry, partials)
	walker.errors = widgetErrors(render.IssueErrors(root), mapped)
	walker.interactive = interactive

	body, err := walker.render(root)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}

	page := map[string]any{
		"title":       pageTitle(root.Label, s.StartShape()),
		"action":      options.Action,
		"live_url":    options.LiveURL,
		"version":     s.Version(),
		"interactive": interactive,
		"start_field": render.FieldShape,
		"errors":      mapped.Form,
		"body":        body,
		"hidden":      render.HiddenFields(options.HiddenFields, render.VersionField(s.Version())),
	}
	if s.ShowStartShapeChooser() {
		page["chooser"] = s.ShapeChoices()
	}
	if !r.hideDocument {
		page["document"] = documentJSON(s.Document())
	}
	if options.LiveURL != "" {
		page["live_script"] = liveScript()
	}
	applyTheme(page, options.Theme, walker.stylesheets())

	template := pageTemplate
	if candidate := strings.TrimSpace(partials[pagePartialKey]); candidate != "" {
		template = candidate
	}
	result, err := r.templates.RenderTemplate(template, map[string]any{"form": page})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func applyTheme(page map[string]any, cfg *theme.RendererConfig, componentSheets []string) {
	stylesheets := componentSheets
	var href string
	if cfg != nil {
		page["theme"] = cfg.Theme
		page["variant"] = cfg.Variant
		page["theme_css"] = cssVarsStyle(cfg.CSSVars)
		if cfg.AssetURL != nil {
			href = cfg.AssetURL(stylesheetAssetKey)
		}
	}
	if href != "" {
		stylesheets = append([]string{href}, stylesheets...)
	} else {
		page["inline_css"] = defaultStylesheet()
	}
	page["stylesheets"] = stylesheets
}

func pageTitle(label, start string) string {
	if strings.TrimSpace(label) != "" {
		return label
	}
	return shex.LocalName(start)
}
