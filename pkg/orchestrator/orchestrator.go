package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	shexloader "github.com/goliatone/go-shexform/internal/shex/loader"
	shexparser "github.com/goliatone/go-shexform/internal/shex/parser"
	"github.com/goliatone/go-shexform/pkg/overlay"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/jsonld"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla"
	"github.com/goliatone/go-shexform/pkg/schema"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/shex"
	theme "github.com/goliatone/go-theme"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom schema loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects a custom schema parser.
func WithParser(parser schema.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithDecorators registers functions applied to every rendered tree after the
// overlay.
func WithDecorators(decorators ...session.Decorator) Option {
	return func(o *Orchestrator) {
		for _, decorate := range decorators {
			if decorate != nil {
				o.decorators = append(o.decorators, decorate)
			}
		}
	}
}

// WithOverlay replaces the embedded label overlay. Pass nil to disable
// overlays.
func WithOverlay(ov *overlay.Overlay) Option {
	return func(o *Orchestrator) {
		o.overlay = ov
		o.overlaySpecified = true
	}
}

// WithOverlayFS loads overlay documents from fsys and layers them over the
// embedded defaults.
func WithOverlayFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.overlayFS = append(o.overlayFS, fsys)
	}
}

// WithThemeSelector resolves theme/variant choices ahead of rendering.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeFallbacks overrides the partials used when a theme manifest does
// not provide a template for a key.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = maps.Clone(fallbacks)
	}
}

// WithMaxReferenceDepth bounds nested shape references of created sessions.
func WithMaxReferenceDepth(depth int) Option {
	return func(o *Orchestrator) {
		o.maxDepth = depth
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from schema source to rendered
// output. It applies defaults (ShExJ/ShExC parsing, vanilla and JSON-LD
// renderers, embedded overlays) while remaining open to dependency injection.
type Orchestrator struct {
	loader           schema.Loader
	parser           schema.Parser
	registry         *render.Registry
	defaultRenderer  string
	decorators       []session.Decorator
	overlay          *overlay.Overlay
	overlaySpecified bool
	overlayFS        []fs.FS
	themeSelector    theme.ThemeSelector
	themeFallbacks   map[string]string
	maxDepth         int
	logger           *slog.Logger
	initialiseErr    error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		themeFallbacks:  defaultThemeFallbacks(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes the inputs of one form rendering.
type Request struct {
	// Source identifies where the schema lives. Optional when Schema is set.
	Source schema.Source

	// Schema bypasses loading and parsing.
	Schema *shex.Schema

	// Renderer names the renderer to use. Empty falls back to the default.
	Renderer string

	// Start pins the start shape; empty shows the chooser.
	Start string

	// RootURI seeds the document "@id".
	RootURI string

	// BaseURI resolves relative IRIs of compact syntax sources.
	BaseURI string

	// Document prefills the form.
	Document map[string]any

	// ThemeName and ThemeVariant are passed to the theme selector.
	ThemeName    string
	ThemeVariant string

	// RenderOptions carries per-request renderer data. A Theme already set
	// here wins over the selector.
	RenderOptions render.RenderOptions
}

// Generate builds a session for req and renders it once.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	s, err := o.NewSession(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.Render(ctx, s, req)
}

// Render renders an existing session with the renderer and theme req names.
func (o *Orchestrator) Render(ctx context.Context, s *session.Session, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("orchestrator: session is nil")
	}

	renderer, err := o.RendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	options := req.RenderOptions
	if options.Theme == nil {
		cfg, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		options.Theme = cfg
	}

	o.log(ctx).Debug("rendering form",
		"renderer", renderer.Name(),
		"start", s.StartShape(),
		"version", s.Version(),
	)
	output, err := renderer.Render(ctx, s, options)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// NewSession resolves the schema of req and opens a form session on it with
// the configured overlays and decorators.
func (o *Orchestrator) NewSession(ctx context.Context, req Request) (*session.Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	sch, err := o.Schema(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := o.log(ctx)
	options := []session.Option{
		session.WithRootURI(req.RootURI),
		session.WithBaseURI(req.BaseURI),
		session.WithLogger(logger),
	}
	if req.Start != "" {
		options = append(options, session.WithStartShape(req.Start))
	}
	if req.Document != nil {
		options = append(options, session.WithDocument(req.Document))
	}
	if o.maxDepth > 0 {
		options = append(options, session.WithMaxReferenceDepth(o.maxDepth))
	}
	if o.overlay != nil && !o.overlay.Empty() {
		options = append(options, session.WithDecorator(o.overlay.Decorator()))
	}
	for _, decorate := range o.decorators {
		options = append(options, session.WithDecorator(decorate))
	}

	s, err := session.New(sch, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: new session: %w", err)
	}
	logger.Debug("session opened", "start", s.StartShape(), "root", s.RootURI())
	return s, nil
}

// Schema returns req.Schema or loads and parses req.Source.
func (o *Orchestrator) Schema(ctx context.Context, req Request) (*shex.Schema, error) {
	if req.Schema != nil {
		return req.Schema, nil
	}
	if req.Source == nil {
		return nil, errors.New("orchestrator: source or schema is required")
	}

	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load schema: %w", err)
	}

	if req.BaseURI != "" {
		doc = doc.WithBaseURI(req.BaseURI)
	}
	sch, err := o.parser.Parse(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: parse schema: %w", err)
	}
	o.log(ctx).Debug("schema parsed",
		"source", req.Source.Location(),
		"format", doc.Format(),
		"shapes", len(sch.Shapes),
	)
	return sch, nil
}

// RendererFor resolves a renderer by name, falling back to the default.
func (o *Orchestrator) RendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	renderer, err := o.registry.Resolve(strings.TrimSpace(name), o.defaultRenderer)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return renderer, nil
}

// Registry exposes the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Err reports a failure while initialising the defaults.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

func (o *Orchestrator) log(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger := slogcontext.FromCtx(ctx); logger != nil && logger != slog.Default() {
			return logger
		}
	}
	return o.logger
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.loader == nil {
		o.loader = shexloader.New(schema.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = shexparser.New(schema.NewParserOptions())
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
		o.registry.MustRegister(jsonld.New())
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	o.ensureOverlay()
}

func (o *Orchestrator) ensureOverlay() {
	if !o.overlaySpecified {
		defaults, err := overlay.Default()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load overlay: %w", err)
			return
		}
		o.overlay = defaults
	}
	for _, fsys := range o.overlayFS {
		loaded, err := overlay.LoadFS(fsys)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load overlay: %w", err)
			return
		}
		o.overlay = o.overlay.Layer(loaded)
	}
}
