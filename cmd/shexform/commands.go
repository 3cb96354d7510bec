package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"sigs.k8s.io/yaml"

	shexform "github.com/goliatone/go-shexform"
	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/orchestrator"
	"github.com/goliatone/go-shexform/pkg/renderers/tui"
	"github.com/goliatone/go-shexform/pkg/shex"
)

// SchemaFlags select the schema and how sessions are opened on it.
type SchemaFlags struct {
	Schema   string   `arg:"" optional:"" help:"Schema file, URL or - for stdin. Defaults to the config file entry."`
	Start    string   `name:"start" short:"s" help:"Start shape, as an IRI or its local name."`
	Root     string   `name:"root" help:"IRI of the document root."`
	Base     string   `name:"base" help:"Base IRI for relative IRIs in compact syntax."`
	Overlays []string `name:"overlay" help:"Directory of label overlays layered over the built-in ones." type:"existingdir"`
	Depth    int      `name:"depth" help:"Maximum nesting of shape references."`
}

func (f SchemaFlags) orchestrator(g *Globals, extra ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	cfg := g.Settings()
	options := []orchestrator.Option{orchestrator.WithLogger(slog.Default())}
	for _, dir := range append(append([]string(nil), cfg.Overlays...), f.Overlays...) {
		options = append(options, orchestrator.WithOverlayFS(os.DirFS(dir)))
	}
	depth := f.Depth
	if depth == 0 {
		depth = cfg.Depth
	}
	if depth > 0 {
		options = append(options, orchestrator.WithMaxReferenceDepth(depth))
	}
	if manifests := cfg.Theme.ThemeManifests(); len(manifests) > 0 {
		opt, err := shexform.WithThemes(cfg.Theme.Name, cfg.Theme.Variant, manifests...)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}

	orch := orchestrator.New(append(options, extra...)...)
	if err := orch.Err(); err != nil {
		return nil, err
	}
	return orch, nil
}

// request loads the schema once and resolves the start shape against it.
func (f SchemaFlags) request(ctx context.Context, g *Globals, env *Env, orch *orchestrator.Orchestrator) (orchestrator.Request, error) {
	cfg := g.Settings()
	src, err := parseSource(firstNonEmpty(f.Schema, cfg.Schema), env.Stdin)
	if err != nil {
		return orchestrator.Request{}, err
	}
	req := orchestrator.Request{
		Source:       src,
		RootURI:      firstNonEmpty(f.Root, cfg.Root),
		BaseURI:      firstNonEmpty(f.Base, cfg.Base),
		Renderer:     cfg.Renderer,
		ThemeName:    cfg.Theme.Name,
		ThemeVariant: cfg.Theme.Variant,
	}
	sch, err := orch.Schema(ctx, req)
	if err != nil {
		return orchestrator.Request{}, err
	}
	req.Schema = sch
	req.Start = resolveStart(sch, firstNonEmpty(f.Start, cfg.Start))
	return req, nil
}

// resolveStart maps a local name onto the IRI of the single shape carrying
// it. Anything else is returned unchanged for the session to reject.
func resolveStart(sch *shex.Schema, start string) string {
	if start == "" {
		return ""
	}
	if _, ok := sch.ShapeDecl(start); ok {
		return start
	}
	match := ""
	for _, decl := range sch.Shapes {
		if decl == nil || shex.LocalName(decl.ID) != start {
			continue
		}
		if match != "" {
			return start
		}
		match = decl.ID
	}
	return firstNonEmpty(match, start)
}

func readDocument(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return doc, nil
}

func writeOutput(env *Env, path string, data []byte, what string) error {
	if path == "" {
		_, err := env.Stdout.Write(data)
		if err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
			_, err = io.WriteString(env.Stdout, "\n")
		}
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err := fmt.Fprintf(env.Stdout, "%s written to %s\n", what, path)
	return err
}

// RenderCmd renders a form once.
type RenderCmd struct {
	SchemaFlags

	Renderer string `name:"renderer" short:"r" help:"Renderer to use (vanilla, jsonld)."`
	Document string `name:"document" short:"d" help:"JSON-LD or YAML document prefilling the form." type:"existingfile"`
	Action   string `name:"action" help:"URL the form posts to. Empty renders a read-only form."`
	Theme    string `name:"theme" help:"Theme name from the config file."`
	Variant  string `name:"variant" help:"Theme variant."`
	Output   string `name:"output" short:"o" help:"Output file (stdout if empty)." type:"path"`
}

func (c *RenderCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}
	if req.Document, err = readDocument(c.Document); err != nil {
		return err
	}
	req.Renderer = firstNonEmpty(c.Renderer, req.Renderer)
	req.ThemeName = firstNonEmpty(c.Theme, req.ThemeName)
	req.ThemeVariant = firstNonEmpty(c.Variant, req.ThemeVariant)
	req.RenderOptions.Action = c.Action

	out, err := orch.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generate form: %w", err)
	}
	return writeOutput(env, c.Output, out, "Form")
}

// FillCmd walks the form in the terminal and prints the document.
type FillCmd struct {
	SchemaFlags

	Document string `name:"document" short:"d" help:"JSON-LD or YAML document to start from." type:"existingfile"`
	Format   string `name:"format" short:"f" default:"json" enum:"json,yaml" help:"Output format (${enum})."`
	Attempts int    `name:"attempts" default:"3" help:"Prompts per field before moving on with an invalid value."`
	Output   string `name:"output" short:"o" help:"Output file (stdout if empty)." type:"path"`
}

func (c *FillCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	options := []tui.Option{
		tui.WithOutputFormat(tui.OutputFormat(c.Format)),
		tui.WithMaxAttempts(c.Attempts),
		tui.WithInfoWriter(env.Stderr),
		tui.WithLogger(slog.Default()),
	}
	if env.Prompts != nil {
		options = append(options, tui.WithPromptDriver(env.Prompts))
	}
	renderer, err := tui.New(options...)
	if err != nil {
		return err
	}

	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	if err := orch.Registry().Register(renderer); err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}
	if req.Document, err = readDocument(c.Document); err != nil {
		return err
	}
	req.Renderer = renderer.Name()

	out, err := orch.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("fill form: %w", err)
	}
	return writeOutput(env, c.Output, out, "Document")
}

// ShapesCmd lists the declared shapes and marks the start shape.
type ShapesCmd struct {
	SchemaFlags

	JSON bool `name:"json" help:"Print the list as JSON."`
}

func (c *ShapesCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}
	s, err := orch.NewSession(ctx, req)
	if err != nil {
		return err
	}

	choices := s.ShapeChoices()
	if c.JSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(choices)
	}
	w := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tSHAPE\tFLAGS")
	for _, choice := range choices {
		var flags []string
		if choice.Selected {
			flags = append(flags, "start")
		}
		if choice.Abstract {
			flags = append(flags, "abstract")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", choice.Label, choice.ID, strings.Join(flags, ","))
	}
	return w.Flush()
}

// LintCmd renders every concrete shape and reports the widgets that fall
// back to placeholders.
type LintCmd struct {
	SchemaFlags

	JSON bool `name:"json" help:"Print findings as JSON."`
}

// Finding is one construct the form cannot edit.
type Finding struct {
	Shape   string `json:"shape"`
	Node    string `json:"node"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (c *LintCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}

	var shapes []string
	if req.Start != "" {
		shapes = []string{req.Start}
	} else {
		for _, decl := range req.Schema.Shapes {
			if decl != nil && !decl.Abstract {
				shapes = append(shapes, decl.ID)
			}
		}
	}

	findings := []Finding{}
	for _, id := range shapes {
		shapeReq := req
		shapeReq.Start = id
		s, err := orch.NewSession(ctx, shapeReq)
		if err != nil {
			return err
		}
		s.Render().Walk(func(node *form.Node) bool {
			if node.Kind == form.KindPlaceholder {
				findings = append(findings, Finding{Shape: id, Node: node.ID, Path: node.Path, Message: node.Reason})
			}
			return true
		})
	}

	if c.JSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(findings); err != nil {
			return err
		}
	} else {
		for _, f := range findings {
			fmt.Fprintf(env.Stdout, "%s %s: %s\n", shex.LocalName(f.Shape), f.Path, f.Message)
		}
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d schema construct(s) cannot be edited", len(findings))
	}
	return nil
}

// ConvertCmd prints a schema as ShExJ.
type ConvertCmd struct {
	SchemaFlags

	Format    string `name:"format" short:"f" default:"json" enum:"json,yaml" help:"Output format (${enum})."`
	Canonical bool   `name:"canonical" help:"Emit canonical JSON (RFC 8785) instead of indented JSON."`
	Output    string `name:"output" short:"o" help:"Output file (stdout if empty)." type:"path"`
}

func (c *ConvertCmd) Run(ctx context.Context, g *Globals, env *Env) error {
	ctx = g.Context(ctx)
	orch, err := c.orchestrator(g)
	if err != nil {
		return err
	}
	req, err := c.request(ctx, g, env, orch)
	if err != nil {
		return err
	}

	var out []byte
	switch {
	case c.Format == "yaml":
		raw, err := json.Marshal(req.Schema)
		if err != nil {
			return fmt.Errorf("encode schema: %w", err)
		}
		if out, err = yaml.JSONToYAML(raw); err != nil {
			return fmt.Errorf("encode schema: %w", err)
		}
	case c.Canonical:
		raw, err := json.Marshal(req.Schema)
		if err != nil {
			return fmt.Errorf("encode schema: %w", err)
		}
		if out, err = jsoncanonicalizer.Transform(raw); err != nil {
			return fmt.Errorf("canonicalize schema: %w", err)
		}
	default:
		if out, err = json.MarshalIndent(req.Schema, "", "  "); err != nil {
			return fmt.Errorf("encode schema: %w", err)
		}
	}
	return writeOutput(env, c.Output, out, "Schema")
}
