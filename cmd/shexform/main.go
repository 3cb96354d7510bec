// Command shexform renders, fills and serves forms derived from ShEx
// schemas.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/goliatone/go-shexform/pkg/renderers/tui"
	"github.com/goliatone/go-shexform/pkg/schema"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML file providing defaults for the flags below." type:"path"`
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})."`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format (${enum})."`

	config *Config
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render  RenderCmd  `cmd:"" help:"Render a schema as an HTML form or JSON-LD."`
	Fill    FillCmd    `cmd:"" help:"Fill a document interactively in the terminal."`
	Serve   ServeCmd   `cmd:"" help:"Serve form sessions over HTTP."`
	Shapes  ShapesCmd  `cmd:"" help:"List the shapes a schema declares."`
	Lint    LintCmd    `cmd:"" help:"Report schema constructs the form cannot edit."`
	Convert ConvertCmd `cmd:"" help:"Convert a schema to ShExJ."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// Env carries the process streams. Tests swap them out.
type Env struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Prompts tui.PromptDriver
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
	var cli CLI
	parser, err := newParser(ctx, &cli, env, kong.UsageOnError())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = kctx.Run(&cli.Globals)
	kctx.FatalIfErrorf(err)
}

func newParser(ctx context.Context, cli *CLI, env *Env, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("shexform"),
		kong.Description("Forms from Shape Expressions schemas."),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(env.Stdout, env.Stderr),
		kong.Bind(env),
		kong.BindTo(ctx, (*context.Context)(nil)),
	}, options...)
	return kong.New(cli, options...)
}

// AfterApply loads the config file and installs the logger before any
// command runs.
func (c *CLI) AfterApply(env *Env) error {
	cfg, err := LoadConfig(c.Config)
	if err != nil {
		return err
	}
	c.config = cfg
	slog.SetDefault(newLogger(env.Stderr, c.LogLevel, c.LogFormat))
	return nil
}

// Settings returns the loaded config file, empty when none was given.
func (g *Globals) Settings() *Config {
	if g.config == nil {
		return &Config{}
	}
	return g.config
}

// Context attaches the default logger to ctx.
func (g *Globals) Context(ctx context.Context) context.Context {
	return slogcontext.NewCtx(ctx, slog.Default())
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseSource maps a CLI argument onto a schema source: URLs are fetched,
// "-" reads stdin and anything else is a file path.
func parseSource(raw string, stdin io.Reader) (schema.Source, error) {
	path := strings.TrimSpace(raw)
	switch {
	case path == "":
		return nil, fmt.Errorf("schema source is required")
	case path == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return schema.SourceFromText("stdin", string(data)), nil
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return schema.SourceFromURL(path), nil
	}
	return schema.SourceFromFile(path), nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	_, err := fmt.Fprintf(env.Stdout, "shexform %s\n", version)
	return err
}
