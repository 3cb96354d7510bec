package form

import (
	"net/url"
	"strings"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/shex"
)

const defaultMaxReferenceDepth = 4

// Change is the payload of an OnChange event.
type Change struct {
	Value any
	IsIRI bool
}

// Removal is the payload of an OnRemove event. Object carries the removed
// element when a list item is deleted.
type Removal struct {
	Predicate string
	Object    any
}

// Events are the sinks widgets raise edits through. Nil handlers are skipped.
type Events struct {
	OnChange          func(ctx Context, change Change)
	OnRemove          func(ctx Context, removal Removal)
	OnAddEmptyElement func(ctx Context, isIRI bool)
}

type slot int

const (
	slotRequired slot = iota
	slotOptional
	slotItem
)

// Option customises how a Context renders.
type Option func(*options)

type options struct {
	datatypes  *DatatypeRegistry
	selections Selections
	maxDepth   int
	baseURI    string
}

// WithDatatypes replaces the primitive editor registry.
func WithDatatypes(registry *DatatypeRegistry) Option {
	return func(o *options) {
		if registry != nil {
			o.datatypes = registry
		}
	}
}

// WithSelections supplies the store that remembers OneOf choices between
// renders.
func WithSelections(store Selections) Option {
	return func(o *options) {
		if store != nil {
			o.selections = store
		}
	}
}

// WithMaxReferenceDepth bounds how many by-id references are followed along a
// single branch.
func WithMaxReferenceDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithBaseURI records the schema base URI on the context.
func WithBaseURI(base string) Option {
	return func(o *options) {
		o.baseURI = base
	}
}

// Context is the per-render environment handed to every widget: the schema,
// the document snapshot, the path of the widget's slot and the event sinks.
// It is a value; deriving a child never affects the parent.
type Context struct {
	Schema   *shex.Schema
	Document any
	Path     document.Path
	BaseURI  string
	Events   Events

	opts  *options
	trail []string
	depth int
	slot  slot
}

// NewContext prepares a root context for rendering doc against schema.
func NewContext(schema *shex.Schema, doc any, events Events, opts ...Option) Context {
	cfg := &options{maxDepth: defaultMaxReferenceDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.datatypes == nil {
		cfg.datatypes = NewDatatypeRegistry()
	}
	if cfg.selections == nil {
		cfg.selections = NewSelections()
	}
	return Context{
		Schema:   schema,
		Document: doc,
		BaseURI:  cfg.baseURI,
		Events:   events,
		opts:     cfg,
		trail:    []string{"root"},
	}
}

// Extend returns a context whose path has steps appended.
func (c Context) Extend(steps ...document.Step) Context {
	c.Path = c.Path.Extend(steps...)
	return c
}

// Value returns the document node at the context path, nil when absent.
func (c Context) Value() any {
	node, err := document.Subtree(c.Document, c.Path)
	if err != nil {
		return nil
	}
	return node
}

// ID identifies the widget rendered for this context. It is stable across
// renders as long as the schema does not change.
func (c Context) ID() string {
	parts := make([]string, len(c.trail))
	for i, segment := range c.trail {
		parts[i] = url.PathEscape(segment)
	}
	return strings.Join(parts, "/")
}

func (c Context) child(segment string) Context {
	trail := make([]string, 0, len(c.trail)+1)
	trail = append(trail, c.trail...)
	c.trail = append(trail, segment)
	return c
}

// normalized fills in what a zero or hand-built Context lacks.
func (c Context) normalized() Context {
	if c.opts == nil {
		base := NewContext(c.Schema, c.Document, c.Events, WithBaseURI(c.BaseURI))
		base.Path = c.Path
		c = base
	}
	if len(c.trail) == 0 {
		c.trail = []string{"root"}
	}
	return c
}

func (c Context) raiseChange(change Change) {
	if c.Events.OnChange != nil {
		c.Events.OnChange(c, change)
	}
}

func (c Context) raiseRemove(removal Removal) {
	if c.Events.OnRemove != nil {
		c.Events.OnRemove(c, removal)
	}
}

func (c Context) raiseAdd(isIRI bool) {
	if c.Events.OnAddEmptyElement != nil {
		c.Events.OnAddEmptyElement(c, isIRI)
	}
}
