package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/shex"
)

var (
	// ErrNoShapes is returned when the schema declares nothing to render.
	ErrNoShapes = errors.New("session: schema declares no shapes")
	// ErrUnknownShape is returned when a start shape is not declared.
	ErrUnknownShape = errors.New("session: unknown shape")
	// ErrRootIdentity is reported when an edit would drop or replace the
	// document "@id".
	ErrRootIdentity = errors.New("session: edit would change the document @id")
)

// Decorator adjusts a rendered tree before it is returned, for example to
// apply label overlays.
type Decorator func(root *form.Node)

// Session owns the document being edited against one schema. Widgets
// rendered by a session raise their edits back into it; edits are applied
// one at a time in call order.
type Session struct {
	mu sync.Mutex

	schema      *shex.Schema
	logger      *slog.Logger
	rootURI     string
	baseURI     string
	start       string
	explicit    bool
	doc         any
	version     int
	err         error
	selections  form.Selections
	datatypes   *form.DatatypeRegistry
	maxDepth    int
	decorators  []Decorator
	initialDoc  map[string]any
	initialFrom bool
}

// New prepares a session for schema. The document is seeded with the root
// URI as "@id" unless WithDocument supplies one.
func New(schema *shex.Schema, opts ...Option) (*Session, error) {
	if schema == nil {
		return nil, fmt.Errorf("session: schema is nil")
	}
	s := &Session{schema: schema}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.applyDefaults()

	if err := s.pickStart(); err != nil {
		return nil, err
	}

	if s.initialFrom {
		s.doc = seedDocument(s.initialDoc, s.rootURI)
	} else {
		s.doc = document.New(s.rootURI)
	}
	return s, nil
}

func (s *Session) applyDefaults() {
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.selections == nil {
		s.selections = form.NewSelections()
	}
	if s.datatypes == nil {
		s.datatypes = form.NewDatatypeRegistry()
	}
}

func (s *Session) pickStart() error {
	ids := s.schema.ShapeIDs()
	if len(ids) == 0 {
		return ErrNoShapes
	}
	if s.start != "" {
		if _, ok := s.schema.ShapeDecl(s.start); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownShape, s.start)
		}
		s.explicit = true
		return nil
	}
	if decl, ok := s.schema.StartShape(); ok {
		s.start = decl.ID
		return nil
	}
	s.start = ids[0]
	return nil
}

func seedDocument(doc map[string]any, rootURI string) map[string]any {
	out := make(map[string]any, len(doc)+1)
	for key, value := range doc {
		out[key] = value
	}
	if id, ok := out["@id"].(string); !ok || id == "" {
		out["@id"] = rootURI
	}
	return out
}

// Schema returns the schema the session renders.
func (s *Session) Schema() *shex.Schema {
	return s.schema
}

// RootURI returns the identity of the edited document.
func (s *Session) RootURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if root, ok := s.doc.(map[string]any); ok {
		if id, ok := root["@id"].(string); ok {
			return id
		}
	}
	return s.rootURI
}

// Document returns the current snapshot. Snapshots are never mutated, so the
// value stays valid after later edits.
func (s *Session) Document() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Version counts accepted edits.
func (s *Session) Version() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Err reports why the most recent edit was rejected, or nil when it was
// applied.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// StartShape returns the id of the shape the form starts from.
func (s *Session) StartShape() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// ShapeChoice is one entry of the start shape chooser.
type ShapeChoice struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Abstract bool   `json:"abstract,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

// ShapeChoices lists every declared shape in declaration order.
func (s *Session) ShapeChoices() []ShapeChoice {
	start := s.StartShape()
	out := make([]ShapeChoice, 0, len(s.schema.Shapes))
	for _, decl := range s.schema.Shapes {
		if decl == nil {
			continue
		}
		out = append(out, ShapeChoice{
			ID:       decl.ID,
			Label:    shex.LocalName(decl.ID),
			Abstract: decl.Abstract,
			Selected: decl.ID == start,
		})
	}
	return out
}

// ShowStartShapeChooser reports whether the start shape was inferred rather
// than requested, in which case a chooser is offered.
func (s *Session) ShowStartShapeChooser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.explicit
}

// SelectStartShape switches the form to another declared shape and forgets
// OneOf selections. The document is kept.
func (s *Session) SelectStartShape(id string) error {
	if _, ok := s.schema.ShapeDecl(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownShape, id)
	}
	s.mu.Lock()
	changed := s.start != id
	s.start = id
	s.mu.Unlock()

	if changed {
		s.selections.Reset()
		s.logger.Debug("start shape selected", "shape", id)
	}
	return nil
}

// Render builds the widget tree for the current snapshot. Widgets raise
// their edits into the session.
func (s *Session) Render() *form.Node {
	s.mu.Lock()
	doc := s.doc
	start := s.start
	s.mu.Unlock()

	decl, _ := s.schema.ShapeDecl(start)
	ctx := form.NewContext(s.schema, doc, s.events(),
		form.WithSelections(s.selections),
		form.WithDatatypes(s.datatypes),
		form.WithMaxReferenceDepth(s.maxDepth),
		form.WithBaseURI(s.baseURI),
	)
	root := form.Render(ctx, decl)
	for _, decorate := range s.decorators {
		decorate(root)
	}
	return root
}

// Find renders the current snapshot and returns the widget with id.
func (s *Session) Find(id string) (*form.Node, bool) {
	return s.Render().Find(id)
}

// Issues renders the current snapshot and collects its advisory messages.
func (s *Session) Issues() []form.Issue {
	return s.Render().Issues()
}

func (s *Session) events() form.Events {
	return form.Events{
		OnChange:          s.OnChange,
		OnRemove:          s.OnRemove,
		OnAddEmptyElement: s.OnAddEmptyElement,
	}
}

// OnChange stores change at the widget's path.
func (s *Session) OnChange(ctx form.Context, change form.Change) {
	s.apply("change", ctx.Path, func(doc any) (any, error) {
		return document.Set(doc, ctx.Path, change.Value, change.IsIRI)
	})
}

// OnRemove deletes the slot at the widget's path. Removing a list item also
// renumbers the OneOf choices made inside the items that follow it.
func (s *Session) OnRemove(ctx form.Context, removal form.Removal) {
	err := s.apply("remove", ctx.Path, func(doc any) (any, error) {
		return document.Remove(doc, ctx.Path)
	}, "predicate", removal.Predicate)
	if err != nil {
		return
	}
	if step, ok := ctx.Path.Last(); ok && step.IsIndex() {
		if list, ok := strings.CutSuffix(ctx.ID(), "/"+strconv.Itoa(step.Index())); ok {
			s.selections.Shift(list, step.Index())
		}
	}
}

// OnAddEmptyElement stores an empty element at the widget's path.
func (s *Session) OnAddEmptyElement(ctx form.Context, isIRI bool) {
	s.apply("add", ctx.Path, func(doc any) (any, error) {
		return document.Set(doc, ctx.Path, nil, isIRI)
	}, "iri", isIRI)
}

func (s *Session) apply(op string, path document.Path, edit func(any) (any, error), attrs ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := edit(s.doc)
	if err == nil {
		err = checkIdentity(s.doc, next)
	}
	if err != nil {
		s.err = err
		s.logger.Warn("edit rejected",
			append([]any{"op", op, "path", path.String(), "error", err}, attrs...)...)
		return err
	}
	s.doc = next
	s.version++
	s.err = nil
	s.logger.Debug("edit applied",
		append([]any{"op", op, "path", path.String(), "version", s.version}, attrs...)...)
	return nil
}

func checkIdentity(prev, next any) error {
	before, ok := prev.(map[string]any)
	if !ok {
		return nil
	}
	after, ok := next.(map[string]any)
	if !ok {
		return ErrRootIdentity
	}
	want, _ := before["@id"].(string)
	got, present := after["@id"].(string)
	if !present || got != want {
		return ErrRootIdentity
	}
	return nil
}
