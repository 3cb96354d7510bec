package form

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/shex"
)

// ErrUnsupportedAction is returned when an action is invoked on a node kind
// that does not offer it.
var ErrUnsupportedAction = errors.New("form: action not supported by node")

// Kind classifies nodes of the widget tree.
type Kind string

const (
	KindShape       Kind = "shape"
	KindEachOf      Kind = "each-of"
	KindOneOf       Kind = "one-of"
	KindTriple      Kind = "triple"
	KindList        Kind = "list"
	KindItem        Kind = "item"
	KindIRI         Kind = "iri"
	KindLiteral     Kind = "literal"
	KindValues      Kind = "values"
	KindPlaceholder Kind = "placeholder"
)

// Choice is one entry of a selection control: an enumerated value or a OneOf
// alternative.
type Choice struct {
	Label string `json:"label"`
	Value any    `json:"value,omitempty"`
	IsIRI bool   `json:"isIRI,omitempty"`
}

// Node is one widget of the rendered form. Actions on a node raise events
// through the Context it was rendered with; the node itself never changes.
type Node struct {
	ID          string   `json:"id"`
	Kind        Kind     `json:"kind"`
	Label       string   `json:"label,omitempty"`
	Help        string   `json:"help,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	ShapeID     string   `json:"shape,omitempty"`
	Predicate   string   `json:"predicate,omitempty"`
	Path        string   `json:"path"`
	Widget      Widget   `json:"widget,omitempty"`
	Datatype    string   `json:"datatype,omitempty"`
	Value       any      `json:"value,omitempty"`
	Present     bool     `json:"present,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
	Selected    int      `json:"selected"`
	Optional    bool     `json:"optional,omitempty"`
	CanAdd      bool     `json:"canAdd,omitempty"`
	Count       int      `json:"count,omitempty"`
	Cardinality string   `json:"cardinality,omitempty"`
	Reason      string   `json:"reason,omitempty"`
	Errors      []string `json:"errors,omitempty"`
	Children    []*Node  `json:"children,omitempty"`

	ctx          Context
	editor       *PrimitiveEditor
	isIRIHint    bool
	object       any
	alternatives []shex.TripleExpr
}

// DocumentPath returns the document path the node edits.
func (n *Node) DocumentPath() document.Path {
	return n.ctx.Path
}

// Context returns the context the node was rendered with.
func (n *Node) Context() Context {
	return n.ctx
}

// Change submits raw input for an IRI or literal leaf.
func (n *Node) Change(raw string) error {
	switch n.Kind {
	case KindIRI:
		n.ctx.raiseChange(Change{Value: raw, IsIRI: true})
		return nil
	case KindLiteral:
		var value any = raw
		if n.editor != nil && n.editor.Parse != nil {
			value = n.editor.Parse(raw)
		}
		n.ctx.raiseChange(Change{Value: map[string]any{"@value": value}})
		return nil
	}
	return fmt.Errorf("%w: change on %s", ErrUnsupportedAction, n.Kind)
}

// SetBool stores a boolean literal; only checkbox leaves accept it.
func (n *Node) SetBool(value bool) error {
	if n.Kind != KindLiteral || n.Widget != WidgetCheckbox {
		return fmt.Errorf("%w: toggle on %s", ErrUnsupportedAction, n.Kind)
	}
	n.ctx.raiseChange(Change{Value: map[string]any{"@value": value}})
	return nil
}

// Choose stores the enumerated value at index.
func (n *Node) Choose(index int) error {
	switch n.Kind {
	case KindIRI, KindLiteral, KindValues:
	default:
		return fmt.Errorf("%w: choose on %s", ErrUnsupportedAction, n.Kind)
	}
	if index < 0 || index >= len(n.Choices) {
		return fmt.Errorf("form: choice %d out of range", index)
	}
	choice := n.Choices[index]
	if choice.IsIRI {
		n.ctx.raiseChange(Change{Value: choice.Value, IsIRI: true})
		return nil
	}
	n.ctx.raiseChange(Change{Value: choice.Value})
	return nil
}

// Clear removes the value of an optional slot.
func (n *Node) Clear() error {
	if !n.Optional {
		return fmt.Errorf("%w: clear on non-optional %s", ErrUnsupportedAction, n.Kind)
	}
	n.ctx.raiseRemove(Removal{Predicate: n.Predicate})
	return nil
}

// Add appends an empty element to a list.
func (n *Node) Add() error {
	if n.Kind != KindList {
		return fmt.Errorf("%w: add on %s", ErrUnsupportedAction, n.Kind)
	}
	if !n.CanAdd {
		return fmt.Errorf("form: list %s is full", n.Label)
	}
	n.ctx.Extend(document.Index(n.Count)).raiseAdd(n.isIRIHint)
	return nil
}

// Remove deletes a list item.
func (n *Node) Remove() error {
	if n.Kind != KindItem {
		return fmt.Errorf("%w: remove on %s", ErrUnsupportedAction, n.Kind)
	}
	n.ctx.raiseRemove(Removal{Predicate: n.Predicate, Object: n.object})
	return nil
}

// Select activates another OneOf alternative, retracting the predicates of
// the previously active one first.
func (n *Node) Select(index int) error {
	if n.Kind != KindOneOf {
		return fmt.Errorf("%w: select on %s", ErrUnsupportedAction, n.Kind)
	}
	if index < 0 || index >= len(n.Choices) {
		return fmt.Errorf("form: alternative %d out of range", index)
	}
	if index == n.Selected {
		return nil
	}
	for _, predicate := range alternativePredicates(n.alternatives, n.Selected) {
		slot := n.ctx.Extend(document.Key(predicate))
		if slot.Value() == nil {
			continue
		}
		slot.raiseRemove(Removal{Predicate: predicate})
	}
	n.ctx.opts.selections.Select(n.ID, index)
	return nil
}

// IsIRIHint reports whether list additions start as IRIs.
func (n *Node) IsIRIHint() bool {
	return n.isIRIHint
}

// Walk visits the node and its descendants depth first. Returning false from
// fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Find returns the descendant with the given ID.
func (n *Node) Find(id string) (*Node, bool) {
	var found *Node
	n.Walk(func(candidate *Node) bool {
		if found != nil {
			return false
		}
		if candidate.ID == id {
			found = candidate
			return false
		}
		return true
	})
	return found, found != nil
}

// Issue is an advisory validation message attached to a node.
type Issue struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Issues collects every validation message in the tree.
func (n *Node) Issues() []Issue {
	var out []Issue
	n.Walk(func(node *Node) bool {
		for _, msg := range node.Errors {
			out = append(out, Issue{ID: node.ID, Label: node.Label, Path: node.Path, Message: msg})
		}
		return true
	})
	return out
}
