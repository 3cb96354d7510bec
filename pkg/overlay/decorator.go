package overlay

import (
	"fmt"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/session"
)

// Decorator returns a session decorator applying the overlay to every
// rendered tree. Shape overrides apply to shape widgets, predicate overrides
// to triple and list widgets (labels and help) and to their leaves
// (placeholders).
func (o *Overlay) Decorator() session.Decorator {
	return func(root *form.Node) {
		if o.Empty() {
			return
		}
		o.decorate(root)
	}
}

func (o *Overlay) decorate(node *form.Node) {
	if node == nil {
		return
	}

	switch node.Kind {
	case form.KindShape:
		if text, ok := o.Shape(node.ShapeID); ok {
			applyLabel(node, text)
		}
	case form.KindTriple:
		if text, ok := o.Predicate(node.Predicate); ok {
			applyLabel(node, text)
		}
	case form.KindList:
		if text, ok := o.Predicate(node.Predicate); ok && text.Label != "" {
			node.Label = text.Label
			for i, item := range node.Children {
				if item.Kind == form.KindItem {
					item.Label = fmt.Sprintf("%s %d", text.Label, i+1)
				}
			}
		}
	case form.KindIRI, form.KindLiteral, form.KindValues:
		if text, ok := o.Predicate(node.Predicate); ok && text.Placeholder != "" {
			node.Placeholder = text.Placeholder
		}
	}

	for _, child := range node.Children {
		o.decorate(child)
	}
}

func applyLabel(node *form.Node, text Text) {
	if text.Label != "" {
		node.Label = text.Label
	}
	if text.Help != "" {
		node.Help = text.Help
	}
}
