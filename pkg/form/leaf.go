package form

import (
	"fmt"

	"github.com/goliatone/go-shexform/pkg/shex"
)

// renderLeaf maps a node constraint under a triple constraint to an input
// widget. IRI constraints edit a bare string; datatyped literals edit the
// "@value" of a mapping through the datatype registry; value sets add a
// selection over their literal and IRI entries.
func renderLeaf(ctx Context, nc *shex.NodeConstraint) *Node {
	choices := valueChoices(nc.Values)

	switch nc.NodeKind {
	case shex.NodeKindIRI:
		node := leafNode(ctx, KindIRI, WidgetIRI)
		node.Value, node.Present = iriValue(ctx.Value())
		node.Choices = choices
		node.Selected = selectedChoice(choices, node.Value, true)
		node.Errors = validateIRI(ctx, nc, node)
		return node
	case shex.NodeKindBNode, shex.NodeKindNonLiteral:
		return placeholder(ctx, "", fmt.Sprintf("node kind %s is not implemented", nc.NodeKind))
	}

	if nc.Datatype != "" {
		editor, ok := ctx.opts.datatypes.Lookup(nc.Datatype)
		if !ok {
			node := placeholder(ctx, "", fmt.Sprintf("datatype %s is not supported", shex.LocalName(nc.Datatype)))
			node.Datatype = nc.Datatype
			return node
		}
		return literalNode(ctx, nc, editor, choices)
	}

	if len(nc.Values) > 0 {
		node := leafNode(ctx, KindValues, WidgetSelect)
		node.Choices = choices
		raw := ctx.Value()
		if value, present := iriValue(raw); present {
			node.Value, node.Present = value, true
			node.Selected = selectedChoice(choices, value, true)
		} else if value, present := literalValue(raw); present {
			node.Value, node.Present = value, true
			node.Selected = selectedChoice(choices, value, false)
		}
		if ctx.slot != slotOptional && !node.Present {
			node.Errors = append(node.Errors, "a value is required")
		}
		return node
	}

	editor, _ := ctx.opts.datatypes.Lookup(XSDString)
	return literalNode(ctx, nc, editor, choices)
}

func leafNode(ctx Context, kind Kind, widget Widget) *Node {
	return &Node{
		ID:       ctx.ID(),
		Kind:     kind,
		Widget:   widget,
		Path:     ctx.Path.String(),
		Selected: -1,
		ctx:      ctx,
	}
}

func literalNode(ctx Context, nc *shex.NodeConstraint, editor PrimitiveEditor, choices []Choice) *Node {
	node := leafNode(ctx, KindLiteral, editor.Widget)
	node.Datatype = nc.Datatype
	node.editor = &editor
	node.Value, node.Present = literalValue(ctx.Value())
	if editor.Widget == WidgetCheckbox {
		checked, _ := node.Value.(bool)
		node.Value = checked
	}
	node.Choices = choices
	node.Selected = selectedChoice(choices, node.Value, false)
	node.Errors = validateLiteral(ctx, nc, editor, node)
	return node
}

func valueChoices(values []shex.ValueSetValue) []Choice {
	var out []Choice
	for _, value := range values {
		switch {
		case value.IsIRI():
			out = append(out, Choice{Label: shex.LocalName(value.IRI), Value: value.IRI, IsIRI: true})
		case value.IsLiteral():
			lit := map[string]any{"@value": value.Literal.Value}
			if value.Literal.Language != "" {
				lit["@language"] = value.Literal.Language
			}
			if value.Literal.Type != "" {
				lit["@type"] = value.Literal.Type
			}
			out = append(out, Choice{Label: value.Literal.Value, Value: lit})
		}
	}
	return out
}

func selectedChoice(choices []Choice, current any, isIRI bool) int {
	if current == nil {
		return -1
	}
	for i, choice := range choices {
		if choice.IsIRI != isIRI {
			continue
		}
		if choice.IsIRI {
			if choice.Value == current {
				return i
			}
			continue
		}
		lit, _ := choice.Value.(map[string]any)
		if FormatValue(lit["@value"]) == FormatValue(current) {
			return i
		}
	}
	return -1
}

// iriValue reads an IRI slot. Expanded {"@id": iri} nodes are accepted for
// prefilled documents.
func iriValue(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, v != ""
	case map[string]any:
		if id, ok := v["@id"].(string); ok {
			return id, id != ""
		}
	}
	return "", false
}

// literalValue reads the "@value" of a literal slot. Bare scalars are accepted
// for prefilled documents.
func literalValue(raw any) (any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case map[string]any:
		value, ok := v["@value"]
		return value, ok
	case string, float64, int64, int, bool:
		return v, true
	}
	return nil, false
}
