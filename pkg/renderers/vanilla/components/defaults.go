package components

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/session"
)

const (
	templatePrefix = "templates/components/"

	// FieldAction is the name of the submit buttons carrying widget actions.
	FieldAction = "_action"
	// FieldCheckbox lists the checkbox widgets present in a submitted form so
	// unchecked boxes can be told apart from absent ones.
	FieldCheckbox = "_checkbox"
	// ChoosePrefix prefixes the companion select of enumerated leaves.
	ChoosePrefix = "_choose."
)

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// components used by the vanilla renderer.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(NameInput, Descriptor{
		Renderer: templateComponentRenderer("forms.input", templatePrefix+"input.tmpl"),
	})
	registry.MustRegister(NameIRI, Descriptor{
		Renderer: templateComponentRenderer("forms.iri", templatePrefix+"iri.tmpl"),
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl"),
	})
	registry.MustRegister(NameBoolean, Descriptor{
		Renderer: templateComponentRenderer("forms.checkbox", templatePrefix+"boolean.tmpl"),
	})
	registry.MustRegister(NamePlaceholder, Descriptor{
		Renderer: templateComponentRenderer("forms.placeholder", templatePrefix+"placeholder.tmpl"),
	})
	registry.MustRegister(NameShape, Descriptor{Renderer: shapeRenderer})
	registry.MustRegister(NameGroup, Descriptor{Renderer: groupRenderer})
	registry.MustRegister(NameOneOf, Descriptor{Renderer: oneOfRenderer})
	registry.MustRegister(NameTriple, Descriptor{Renderer: tripleRenderer})
	registry.MustRegister(NameList, Descriptor{Renderer: listRenderer})
	registry.MustRegister(NameItem, Descriptor{Renderer: itemRenderer})

	return registry
}

// ControlID is the HTML id of a widget's control.
func ControlID(node *form.Node) string {
	return "sf-" + node.ID
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolvedTemplate := templateName
		if data.ThemePartials != nil {
			if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
				resolvedTemplate = candidate
			}
		}

		payload := map[string]any{
			"node":        node,
			"control_id":  ControlID(node),
			"input_type":  inputType(node),
			"choices":     choiceOptions(node),
			"interactive": data.Interactive,
			"errors":      data.Errors,
			"clearable":   data.Interactive && node.Optional && node.Present,
			"clear":       session.Action{Kind: session.ActionClear, Node: node.ID}.String(),
			"choose_name": ChoosePrefix + node.ID,
			"action_name": FieldAction,
			"checkbox":    FieldCheckbox,
		}
		rendered, err := data.Template.RenderTemplate(resolvedTemplate, payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

type choiceOption struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Value    string `json:"value,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

func choiceOptions(node *form.Node) []choiceOption {
	if len(node.Choices) == 0 {
		return nil
	}
	out := make([]choiceOption, 0, len(node.Choices))
	for i, choice := range node.Choices {
		option := choiceOption{Index: i, Label: choice.Label, Selected: i == node.Selected}
		if iri, ok := choice.Value.(string); ok {
			option.Value = iri
		}
		out = append(out, option)
	}
	return out
}

func inputType(node *form.Node) string {
	switch node.Widget {
	case form.WidgetNumber:
		return "number"
	case form.WidgetIRI:
		return "url"
	case form.WidgetCheckbox:
		return "checkbox"
	}
	return "text"
}

func shapeRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<fieldset`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-shape")
	writeAttr(&b, "data-shape", node.ShapeID)
	writeAttr(&b, "data-path", node.Path)
	b.WriteString(`>`)
	if node.Label != "" {
		b.WriteString(`<legend class="shexform-legend">`)
		b.WriteString(html.EscapeString(node.Label))
		b.WriteString(`</legend>`)
	}
	writeHelp(&b, node)
	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	if data.Interactive && node.Optional && node.Present {
		writeButton(&b, session.Action{Kind: session.ActionClear, Node: node.ID}, "Clear "+node.Label, "shexform-clear")
	}
	writeErrors(&b, data.Errors)
	b.WriteString(`</fieldset>`)
	buf.WriteString(b.String())
	return nil
}

func groupRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<div`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-group")
	b.WriteString(`>`)
	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}

func oneOfRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<div`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-one-of")
	b.WriteString(` role="group">`)

	b.WriteString(`<div class="shexform-alternatives" role="radiogroup">`)
	for i, choice := range node.Choices {
		if !data.Interactive {
			if i == node.Selected {
				b.WriteString(`<span class="shexform-alternative" aria-checked="true">`)
				b.WriteString(html.EscapeString(choice.Label))
				b.WriteString(`</span>`)
			}
			continue
		}
		class := "shexform-alternative"
		if i == node.Selected {
			class += " is-selected"
		}
		b.WriteString(`<button type="submit" role="radio"`)
		writeAttr(&b, "name", FieldAction)
		writeAttr(&b, "value", session.Action{Kind: session.ActionSelect, Node: node.ID, Index: i}.String())
		writeAttr(&b, "class", class)
		fmt.Fprintf(&b, ` aria-checked="%t">`, i == node.Selected)
		b.WriteString(html.EscapeString(choice.Label))
		b.WriteString(`</button>`)
	}
	b.WriteString(`</div>`)

	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}

func tripleRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<div`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-triple")
	writeAttr(&b, "data-predicate", node.Predicate)
	b.WriteString(`>`)

	b.WriteString(`<label class="shexform-label"`)
	if len(node.Children) > 0 && isLeaf(node.Children[0]) {
		writeAttr(&b, "for", ControlID(node.Children[0]))
	}
	writeAttr(&b, "title", node.Predicate)
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(node.Label))
	if node.Cardinality != "" {
		b.WriteString(` <span class="shexform-cardinality">`)
		b.WriteString(html.EscapeString(node.Cardinality))
		b.WriteString(`</span>`)
	}
	b.WriteString(`</label>`)
	writeHelp(&b, node)
	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	writeErrors(&b, data.Errors)
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}

func listRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<div`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-list")
	writeAttr(&b, "data-count", fmt.Sprint(node.Count))
	b.WriteString(`>`)
	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	if data.Interactive && node.CanAdd {
		writeButton(&b, session.Action{Kind: session.ActionAdd, Node: node.ID}, "Add "+node.Label, "shexform-add")
	}
	writeErrors(&b, data.Errors)
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}

func itemRenderer(buf *bytes.Buffer, node *form.Node, data ComponentData) error {
	var b strings.Builder
	b.WriteString(`<div`)
	writeAttr(&b, "id", ControlID(node))
	writeAttr(&b, "class", "shexform-item")
	writeAttr(&b, "data-path", node.Path)
	b.WriteString(`>`)
	if err := writeChildren(&b, node, data); err != nil {
		return err
	}
	if data.Interactive {
		writeButton(&b, session.Action{Kind: session.ActionRemove, Node: node.ID}, "Remove "+node.Label, "shexform-remove")
	}
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}

func isLeaf(node *form.Node) bool {
	switch node.Kind {
	case form.KindIRI, form.KindLiteral, form.KindValues:
		return true
	}
	return false
}

func writeChildren(b *strings.Builder, node *form.Node, data ComponentData) error {
	if data.RenderChild == nil {
		return nil
	}
	for _, child := range node.Children {
		rendered, err := data.RenderChild(child)
		if err != nil {
			return err
		}
		b.WriteString(rendered)
	}
	return nil
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(html.EscapeString(value))
	b.WriteByte('"')
}

func writeButton(b *strings.Builder, action session.Action, label, class string) {
	b.WriteString(`<button type="submit"`)
	writeAttr(b, "name", FieldAction)
	writeAttr(b, "value", action.String())
	writeAttr(b, "class", "shexform-button "+class)
	b.WriteString(`>`)
	b.WriteString(html.EscapeString(label))
	b.WriteString(`</button>`)
}

// writeHelp emits help text. Help reaching the renderer has already been
// sanitised by the overlay, so it is written as markup.
func writeHelp(b *strings.Builder, node *form.Node) {
	if strings.TrimSpace(node.Help) == "" {
		return
	}
	b.WriteString(`<div class="shexform-help">`)
	b.WriteString(node.Help)
	b.WriteString(`</div>`)
}

func writeErrors(b *strings.Builder, messages []string) {
	if len(messages) == 0 {
		return
	}
	b.WriteString(`<ul class="shexform-errors" role="alert">`)
	for _, message := range messages {
		b.WriteString(`<li>`)
		b.WriteString(html.EscapeString(message))
		b.WriteString(`</li>`)
	}
	b.WriteString(`</ul>`)
}
