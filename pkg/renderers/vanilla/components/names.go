package components

import "github.com/goliatone/go-shexform/pkg/form"

// Canonical component names used by the vanilla renderer and default registry.
const (
	NameShape       = "shape"
	NameGroup       = "group"
	NameOneOf       = "one-of"
	NameTriple      = "triple"
	NameList        = "list"
	NameItem        = "item"
	NameInput       = "input"
	NameIRI         = "iri"
	NameSelect      = "select"
	NameBoolean     = "boolean"
	NamePlaceholder = "placeholder"
)

// NameFor returns the default component for a widget.
func NameFor(node *form.Node) string {
	switch node.Kind {
	case form.KindShape:
		return NameShape
	case form.KindEachOf:
		return NameGroup
	case form.KindOneOf:
		return NameOneOf
	case form.KindTriple:
		return NameTriple
	case form.KindList:
		return NameList
	case form.KindItem:
		return NameItem
	case form.KindIRI:
		return NameIRI
	case form.KindValues:
		return NameSelect
	case form.KindLiteral:
		if node.Widget == form.WidgetCheckbox {
			return NameBoolean
		}
		return NameInput
	}
	return NamePlaceholder
}
