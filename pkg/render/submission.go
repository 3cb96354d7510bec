package render

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Names of the hidden inputs the HTML renderers emit and the server reads
// back.
const (
	FieldVersion = "_version"
	FieldShape   = "_shape"
)

// HiddenField is one hidden input of a rendered form.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden formats value as a hidden input called name.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// VersionField echoes the session version a form was rendered from; the
// server refuses posts whose version is stale.
func VersionField(version int) HiddenField {
	return Hidden(FieldVersion, version)
}

// HiddenFields combines caller-supplied inputs with fields, which win on
// name clashes, and returns them ordered by name. Blank names are dropped.
func HiddenFields(base map[string]string, fields ...HiddenField) []HiddenField {
	byName := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		byName[strings.TrimSpace(name)] = value
	}
	for _, field := range fields {
		byName[field.Name] = field.Value
	}
	delete(byName, "")

	var out []HiddenField
	for _, name := range slices.Sorted(maps.Keys(byName)) {
		out = append(out, HiddenField{Name: name, Value: byName[name]})
	}
	return out
}
