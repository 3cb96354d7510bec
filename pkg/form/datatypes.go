package form

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Well-known XML Schema datatypes with built-in editors.
const (
	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Widget names the input control a leaf renders as.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetNumber   Widget = "number"
	WidgetCheckbox Widget = "checkbox"
	WidgetIRI      Widget = "iri"
	WidgetSelect   Widget = "select"
)

// PrimitiveEditor describes how a literal datatype is edited: the control,
// how raw input becomes an "@value", and how an "@value" is displayed.
type PrimitiveEditor struct {
	Widget Widget
	// Parse converts user input. Input that cannot be converted is returned
	// unchanged so validation can flag it without dropping the edit.
	Parse func(raw string) any
	// Check reports why a stored value is not acceptable, or "".
	Check func(value any) string
}

// DatatypeRegistry maps datatype IRIs to primitive editors. Unknown datatypes
// render as placeholders.
type DatatypeRegistry struct {
	mu      sync.RWMutex
	editors map[string]PrimitiveEditor
}

// NewDatatypeRegistry returns a registry holding the xsd:string, xsd:integer
// and xsd:boolean editors.
func NewDatatypeRegistry() *DatatypeRegistry {
	r := &DatatypeRegistry{editors: make(map[string]PrimitiveEditor)}
	r.Register(XSDString, stringEditor())
	r.Register(XSDInteger, integerEditor())
	r.Register(XSDBoolean, booleanEditor())
	return r
}

// Register adds or replaces the editor for datatype.
func (r *DatatypeRegistry) Register(datatype string, editor PrimitiveEditor) {
	if editor.Parse == nil {
		editor.Parse = func(raw string) any { return raw }
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[datatype] = editor
}

// Lookup returns the editor registered for datatype.
func (r *DatatypeRegistry) Lookup(datatype string) (PrimitiveEditor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	editor, ok := r.editors[datatype]
	return editor, ok
}

func stringEditor() PrimitiveEditor {
	return PrimitiveEditor{
		Widget: WidgetText,
		Parse:  func(raw string) any { return raw },
	}
}

func integerEditor() PrimitiveEditor {
	return PrimitiveEditor{
		Widget: WidgetNumber,
		Parse: func(raw string) any {
			trimmed := strings.TrimSpace(raw)
			if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				return n
			}
			return raw
		},
		Check: func(value any) string {
			if _, ok := toInteger(value); !ok {
				return fmt.Sprintf("%v is not a valid integer", value)
			}
			return ""
		},
	}
}

func booleanEditor() PrimitiveEditor {
	return PrimitiveEditor{
		Widget: WidgetCheckbox,
		Parse: func(raw string) any {
			switch strings.ToLower(strings.TrimSpace(raw)) {
			case "true", "1", "on", "yes":
				return true
			}
			return false
		},
	}
}

func toInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// FormatValue renders a stored "@value" for display in a text control.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(value)
}
