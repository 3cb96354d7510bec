package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-shexform/pkg/form"
)

var (
	// ErrUnknownNode is returned when an action names a widget the current
	// snapshot does not render.
	ErrUnknownNode = errors.New("session: unknown widget")
	// ErrUnknownAction is returned for unrecognised action kinds.
	ErrUnknownAction = errors.New("session: unknown action")
)

// ActionKind names a widget interaction.
type ActionKind string

const (
	ActionChange ActionKind = "change"
	ActionToggle ActionKind = "toggle"
	ActionChoose ActionKind = "choose"
	ActionClear  ActionKind = "clear"
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
	ActionSelect ActionKind = "select"
	ActionStart  ActionKind = "start"
)

// Action is a serialisable widget interaction, used by transports that cannot
// hold on to rendered nodes (HTML posts, websocket messages).
type Action struct {
	Kind  ActionKind `json:"op"`
	Node  string     `json:"node,omitempty"`
	Value string     `json:"value,omitempty"`
	Index int        `json:"index,omitempty"`
}

// String encodes the action as "<op> <node> [index]", the form used by submit
// buttons. Node IDs never contain spaces.
func (a Action) String() string {
	switch a.Kind {
	case ActionSelect, ActionChoose:
		return fmt.Sprintf("%s %s %d", a.Kind, a.Node, a.Index)
	case ActionStart:
		return fmt.Sprintf("%s %s", a.Kind, a.Value)
	}
	return fmt.Sprintf("%s %s", a.Kind, a.Node)
}

// ParseAction decodes the String form of a button action.
func ParseAction(raw string) (Action, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
	a := Action{Kind: ActionKind(fields[0]), Node: fields[1]}
	switch a.Kind {
	case ActionSelect, ActionChoose:
		if len(fields) != 3 {
			return Action{}, fmt.Errorf("%w: %s needs an index", ErrUnknownAction, a.Kind)
		}
		index, err := strconv.Atoi(fields[2])
		if err != nil {
			return Action{}, fmt.Errorf("%w: invalid index %q", ErrUnknownAction, fields[2])
		}
		a.Index = index
	case ActionStart:
		a.Node, a.Value = "", fields[1]
	case ActionClear, ActionAdd, ActionRemove:
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, fields[0])
	}
	return a, nil
}

// Apply performs a against the current snapshot. It returns the widget error,
// or the session error when the resulting edit was rejected.
func (s *Session) Apply(a Action) error {
	if a.Kind == ActionStart {
		return s.SelectStartShape(a.Value)
	}

	node, ok := s.Find(a.Node)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, a.Node)
	}

	s.resetErr()
	var err error
	switch a.Kind {
	case ActionChange:
		err = node.Change(a.Value)
	case ActionToggle:
		value, perr := strconv.ParseBool(a.Value)
		if perr != nil {
			return fmt.Errorf("session: toggle %s: %w", a.Node, perr)
		}
		err = node.SetBool(value)
	case ActionChoose:
		err = node.Choose(a.Index)
	case ActionClear:
		err = node.Clear()
	case ActionAdd:
		err = node.Add()
	case ActionRemove:
		err = node.Remove()
	case ActionSelect:
		err = node.Select(a.Index)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	if err != nil {
		return err
	}
	return s.Err()
}

func (s *Session) resetErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// Fill applies an input value to the widget with id the way a submitted
// form field is read: empty input clears optional values, enumerated
// widgets take a choice index, checkboxes take "true"/"false" and other
// leaves take the raw text. Unchanged values raise no edit.
func (s *Session) Fill(id, raw string) error {
	node, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	switch {
	case node.Kind == form.KindValues:
		if raw == "" {
			if node.Present && node.Optional {
				return s.Apply(Action{Kind: ActionClear, Node: id})
			}
			return nil
		}
		index, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("session: choice for %s: %w", id, err)
		}
		if index == node.Selected {
			return nil
		}
		return s.Apply(Action{Kind: ActionChoose, Node: id, Index: index})
	case node.Widget == form.WidgetCheckbox:
		checked, _ := node.Value.(bool)
		want := raw == "true" || raw == "on"
		if node.Present && checked == want {
			return nil
		}
		return s.Apply(Action{Kind: ActionToggle, Node: id, Value: strconv.FormatBool(want)})
	case node.Kind == form.KindIRI || node.Kind == form.KindLiteral:
		if raw == form.FormatValue(node.Value) && (node.Present || raw == "") {
			return nil
		}
		if raw == "" && node.Optional {
			return s.Apply(Action{Kind: ActionClear, Node: id})
		}
		return s.Apply(Action{Kind: ActionChange, Node: id, Value: raw})
	}
	return fmt.Errorf("%w: %s does not take input", form.ErrUnsupportedAction, node.Kind)
}
