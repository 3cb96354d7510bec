package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-shexform/pkg/session"
)

// ErrStaleVersion is returned when a submission was rendered from an older
// snapshot than the session currently holds.
var ErrStaleVersion = errors.New("server: form is out of date")

// Submission is a decoded form post (or websocket message) against a
// session.
type Submission struct {
	Version    int
	HasVersion bool
	// Shape is the start shape chooser value.
	Shape string
	// Action is the raw value of the pressed action button.
	Action string
	// Values maps node IDs to their submitted text.
	Values map[string]string
	// Checkboxes lists the checkbox widgets present in the form.
	Checkboxes []string
	// Choices maps node IDs to the index picked in their companion select.
	Choices map[string]string
}

// ParseSubmission decodes posted values. clean, when set, is applied to every
// widget value.
func ParseSubmission(values url.Values, clean func(string) string) (Submission, error) {
	sub := Submission{
		Values:  make(map[string]string),
		Choices: make(map[string]string),
	}
	if clean == nil {
		clean = func(raw string) string { return raw }
	}

	for name, all := range values {
		if len(all) == 0 {
			continue
		}
		value := all[len(all)-1]
		switch {
		case name == render.FieldVersion:
			version, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return Submission{}, fmt.Errorf("server: invalid %s %q", render.FieldVersion, value)
			}
			sub.Version, sub.HasVersion = version, true
		case name == render.FieldShape:
			sub.Shape = strings.TrimSpace(value)
		case name == components.FieldAction:
			sub.Action = strings.TrimSpace(value)
		case name == components.FieldCheckbox:
			sub.Checkboxes = append(sub.Checkboxes, all...)
		case strings.HasPrefix(name, components.ChoosePrefix):
			sub.Choices[strings.TrimPrefix(name, components.ChoosePrefix)] = strings.TrimSpace(value)
		case strings.HasPrefix(name, "_"):
		default:
			sub.Values[name] = clean(value)
		}
	}
	return sub, nil
}

// Apply replays the submission against s: a changed start shape wins over
// everything else, widget values are filled in form order and the action
// button runs last. It returns feedback keyed by node ID; the "" key holds
// form-level messages.
func (sub Submission) Apply(s *session.Session) (map[string][]string, error) {
	if sub.HasVersion && sub.Version != s.Version() {
		return nil, fmt.Errorf("%w: submitted version %d, current %d", ErrStaleVersion, sub.Version, s.Version())
	}

	feedback := make(map[string][]string)
	if sub.Shape != "" && sub.Shape != s.StartShape() {
		if err := s.SelectStartShape(sub.Shape); err != nil {
			feedback[""] = append(feedback[""], err.Error())
		}
		return feedback, nil
	}

	boxes := make(map[string]struct{}, len(sub.Checkboxes))
	for _, id := range sub.Checkboxes {
		boxes[id] = struct{}{}
	}

	for _, id := range leafIDs(s.Render()) {
		if picked, ok := sub.Choices[id]; ok && picked != "" {
			handled, err := sub.choose(s, id, picked)
			if err != nil {
				feedback[id] = append(feedback[id], message(err))
			}
			if handled {
				continue
			}
		}

		raw, ok := sub.Values[id]
		if _, box := boxes[id]; box {
			ok = true
		}
		if !ok {
			continue
		}
		if err := s.Fill(id, raw); err != nil {
			if errors.Is(err, session.ErrUnknownNode) {
				continue
			}
			feedback[id] = append(feedback[id], message(err))
		}
	}

	if sub.Action != "" {
		action, err := session.ParseAction(sub.Action)
		if err != nil {
			feedback[""] = append(feedback[""], message(err))
		} else if err := s.Apply(action); err != nil {
			feedback[action.Node] = append(feedback[action.Node], message(err))
		}
	}

	if len(feedback) == 0 {
		return nil, nil
	}
	return feedback, nil
}

// choose applies a companion select pick. It reports whether the pick was
// an edit, in which case the text input of the same widget is ignored.
func (sub Submission) choose(s *session.Session, id, picked string) (bool, error) {
	node, ok := s.Find(id)
	if !ok {
		return true, nil
	}
	index, err := strconv.Atoi(picked)
	if err != nil {
		return true, fmt.Errorf("invalid choice %q", picked)
	}
	if index == node.Selected {
		return false, nil
	}
	return true, s.Apply(session.Action{Kind: session.ActionChoose, Node: id, Index: index})
}

func leafIDs(root *form.Node) []string {
	var ids []string
	root.Walk(func(node *form.Node) bool {
		switch node.Kind {
		case form.KindIRI, form.KindLiteral, form.KindValues:
			ids = append(ids, node.ID)
		}
		return true
	})
	return ids
}

// message strips package prefixes from errors shown to form users.
func message(err error) string {
	text := err.Error()
	for _, prefix := range []string{"session: ", "form: ", "document: "} {
		text = strings.TrimPrefix(text, prefix)
	}
	return text
}
