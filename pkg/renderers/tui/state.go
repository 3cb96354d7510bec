package tui

import (
	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/render"
)

// State tracks the caller feedback still to be shown and how often each
// widget was prompted during one Render call.
type State struct {
	feedback map[string][]string
	form     []string
	prompts  map[string]int
}

// NewState maps errs onto the widgets of root. Keys follow the rules of
// render.MapErrorPayload.
func NewState(root *form.Node, errs map[string][]string) *State {
	mapping := render.MapErrorPayload(root, errs)
	feedback := make(map[string][]string, len(mapping.Fields))
	for id, messages := range mapping.Fields {
		feedback[id] = messages
	}
	return &State{
		feedback: feedback,
		form:     mapping.Form,
		prompts:  make(map[string]int),
	}
}

// FormErrors returns the messages that match no widget.
func (s *State) FormErrors() []string {
	if s == nil {
		return nil
	}
	return s.form
}

// TakeErrors returns the caller feedback for id once; later calls return nil.
func (s *State) TakeErrors(id string) []string {
	if s == nil || len(s.feedback) == 0 {
		return nil
	}
	messages := s.feedback[id]
	delete(s.feedback, id)
	return messages
}

// Prompted records another prompt for id and returns the running count.
func (s *State) Prompted(id string) int {
	s.prompts[id]++
	return s.prompts[id]
}

// Prompts returns the total number of prompts issued.
func (s *State) Prompts() int {
	total := 0
	for _, n := range s.prompts {
		total += n
	}
	return total
}
