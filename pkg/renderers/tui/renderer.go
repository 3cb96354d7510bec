package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/shex"
)

const (
	otherOption = "Other..."
	noneOption  = "(none)"
	// clearToken clears an optional value; survey returns the default on an
	// empty answer so an empty line cannot.
	clearToken = "-"
)

// Renderer implements render.Renderer for terminal-driven sessions. It walks
// the widget tree, prompts for every editable widget and applies the answers
// to the session, then serializes the produced document.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	prefixes     Prefixes
	maxAttempts  int
	infoOut      io.Writer
	logger       *slog.Logger
}

// Ensure Renderer implements the render.Renderer interface.
var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		maxAttempts:  3,
		logger:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatYAML:
	default:
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.infoOut)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	if r.outputFormat == OutputFormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// frame carries the label and help inherited from the enclosing triple.
type frame struct {
	label string
	help  string
}

// Render prompts through the form and returns the edited document.
func (r *Renderer) Render(ctx context.Context, s *session.Session, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, ErrNoDriver
	}
	if s == nil {
		return nil, errors.New("tui: session is nil")
	}

	if s.ShowStartShapeChooser() {
		if err := r.promptStart(ctx, s); err != nil {
			return nil, err
		}
	}

	root := s.Render()
	state := NewState(root, opts.Errors)
	for _, message := range state.FormErrors() {
		r.warn(ctx, message)
	}
	if err := r.promptNode(ctx, s, state, root.ID, frame{}); err != nil {
		return nil, err
	}
	return r.serialize(s.Document())
}

func (r *Renderer) promptStart(ctx context.Context, s *session.Session) error {
	choices := s.ShapeChoices()
	if len(choices) < 2 {
		return nil
	}
	options := make([]string, len(choices))
	selected := 0
	for i, choice := range choices {
		options[i] = choice.Label
		if choice.Abstract {
			options[i] += " (abstract)"
		}
		if choice.Selected {
			selected = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      "Start shape",
		Options:      options,
		DefaultIndex: selected,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx == selected {
		return nil
	}
	if err := s.Apply(session.Action{Kind: session.ActionStart, Value: choices[idx].ID}); err != nil {
		return fmt.Errorf("tui: select start shape: %w", err)
	}
	return nil
}

func (r *Renderer) promptNode(ctx context.Context, s *session.Session, state *State, id string, fr frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	node, ok := s.Find(id)
	if !ok {
		return nil
	}
	label := labelOf(node, fr)
	for _, message := range state.TakeErrors(id) {
		r.warn(ctx, fmt.Sprintf("%s: %s", label, message))
	}

	switch node.Kind {
	case form.KindShape:
		return r.promptShape(ctx, s, state, node, label)
	case form.KindEachOf:
		return r.promptChildren(ctx, s, state, id, fr)
	case form.KindTriple:
		return r.promptChildren(ctx, s, state, id, frame{label: node.Label, help: node.Help})
	case form.KindItem:
		return r.promptChildren(ctx, s, state, id, frame{label: node.Label, help: fr.help})
	case form.KindOneOf:
		return r.promptOneOf(ctx, s, state, node, fr)
	case form.KindList:
		return r.promptList(ctx, s, state, node, fr)
	case form.KindValues:
		return r.promptValues(ctx, s, state, node, label, fr.help)
	case form.KindIRI, form.KindLiteral:
		return r.promptLeaf(ctx, s, state, node, label, fr.help)
	case form.KindPlaceholder:
		r.info(ctx, fmt.Sprintf("%s: %s", label, node.Reason))
	}
	return nil
}

// promptChildren visits the children of id by position, re-rendering between
// visits because edits replace the snapshot.
func (r *Renderer) promptChildren(ctx context.Context, s *session.Session, state *State, id string, fr frame) error {
	for i := 0; ; i++ {
		node, ok := s.Find(id)
		if !ok || i >= len(node.Children) {
			return nil
		}
		if err := r.promptNode(ctx, s, state, node.Children[i].ID, fr); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptShape(ctx context.Context, s *session.Session, state *State, node *form.Node, label string) error {
	if node.Optional {
		include, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: "Fill in " + label + "?",
			Default: node.Present,
			Help:    node.Help,
		})
		if err != nil {
			return err
		}
		if !include {
			if node.Present {
				r.apply(s, session.Action{Kind: session.ActionClear, Node: node.ID})
			}
			return nil
		}
	}
	return r.promptChildren(ctx, s, state, node.ID, frame{})
}

func (r *Renderer) promptOneOf(ctx context.Context, s *session.Session, state *State, node *form.Node, fr frame) error {
	options := make([]string, len(node.Choices))
	for i, choice := range node.Choices {
		options[i] = choice.Label
	}
	message := "Choose an alternative"
	if fr.label != "" {
		message = "Choose " + fr.label
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      options,
		DefaultIndex: node.Selected,
		Help:         fr.help,
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx != node.Selected {
		r.apply(s, session.Action{Kind: session.ActionSelect, Node: node.ID, Index: idx})
	}
	return r.promptChildren(ctx, s, state, node.ID, fr)
}

func (r *Renderer) promptList(ctx context.Context, s *session.Session, state *State, node *form.Node, fr frame) error {
	label := labelOf(node, fr)

	if len(node.Children) > 0 {
		options := make([]string, len(node.Children))
		for i, item := range node.Children {
			options[i] = item.Label + ": " + itemSummary(item)
		}
		remove, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message: "Remove entries of " + label,
			Options: options,
		})
		if err != nil {
			return err
		}
		// Later items first so the IDs of earlier ones stay valid.
		for i := len(remove) - 1; i >= 0; i-- {
			if idx := remove[i]; idx >= 0 && idx < len(node.Children) {
				r.apply(s, session.Action{Kind: session.ActionRemove, Node: node.Children[idx].ID})
			}
		}
	}

	if err := r.promptChildren(ctx, s, state, node.ID, fr); err != nil {
		return err
	}

	for {
		current, ok := s.Find(node.ID)
		if !ok || !current.CanAdd {
			return nil
		}
		message := "Add " + label + "?"
		if current.Count > 0 {
			message = "Add another " + label + "?"
		}
		add, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: message,
			Default: len(current.Errors) > 0,
			Help:    fr.help,
		})
		if err != nil {
			return err
		}
		if !add || !r.apply(s, session.Action{Kind: session.ActionAdd, Node: node.ID}) {
			return nil
		}
		grown, ok := s.Find(node.ID)
		if !ok || len(grown.Children) == 0 {
			return nil
		}
		if err := r.promptNode(ctx, s, state, grown.Children[len(grown.Children)-1].ID, fr); err != nil {
			return err
		}
	}
}

func (r *Renderer) promptValues(ctx context.Context, s *session.Session, state *State, node *form.Node, label, help string) error {
	offset := 0
	options := make([]string, 0, len(node.Choices)+1)
	if node.Optional {
		options = append(options, noneOption)
		offset = 1
	}
	for _, choice := range node.Choices {
		options = append(options, choice.Label)
	}

	for attempt := 1; ; attempt++ {
		state.Prompted(node.ID)
		selected := 0
		if node.Present && node.Selected >= 0 {
			selected = node.Selected + offset
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: selected,
			Help:         help,
		})
		if err != nil {
			return err
		}
		if idx >= 0 {
			raw := ""
			if idx >= offset {
				raw = strconv.Itoa(idx - offset)
			}
			r.fill(ctx, s, node.ID, label, raw)
		}

		current, ok := s.Find(node.ID)
		if !ok || !r.reportIssues(ctx, current, label, attempt) {
			return nil
		}
		node = current
	}
}

func (r *Renderer) promptLeaf(ctx context.Context, s *session.Session, state *State, node *form.Node, label, help string) error {
	for attempt := 1; ; attempt++ {
		state.Prompted(node.ID)
		if err := r.askLeaf(ctx, s, node, label, help); err != nil {
			return err
		}
		current, ok := s.Find(node.ID)
		if !ok || !r.reportIssues(ctx, current, label, attempt) {
			return nil
		}
		node = current
	}
}

func (r *Renderer) askLeaf(ctx context.Context, s *session.Session, node *form.Node, label, help string) error {
	if node.Widget == form.WidgetCheckbox {
		current, _ := node.Value.(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})
		if err != nil {
			return err
		}
		r.fill(ctx, s, node.ID, label, strconv.FormatBool(answer))
		return nil
	}

	if len(node.Choices) > 0 {
		options := make([]string, 0, len(node.Choices)+1)
		for _, choice := range node.Choices {
			options = append(options, choice.Label)
		}
		options = append(options, otherOption)
		selected := len(options) - 1
		if node.Present && node.Selected >= 0 {
			selected = node.Selected
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: selected, Help: help})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(node.Choices) {
			if !node.Present || idx != node.Selected {
				r.apply(s, session.Action{Kind: session.ActionChoose, Node: node.ID, Index: idx})
			}
			return nil
		}
	}

	if node.Optional && node.Present {
		if help != "" {
			help += " "
		}
		help += "Enter " + clearToken + " to clear."
	}
	raw, err := r.driver.Input(ctx, InputConfig{
		Message:     label,
		Default:     form.FormatValue(node.Value),
		Help:        help,
		Placeholder: node.Placeholder,
		Validator:   inputValidator(node),
	})
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == clearToken {
		raw = ""
	}
	r.fill(ctx, s, node.ID, label, raw)
	return nil
}

// reportIssues prints the validation messages of node and reports whether
// it should be prompted again.
func (r *Renderer) reportIssues(ctx context.Context, node *form.Node, label string, attempt int) bool {
	if len(node.Errors) == 0 {
		return false
	}
	for _, message := range node.Errors {
		r.warn(ctx, fmt.Sprintf("%s: %s", label, message))
	}
	return attempt < r.maxAttempts
}

func (r *Renderer) fill(ctx context.Context, s *session.Session, id, label, raw string) {
	if err := s.Fill(id, raw); err != nil {
		r.logger.Warn("tui: edit rejected", "node", id, "error", err)
		r.warn(ctx, fmt.Sprintf("%s: %v", label, err))
	}
}

func (r *Renderer) apply(s *session.Session, action session.Action) bool {
	if err := s.Apply(action); err != nil {
		r.logger.Warn("tui: edit rejected", "action", action.String(), "error", err)
		return false
	}
	return true
}

func (r *Renderer) info(ctx context.Context, msg string) {
	_ = r.driver.Info(ctx, r.prefixes.Info+msg)
}

func (r *Renderer) warn(ctx context.Context, msg string) {
	_ = r.driver.Info(ctx, r.prefixes.Error+msg)
}

func (r *Renderer) serialize(doc any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatYAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("tui: encode yaml: %w", err)
		}
		return out, nil
	default:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return append(out, '\n'), nil
	}
}

func labelOf(node *form.Node, fr frame) string {
	switch {
	case fr.label != "":
		return fr.label
	case node.Label != "":
		return node.Label
	case node.Predicate != "":
		return shex.LocalName(node.Predicate)
	}
	return node.ID
}

// itemSummary describes a list entry by its first filled leaf.
func itemSummary(item *form.Node) string {
	summary := ""
	item.Walk(func(n *form.Node) bool {
		if summary != "" {
			return false
		}
		if (n.Kind == form.KindIRI || n.Kind == form.KindLiteral || n.Kind == form.KindValues) && n.Present {
			summary = form.FormatValue(n.Value)
		}
		return summary == ""
	})
	if summary == "" {
		return "(empty)"
	}
	return summary
}

func inputValidator(node *form.Node) func(string) error {
	if node.Widget != form.WidgetNumber {
		return nil
	}
	return func(text string) error {
		text = strings.TrimSpace(text)
		if text == "" || text == clearToken {
			return nil
		}
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return fmt.Errorf("%q is not a number", text)
		}
		return nil
	}
}
