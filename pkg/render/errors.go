package render

import (
	"strings"

	"github.com/goliatone/go-shexform/pkg/form"
)

// ErrorMapping splits feedback into widget-level messages keyed by node ID and
// form-level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// For returns the messages attached to the widget with id.
func (m ErrorMapping) For(id string) []string {
	if m.Fields == nil {
		return nil
	}
	return m.Fields[id]
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload attaches payload messages to widgets of root. Keys may be
// node IDs, document paths as printed by document.Path.String, or predicate
// IRIs; predicate keys bind to the first widget editing that predicate.
// Unknown keys become form-level messages so nothing is lost.
func MapErrorPayload(root *form.Node, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	index := indexNodes(root)
	for key, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		id, ok := index.lookup(strings.TrimSpace(key))
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}
		mapping.Fields[id] = normalizeMessages(append(mapping.Fields[id], normalized...))
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// IssueErrors maps the advisory validation messages of root by node ID.
func IssueErrors(root *form.Node) map[string][]string {
	issues := root.Issues()
	if len(issues) == 0 {
		return nil
	}
	out := make(map[string][]string, len(issues))
	for _, issue := range issues {
		out[issue.ID] = append(out[issue.ID], issue.Message)
	}
	return out
}

type nodeIndex struct {
	ids        map[string]struct{}
	paths      map[string]string
	predicates map[string]string
}

func indexNodes(root *form.Node) nodeIndex {
	idx := nodeIndex{
		ids:        make(map[string]struct{}),
		paths:      make(map[string]string),
		predicates: make(map[string]string),
	}
	root.Walk(func(n *form.Node) bool {
		idx.ids[n.ID] = struct{}{}
		if _, seen := idx.paths[n.Path]; !seen {
			idx.paths[n.Path] = n.ID
		}
		if n.Predicate != "" {
			if _, seen := idx.predicates[n.Predicate]; !seen {
				idx.predicates[n.Predicate] = n.ID
			}
		}
		return true
	})
	return idx
}

func (idx nodeIndex) lookup(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if _, ok := idx.ids[key]; ok {
		return key, true
	}
	if id, ok := idx.paths[key]; ok {
		return id, true
	}
	if id, ok := idx.predicates[key]; ok {
		return id, true
	}
	return "", false
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
