package vanilla

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-shexform/pkg/render"
)

// sortedKeys orders the keys of m so generated markup is stable.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// cssVarsStyle renders theme variables as a :root rule.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	lines := make([]string, 0, len(vars)+2)
	lines = append(lines, ":root {")
	for _, name := range sortedKeys(vars) {
		lines = append(lines, fmt.Sprintf("%s: %s;", name, vars[name]))
	}
	return strings.Join(append(lines, "}"), "\n")
}

// widgetErrors joins the session's own issues with caller feedback, both
// keyed by widget ID.
func widgetErrors(issues map[string][]string, mapped render.ErrorMapping) map[string][]string {
	out := map[string][]string{}
	for _, source := range []map[string][]string{issues, mapped.Fields} {
		for id, messages := range source {
			out[id] = render.MergeFormErrors(out[id], messages...)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// documentJSON is the indented preview shown under the form.
func documentJSON(doc any) string {
	if doc == nil {
		return ""
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
