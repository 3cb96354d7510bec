package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is a single traversal step: a mapping key or a sequence index.
type Step struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a mapping step.
func Key(name string) Step {
	return Step{key: name}
}

// Index returns a sequence step.
func Index(i int) Step {
	return Step{index: i, isIndex: true}
}

// IsIndex reports whether the step addresses a sequence element.
func (s Step) IsIndex() bool {
	return s.isIndex
}

// Key returns the mapping key; empty for index steps.
func (s Step) Key() string {
	if s.isIndex {
		return ""
	}
	return s.key
}

// Index returns the sequence index; -1 for key steps.
func (s Step) Index() int {
	if !s.isIndex {
		return -1
	}
	return s.index
}

func (s Step) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// Path addresses a node inside a document, rooted one level below "@id".
type Path []Step

// PathOf builds a Path from strings and ints. It panics on any other type and
// is intended for tests and literals.
func PathOf(parts ...any) Path {
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			path = append(path, Key(v))
		case int:
			path = append(path, Index(v))
		case Step:
			path = append(path, v)
		default:
			panic(fmt.Sprintf("document: unsupported path part %T", part))
		}
	}
	return path
}

// Extend returns a new path with steps appended. The receiver is never
// aliased by the result.
func (p Path) Extend(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// Last returns the final step and false when the path is empty.
func (p Path) Last() (Step, bool) {
	if len(p) == 0 {
		return Step{}, false
	}
	return p[len(p)-1], true
}

// Equal reports whether both paths contain the same steps.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	b.WriteString("$")
	for _, step := range p {
		if step.isIndex {
			b.WriteString(step.String())
			continue
		}
		b.WriteString(".")
		b.WriteString(step.key)
	}
	return b.String()
}

// Resolve walks path from doc. The boolean is false when a step is missing
// along the way. A step whose kind does not match the node it is applied to
// yields ErrStructuralMismatch.
func Resolve(doc any, path Path) (any, bool, error) {
	current := doc
	for i, step := range path {
		if current == nil {
			return nil, false, nil
		}
		next, ok, err := descend(current, step)
		if err != nil {
			return nil, false, &PathError{Op: "resolve", Path: path, Step: i, Err: err}
		}
		if !ok {
			return nil, false, nil
		}
		current = next
	}
	return current, true, nil
}

func descend(node any, step Step) (any, bool, error) {
	if step.isIndex {
		seq, ok := node.([]any)
		if !ok {
			return nil, false, fmt.Errorf("%w: index %d applied to %s", ErrStructuralMismatch, step.index, describe(node))
		}
		if step.index < 0 || step.index >= len(seq) {
			return nil, false, nil
		}
		return seq[step.index], true, nil
	}
	mapping, ok := node.(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%w: key %q applied to %s", ErrStructuralMismatch, step.key, describe(node))
	}
	value, ok := mapping[step.key]
	return value, ok, nil
}

func describe(node any) string {
	switch node.(type) {
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("scalar %T", node)
	}
}
