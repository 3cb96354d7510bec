package document

import "fmt"

// New returns a fresh document root identified by rootURI.
func New(rootURI string) map[string]any {
	return map[string]any{"@id": rootURI}
}

// EmptyValue is the value Set stores when the caller supplies none: an empty
// IRI string, or an empty mapping for everything else.
func EmptyValue(isIRI bool) any {
	if isIRI {
		return ""
	}
	return map[string]any{}
}

// Set returns a copy of doc with value stored at path. Levels along the path
// are copied; siblings are shared with the input, which is never mutated.
// Missing mapping levels are created and an index at or beyond the sequence
// length appends.
func Set(doc any, path Path, value any, isIRI bool) (any, error) {
	out, err := set(doc, path, 0, value, isIRI)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func set(node any, path Path, depth int, value any, isIRI bool) (any, error) {
	if depth == len(path) {
		if isEmpty(value) {
			return EmptyValue(isIRI), nil
		}
		return value, nil
	}
	step := path[depth]

	if step.isIndex {
		if step.index < 0 {
			return nil, &PathError{Op: "set", Path: path, Step: depth, Err: fmt.Errorf("%w: negative index %d", ErrStructuralMismatch, step.index)}
		}
		var seq []any
		switch v := node.(type) {
		case nil:
		case []any:
			seq = v
		default:
			return nil, &PathError{Op: "set", Path: path, Step: depth, Err: fmt.Errorf("%w: index %d applied to %s", ErrStructuralMismatch, step.index, describe(node))}
		}
		if step.index >= len(seq) {
			child, err := set(nil, path, depth+1, value, isIRI)
			if err != nil {
				return nil, err
			}
			out := make([]any, len(seq), len(seq)+1)
			copy(out, seq)
			return append(out, child), nil
		}
		child, err := set(seq[step.index], path, depth+1, value, isIRI)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(seq))
		copy(out, seq)
		out[step.index] = child
		return out, nil
	}

	var mapping map[string]any
	switch v := node.(type) {
	case nil:
	case map[string]any:
		mapping = v
	default:
		return nil, &PathError{Op: "set", Path: path, Step: depth, Err: fmt.Errorf("%w: key %q applied to %s", ErrStructuralMismatch, step.key, describe(node))}
	}
	child, err := set(mapping[step.key], path, depth+1, value, isIRI)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(mapping)+1)
	for k, v := range mapping {
		out[k] = v
	}
	out[step.key] = child
	return out, nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	return false
}

// Remove returns a copy of doc without the node addressed by path. Removing an
// index past the end of a sequence is a no-op; a missing branch with steps
// remaining yields ErrDanglingPath.
func Remove(doc any, path Path) (any, error) {
	if len(path) == 0 {
		return doc, nil
	}
	return remove(doc, path, 0)
}

func remove(node any, path Path, depth int) (any, error) {
	step := path[depth]
	last := depth == len(path)-1

	if step.isIndex {
		var seq []any
		switch v := node.(type) {
		case nil:
		case []any:
			seq = v
		default:
			return nil, &PathError{Op: "remove", Path: path, Step: depth, Err: fmt.Errorf("%w: index %d applied to %s", ErrStructuralMismatch, step.index, describe(node))}
		}
		if step.index < 0 || step.index >= len(seq) {
			if last {
				return node, nil
			}
			return nil, &PathError{Op: "remove", Path: path, Step: depth, Err: fmt.Errorf("%w: index %d out of range", ErrDanglingPath, step.index)}
		}
		if last {
			out := make([]any, 0, len(seq)-1)
			out = append(out, seq[:step.index]...)
			return append(out, seq[step.index+1:]...), nil
		}
		child, err := remove(seq[step.index], path, depth+1)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(seq))
		copy(out, seq)
		out[step.index] = child
		return out, nil
	}

	var mapping map[string]any
	switch v := node.(type) {
	case nil:
	case map[string]any:
		mapping = v
	default:
		return nil, &PathError{Op: "remove", Path: path, Step: depth, Err: fmt.Errorf("%w: key %q applied to %s", ErrStructuralMismatch, step.key, describe(node))}
	}
	if last {
		out := make(map[string]any, len(mapping))
		for k, v := range mapping {
			if k == step.key {
				continue
			}
			out[k] = v
		}
		return out, nil
	}
	descendant, ok := mapping[step.key]
	if !ok || descendant == nil {
		return nil, &PathError{Op: "remove", Path: path, Step: depth, Err: fmt.Errorf("%w: key %q is not present", ErrDanglingPath, step.key)}
	}
	child, err := remove(descendant, path, depth+1)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(mapping))
	for k, v := range mapping {
		out[k] = v
	}
	out[step.key] = child
	return out, nil
}

// Subtree returns the node at path, or nil when any step along the way is
// missing. Kind mismatches are reported like Resolve does.
func Subtree(doc any, path Path) (any, error) {
	node, ok, err := Resolve(doc, path)
	if err != nil || !ok {
		return nil, err
	}
	return node, nil
}

// Len reports the number of elements of the sequence at path, or 0 when the
// node is absent or not a sequence.
func Len(doc any, path Path) int {
	node, err := Subtree(doc, path)
	if err != nil {
		return 0
	}
	if seq, ok := node.([]any); ok {
		return len(seq)
	}
	return 0
}
