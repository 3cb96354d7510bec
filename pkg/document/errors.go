package document

import (
	"errors"
	"fmt"
)

var (
	// ErrStructuralMismatch reports a step whose kind does not match the node
	// it is applied to: an index into a mapping, a key into a sequence, or any
	// step into a scalar.
	ErrStructuralMismatch = errors.New("document: structural mismatch")
	// ErrDanglingPath reports a removal whose intermediate branch is missing
	// while steps remain.
	ErrDanglingPath = errors.New("document: dangling path")
)

// PathError records the failing operation together with the path and the
// offending step position.
type PathError struct {
	Op   string
	Path Path
	Step int
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("document: %s %s at step %d: %v", e.Op, e.Path, e.Step, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
