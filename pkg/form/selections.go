package form

import (
	"strconv"
	"strings"
	"sync"
)

// Selections remembers which OneOf alternative is active, keyed by widget ID.
// The state is transient UI state, re-derivable from the document.
type Selections interface {
	Selected(id string) (int, bool)
	Select(id string, index int)
	// Shift forgets the choices made inside item index of the list listID
	// and moves the choices of later items down one position.
	Shift(listID string, index int)
	Reset()
}

// MemorySelections is the in-memory Selections implementation.
type MemorySelections struct {
	mu     sync.RWMutex
	chosen map[string]int
}

// NewSelections returns an empty in-memory store.
func NewSelections() *MemorySelections {
	return &MemorySelections{chosen: make(map[string]int)}
}

// Selected returns the stored alternative for id.
func (s *MemorySelections) Selected(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.chosen[id]
	return index, ok
}

// Select stores the alternative for id.
func (s *MemorySelections) Select(id string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chosen[id] = index
}

// Shift renumbers the choices under listID after item index was removed.
func (s *MemorySelections) Shift(listID string, index int) {
	prefix := listID + "/"
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]int, len(s.chosen))
	for id, choice := range s.chosen {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			next[id] = choice
			continue
		}
		segment, tail, nested := strings.Cut(rest, "/")
		position, err := strconv.Atoi(segment)
		switch {
		case err != nil || position < index:
			next[id] = choice
		case position == index:
		default:
			shifted := prefix + strconv.Itoa(position-1)
			if nested {
				shifted += "/" + tail
			}
			next[shifted] = choice
		}
	}
	s.chosen = next
}

// Reset forgets every stored alternative.
func (s *MemorySelections) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chosen = make(map[string]int)
}
