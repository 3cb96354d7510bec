package render

import (
	"errors"
	"fmt"
	"mime"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrRendererNotFound is returned for names no renderer is registered under.
var ErrRendererNotFound = errors.New("render: renderer not found")

// Registry holds the renderers a process can produce output with. The
// orchestrator, server and CLI share one so a renderer name means the same
// output everywhere.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Register adds renderer under its Name. Names are unique.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return errors.New("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return errors.New("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.renderers[name]; taken {
		return fmt.Errorf("render: renderer %q already registered", name)
	}
	r.renderers[name] = renderer
	return nil
}

// MustRegister is Register for wiring that cannot fail at runtime.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get returns the renderer registered as name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	renderer, ok := r.renderers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRendererNotFound, name)
	}
	return renderer, nil
}

// Resolve returns the renderer called name. An empty name falls back to
// fallback and then to the first registered renderer in name order; an
// explicit name that is not registered is an error.
func (r *Registry) Resolve(name, fallback string) (Renderer, error) {
	if name != "" {
		return r.Get(name)
	}
	if fallback != "" && r.Has(fallback) {
		return r.Get(fallback)
	}
	names := r.List()
	if len(names) == 0 {
		return nil, errors.New("render: no renderers registered")
	}
	return r.Get(names[0])
}

// Negotiate picks the renderer whose content type the Accept header ranks
// highest. Wildcard ranges never match so callers keep their default for
// browsers that accept anything.
func (r *Registry) Negotiate(accept string) (Renderer, bool) {
	ranges := acceptedTypes(accept)
	if len(ranges) == 0 {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, mediaType := range ranges {
		for _, name := range names {
			renderer := r.renderers[name]
			if produced, _, err := mime.ParseMediaType(renderer.ContentType()); err == nil && produced == mediaType {
				return renderer, true
			}
		}
	}
	return nil, false
}

// List returns the registered names in order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.renderers[name]
	return ok
}

// acceptedTypes lists the concrete media types of an Accept header by
// descending quality. Ranges with q=0 and wildcards are dropped.
func acceptedTypes(header string) []string {
	type ranked struct {
		mediaType string
		q         float64
	}
	var out []ranked
	for _, part := range strings.Split(header, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil || strings.Contains(mediaType, "*") {
			continue
		}
		q := 1.0
		if raw, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				q = parsed
			}
		}
		if q > 0 {
			out = append(out, ranked{mediaType: mediaType, q: q})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].q > out[j].q })

	types := make([]string, len(out))
	for i, entry := range out {
		types[i] = entry.mediaType
	}
	return types
}
