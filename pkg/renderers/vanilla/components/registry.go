package components

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/goliatone/go-shexform/pkg/form"
	rendertemplate "github.com/goliatone/go-shexform/pkg/render/template"
)

// Renderer writes the markup of one widget into buf. Container renderers
// call data.RenderChild for their children.
type Renderer func(buf *bytes.Buffer, node *form.Node, data ComponentData) error

// ComponentData is what a component renderer sees besides its node.
type ComponentData struct {
	Template    rendertemplate.TemplateRenderer
	RenderChild func(node *form.Node) (string, error)
	// ThemePartials maps partial keys ("forms.input") to template paths that
	// replace the built-in ones.
	ThemePartials map[string]string
	// Interactive is false for read-only output; action buttons are omitted.
	Interactive bool
	// Errors holds the messages shown under the widget.
	Errors []string
}

// Descriptor is a widget implementation plus the stylesheets a page must
// link once when the widget appears on it.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
}

// Registry maps widget names (see NameFor) to descriptors. Lookups are case
// insensitive.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// New returns a registry with no widgets.
func New() *Registry {
	return &Registry{entries: map[string]Descriptor{}}
}

// Register installs descriptor as name, replacing any earlier widget.
func (r *Registry) Register(name string, descriptor Descriptor) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return errors.New("components: component name is required")
	case descriptor.Renderer == nil:
		return fmt.Errorf("components: %q has no renderer", key)
	}
	descriptor.Name = key
	descriptor.Stylesheets = append([]string(nil), descriptor.Stylesheets...)

	r.mu.Lock()
	r.entries[key] = descriptor
	r.mu.Unlock()
	return nil
}

// MustRegister is Register for built-in widgets.
func (r *Registry) MustRegister(name string, descriptor Descriptor) {
	if err := r.Register(name, descriptor); err != nil {
		panic(err)
	}
}

// Override returns a copy of the registry where name is rendered by
// renderer. The stylesheets of the replaced widget are kept.
func (r *Registry) Override(name string, renderer Renderer) (*Registry, error) {
	r.mu.RLock()
	out := &Registry{entries: maps.Clone(r.entries)}
	r.mu.RUnlock()

	descriptor := out.entries[strings.ToLower(strings.TrimSpace(name))]
	descriptor.Renderer = renderer
	if err := out.Register(name, descriptor); err != nil {
		return nil, err
	}
	return out, nil
}

// Descriptor returns the widget registered as name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	descriptor, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if ok {
		descriptor.Stylesheets = append([]string(nil), descriptor.Stylesheets...)
	}
	return descriptor, ok
}

// Stylesheets collects the stylesheets of the named widgets, first use
// first, each href once. Unknown names contribute nothing.
func (r *Registry) Stylesheets(names []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hrefs []string
	linked := map[string]bool{}
	for _, name := range names {
		for _, href := range r.entries[strings.ToLower(strings.TrimSpace(name))].Stylesheets {
			if href != "" && !linked[href] {
				linked[href] = true
				hrefs = append(hrefs, href)
			}
		}
	}
	return hrefs
}
