package vanilla

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/render/template"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
)

// componentRenderer walks a widget tree and renders each node with the
// component registered for it.
type componentRenderer struct {
	templates   template.TemplateRenderer
	registry    *components.Registry
	partials    map[string]string
	errors      map[string][]string
	interactive bool

	usedComponents map[string]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, partials map[string]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates:      templates,
		registry:       registry,
		partials:       maps.Clone(partials),
		usedComponents: make(map[string]struct{}),
	}
}

func (r *componentRenderer) render(node *form.Node) (string, error) {
	if node == nil {
		return "", nil
	}

	componentName := components.NameFor(node)
	descriptor, ok := r.registry.Descriptor(componentName)
	if !ok {
		return "", fmt.Errorf("component %q not registered for widget %q", componentName, node.ID)
	}

	data := components.ComponentData{
		Template:      r.templates,
		RenderChild:   r.render,
		ThemePartials: r.partials,
		Interactive:   r.interactive,
		Errors:        r.errors[node.ID],
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, node, data); err != nil {
		return "", fmt.Errorf("render component %q for widget %q: %w", componentName, node.ID, err)
	}

	r.usedComponents[componentName] = struct{}{}
	return control.String(), nil
}

func (r *componentRenderer) stylesheets() []string {
	if len(r.usedComponents) == 0 {
		return nil
	}
	return r.registry.Stylesheets(sortedKeys(r.usedComponents))
}
