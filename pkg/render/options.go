package render

import theme "github.com/goliatone/go-theme"

// RenderOptions describe per-request data renderers can use without touching
// the session.
type RenderOptions struct {
	// Action is the URL the HTML form posts edits to. Empty renders a
	// read-only form without submit controls.
	Action string
	// LiveURL is the websocket endpoint for live edits. Renderers that do not
	// support live editing ignore it.
	LiveURL string
	// HiddenFields are emitted as hidden inputs, typically the session
	// version for optimistic checks.
	HiddenFields map[string]string
	// Errors surfaces server-side feedback keyed by node ID, document path or
	// predicate IRI. Keys that match no widget become form-level messages.
	Errors map[string][]string
	// Theme carries the resolved go-theme configuration. Nil renders the
	// built-in look.
	Theme *theme.RendererConfig
}
