// Package overlay loads presentation overlays that relabel the widgets of a
// rendered form. Overlays are YAML or JSON files keyed by shape and predicate
// IRI (or glob patterns over them); they never change which widgets exist or
// how the document is edited. Attach one to a session with
// session.WithDecorator(overlay.Decorator()).
package overlay
