// Package orchestrator wires the loader → parser → session → renderer
// pipeline behind a single entry point, applying label overlays and theme
// selection on the way.
package orchestrator
