package overlay

import (
	"embed"
	"io/fs"
)

//go:embed overlays/*
var embeddedOverlays embed.FS

// EmbeddedFS returns the bundled overlays for common vocabularies (FOAF,
// vCard, Solid terms). Callers may pass this filesystem to LoadFS.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedOverlays, "overlays")
	if err != nil {
		// The embed directive guarantees the subpath exists, so panic is
		// acceptable here.
		panic(err)
	}
	return sub
}

// Default loads the bundled overlays.
func Default() (*Overlay, error) {
	return LoadFS(EmbeddedFS())
}
