package render

import (
	"context"

	"github.com/goliatone/go-shexform/pkg/session"
)

// Renderer turns a form session into a byte representation (HTML, terminal
// transcript, JSON-LD). Interactive renderers may edit the session while
// rendering; the session stays the single owner of the document.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form *session.Session, options RenderOptions) ([]byte, error)
}
