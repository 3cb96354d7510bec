// Package jsonld renders the document edited by a session as canonical
// JSON-LD (RFC 8785), suitable for hashing and byte-wise comparison.
package jsonld

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/session"
)

// Option configures the renderer.
type Option func(*Renderer)

// WithContext adds an "@context" entry to every rendered document.
func WithContext(jsonContext map[string]any) Option {
	return func(r *Renderer) {
		r.context = maps.Clone(jsonContext)
	}
}

// WithIndent pretty-prints the canonical output. Member order is kept.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer implements render.Renderer for the produced document.
type Renderer struct {
	context map[string]any
	indent  string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a JSON-LD renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string {
	return "jsonld"
}

func (r *Renderer) ContentType() string {
	return "application/ld+json"
}

// Render serializes the session document. Render options are ignored.
func (r *Renderer) Render(ctx context.Context, s *session.Session, _ render.RenderOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("jsonld: session is nil")
	}

	doc := s.Document()
	if len(r.context) > 0 {
		if root, ok := doc.(map[string]any); ok {
			withContext := maps.Clone(root)
			withContext["@context"] = r.context
			doc = withContext
		}
	}

	out, err := Canonical(doc)
	if err != nil {
		return nil, err
	}
	if r.indent == "" {
		return out, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", r.indent); err != nil {
		return nil, fmt.Errorf("jsonld: indent: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Canonical returns the RFC 8785 serialization of doc.
func Canonical(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("jsonld: marshal document: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("jsonld: canonicalize document: %w", err)
	}
	return canonical, nil
}

// Digest returns the hex SHA-256 of the canonical serialization of doc, used
// as an entity tag for document downloads.
func Digest(doc any) (string, error) {
	canonical, err := Canonical(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
