package parser

import (
	"context"
	"fmt"

	"github.com/goliatone/go-shexform/pkg/schema"
	"github.com/goliatone/go-shexform/pkg/shex"
)

// Parser implements schema.Parser for ShExC, ShExJ and YAML documents.
type Parser struct {
	options schema.ParserOptions
}

var _ schema.Parser = (*Parser)(nil)

// New constructs a Parser from pre-resolved options.
func New(options schema.ParserOptions) *Parser {
	return &Parser{options: options}
}

// Parse decodes doc according to its format. The pinned parser format wins
// over the document's own detection.
func (p *Parser) Parse(ctx context.Context, doc schema.Document) (*shex.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format := p.options.Format
	if format == schema.FormatAuto {
		format = doc.Format()
	}

	var (
		out *shex.Schema
		err error
	)
	switch format {
	case schema.FormatShExC:
		out, err = ParseCompact(doc.Location(), string(doc.Raw()), p.baseFor(doc))
	case schema.FormatShExJ:
		out, err = ParseJSON(doc.Raw(), p.options.SkipValidation)
	case schema.FormatYAML:
		out, err = ParseYAML(doc.Raw(), p.options.SkipValidation)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("parser: %s: %w", doc.Location(), err)
	}
	if len(out.Shapes) == 0 {
		return nil, fmt.Errorf("parser: %s: schema declares no shapes", doc.Location())
	}
	return out, nil
}

// baseFor falls back to the document URL when no base is configured, so
// relative labels of remote schemas resolve against where they came from.
func (p *Parser) baseFor(doc schema.Document) string {
	if doc.BaseURI() != "" {
		return doc.BaseURI()
	}
	if p.options.BaseURI != "" {
		return p.options.BaseURI
	}
	if doc.Source() != nil && doc.Source().Kind() == schema.SourceKindURL {
		return doc.Location()
	}
	return ""
}
