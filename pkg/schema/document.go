package schema

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
)

// Format names a ShEx serialisation.
type Format string

const (
	// FormatAuto asks the parser to detect the format.
	FormatAuto Format = ""
	// FormatShExC is the compact syntax.
	FormatShExC Format = "shexc"
	// FormatShExJ is the JSON serialisation.
	FormatShExJ Format = "shexj"
	// FormatYAML is ShExJ written as YAML.
	FormatYAML Format = "yaml"
)

// Document wraps the raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
	format Format
	base   string
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// WithFormat returns a copy of the document pinned to format.
func (d Document) WithFormat(format Format) Document {
	d.format = format
	return d
}

// WithBaseURI returns a copy of the document whose relative IRIs resolve
// against base. It wins over the parser's configured base.
func (d Document) WithBaseURI(base string) Document {
	d.base = strings.TrimSpace(base)
	return d
}

// BaseURI returns the base set with WithBaseURI.
func (d Document) BaseURI() string {
	return d.base
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format returns the pinned format, or detects it from the location's
// extension and then from the payload itself.
func (d Document) Format() Format {
	if d.format != FormatAuto {
		return d.format
	}
	switch strings.ToLower(filepath.Ext(d.Location())) {
	case ".shex", ".shexc":
		return FormatShExC
	case ".json", ".shexj", ".jsonld":
		return FormatShExJ
	case ".yaml", ".yml":
		return FormatYAML
	}
	return DetectFormat(d.raw)
}

// DetectFormat guesses the serialisation of raw schema text. ShExJ always
// starts with an object; YAML renditions carry a top-level "type: Schema".
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatShExJ
	}
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.TrimSpace(line)
		if line == "type: Schema" || line == `type: "Schema"` {
			return FormatYAML
		}
	}
	return FormatShExC
}
