package schema

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Source names a schema document: a path, an fs.FS entry, a URL or text
// already held in memory.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind tells loaders how to read a Source.
type SourceKind string

const (
	SourceKindFile   SourceKind = "file"
	SourceKindFS     SourceKind = "fs"
	SourceKindURL    SourceKind = "url"
	SourceKindInline SourceKind = "inline"
)

// location is the single Source implementation. text is only set for
// inline sources.
type location struct {
	kind SourceKind
	at   string
	text string
}

func (l location) Kind() SourceKind { return l.kind }
func (l location) Location() string { return l.at }
func (l location) String() string   { return string(l.kind) + ":" + l.at }

// SourceFromFile names a file on disk.
func SourceFromFile(path string) Source {
	return location{kind: SourceKindFile, at: filepath.Clean(path)}
}

// SourceFromFS names an entry of the loader's fs.FS.
func SourceFromFS(name string) Source {
	return location{kind: SourceKindFS, at: name}
}

// SourceFromURL names a remote schema. Malformed URLs panic; they are
// configuration errors.
func SourceFromURL(raw string) Source {
	if _, err := url.ParseRequestURI(raw); err != nil {
		panic(fmt.Sprintf("schema: invalid URL source %q: %v", raw, err))
	}
	return location{kind: SourceKindURL, at: raw}
}

// SourceFromText carries schema text read elsewhere, such as stdin or a
// pasted schema. name appears in messages and drives format detection.
func SourceFromText(name, text string) Source {
	if name == "" {
		name = "inline"
	}
	return location{kind: SourceKindInline, at: name, text: text}
}

// InlineText returns the text carried by a SourceFromText source.
func InlineText(src Source) (string, bool) {
	l, ok := src.(location)
	if !ok || l.kind != SourceKindInline {
		return "", false
	}
	return l.text, true
}
