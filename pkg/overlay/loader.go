package overlay

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses JSON/YAML overlay files.
// When fsys is nil or no overlay files are present, the returned overlay is
// empty.
func LoadFS(fsys fs.FS) (*Overlay, error) {
	b := newBuilder()
	if fsys == nil {
		return b.build(), nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isOverlayFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("overlay: read %s: %w", path, err)
		}
		return b.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return b.build(), nil
}

// Parse decodes a single overlay document. source names it in errors.
func Parse(data []byte, source string) (*Overlay, error) {
	b := newBuilder()
	if err := b.add(data, source); err != nil {
		return nil, err
	}
	return b.build(), nil
}

type documentFile struct {
	Prefixes   map[string]string `json:"prefixes" yaml:"prefixes"`
	Shapes     map[string]Text   `json:"shapes" yaml:"shapes"`
	Predicates map[string]Text   `json:"predicates" yaml:"predicates"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("overlay: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("overlay: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return doc, nil
}

type builder struct {
	shapes     ruleBuilder
	predicates ruleBuilder
	sources    []string
}

type ruleBuilder struct {
	exact    map[string]Text
	patterns map[string]pattern
}

func newBuilder() *builder {
	return &builder{
		shapes:     ruleBuilder{exact: make(map[string]Text), patterns: make(map[string]pattern)},
		predicates: ruleBuilder{exact: make(map[string]Text), patterns: make(map[string]pattern)},
	}
}

func (b *builder) add(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	if err := b.shapes.add(doc.Shapes, doc.Prefixes, "shape", source); err != nil {
		return err
	}
	if err := b.predicates.add(doc.Predicates, doc.Prefixes, "predicate", source); err != nil {
		return err
	}
	b.sources = append(b.sources, source)
	return nil
}

func (rb *ruleBuilder) add(entries map[string]Text, prefixes map[string]string, kind, source string) error {
	for key, text := range entries {
		iri, err := expandKey(key, prefixes)
		if err != nil {
			return fmt.Errorf("overlay: %s %q (file %s): %w", kind, key, source, err)
		}
		text = normaliseText(text)

		if !isPattern(iri) {
			if _, exists := rb.exact[iri]; exists {
				return fmt.Errorf("overlay: duplicate %s %q (file %s)", kind, iri, source)
			}
			rb.exact[iri] = text
			continue
		}

		if _, exists := rb.patterns[iri]; exists {
			return fmt.Errorf("overlay: duplicate %s pattern %q (file %s)", kind, iri, source)
		}
		compiled, err := glob.Compile(iri)
		if err != nil {
			return fmt.Errorf("overlay: %s pattern %q (file %s): %w", kind, iri, source, err)
		}
		rb.patterns[iri] = pattern{raw: iri, match: compiled, text: text}
	}
	return nil
}

func (rb ruleBuilder) build() rules {
	out := rules{exact: rb.exact}
	for _, p := range rb.patterns {
		out.patterns = append(out.patterns, p)
	}
	sort.Slice(out.patterns, func(i, j int) bool {
		li, lj := literalLen(out.patterns[i].raw), literalLen(out.patterns[j].raw)
		if li != lj {
			return li > lj
		}
		return out.patterns[i].raw < out.patterns[j].raw
	})
	return out
}

func (b *builder) build() *Overlay {
	return &Overlay{
		shapes:     b.shapes.build(),
		predicates: b.predicates.build(),
		sources:    b.sources,
	}
}

// expandKey resolves "prefix:local" keys against the file's prefixes. Keys
// that already look like absolute IRIs are kept.
func expandKey(key string, prefixes map[string]string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "://") || strings.HasPrefix(key, "urn:") {
		return key, nil
	}
	prefix, local, ok := strings.Cut(key, ":")
	if !ok {
		return key, nil
	}
	namespace, known := prefixes[prefix]
	if !known {
		return "", fmt.Errorf("unknown prefix %q", prefix)
	}
	return namespace + local, nil
}

func normaliseText(text Text) Text {
	return Text{
		Label:       strings.TrimSpace(text.Label),
		Help:        sanitizeHelp(text.Help),
		Placeholder: strings.TrimSpace(text.Placeholder),
	}
}

func isPattern(key string) bool {
	return strings.ContainsAny(key, "*?[{")
}

func literalLen(raw string) int {
	n := 0
	for _, r := range raw {
		switch r {
		case '*', '?', '[', ']', '{', '}', ',':
		default:
			n++
		}
	}
	return n
}

func isOverlayFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
