package overlay

import (
	"maps"

	"github.com/gobwas/glob"
)

// Text is the presentation override for one shape or predicate.
type Text struct {
	Label       string `json:"label" yaml:"label"`
	Help        string `json:"help" yaml:"help"`
	Placeholder string `json:"placeholder" yaml:"placeholder"`
}

func (t Text) empty() bool {
	return t.Label == "" && t.Help == "" && t.Placeholder == ""
}

// fill copies the fields of other that t leaves empty.
func (t Text) fill(other Text) Text {
	if t.Label == "" {
		t.Label = other.Label
	}
	if t.Help == "" {
		t.Help = other.Help
	}
	if t.Placeholder == "" {
		t.Placeholder = other.Placeholder
	}
	return t
}

// Overlay holds the parsed overrides. It is safe for concurrent readers when
// treated as immutable after construction.
type Overlay struct {
	shapes     rules
	predicates rules
	sources    []string
}

type rules struct {
	exact    map[string]Text
	patterns []pattern
}

type pattern struct {
	raw   string
	match glob.Glob
	text  Text
}

// lookup merges the exact entry for iri with every matching pattern. The
// exact entry wins, then patterns from most to least specific.
func (r rules) lookup(iri string) (Text, bool) {
	text, found := r.exact[iri]
	for _, p := range r.patterns {
		if p.match.Match(iri) {
			text = text.fill(p.text)
			found = true
		}
	}
	return text, found && !text.empty()
}

// Sources lists the files the overlay was loaded from.
func (o *Overlay) Sources() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.sources...)
}

// Empty reports whether the overlay holds any override.
func (o *Overlay) Empty() bool {
	return o == nil || (len(o.shapes.exact) == 0 && len(o.shapes.patterns) == 0 &&
		len(o.predicates.exact) == 0 && len(o.predicates.patterns) == 0)
}

// Shape returns the override for a shape IRI.
func (o *Overlay) Shape(iri string) (Text, bool) {
	if o == nil {
		return Text{}, false
	}
	return o.shapes.lookup(iri)
}

// Predicate returns the override for a predicate IRI.
func (o *Overlay) Predicate(iri string) (Text, bool) {
	if o == nil {
		return Text{}, false
	}
	return o.predicates.lookup(iri)
}

// Layer returns a new overlay where the entries of top replace those of o
// with the same key. Either side may be nil.
func (o *Overlay) Layer(top *Overlay) *Overlay {
	switch {
	case top == nil && o == nil:
		return &Overlay{}
	case top == nil:
		return o
	case o == nil:
		return top
	}
	return &Overlay{
		shapes:     o.shapes.layer(top.shapes),
		predicates: o.predicates.layer(top.predicates),
		sources:    append(o.Sources(), top.sources...),
	}
}

func (r rules) layer(top rules) rules {
	rb := ruleBuilder{exact: make(map[string]Text, len(r.exact)+len(top.exact)), patterns: make(map[string]pattern)}
	maps.Copy(rb.exact, r.exact)
	maps.Copy(rb.exact, top.exact)
	for _, p := range r.patterns {
		rb.patterns[p.raw] = p
	}
	for _, p := range top.patterns {
		rb.patterns[p.raw] = p
	}
	return rb.build()
}
