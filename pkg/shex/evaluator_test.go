package shex_test

import (
	"testing"

	"github.com/goliatone/go-shexform/pkg/shex"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

func TestResolveShapeExpr(t *testing.T) {
	schema := testsupport.LoadSchema(t)

	inline := &shex.NodeConstraint{NodeKind: shex.NodeKindIRI}
	got, id, ok := schema.ResolveShapeExpr(inline)
	if !ok || got != inline || id != "" {
		t.Fatalf("inline expression should resolve to itself, got %v %q %v", got, id, ok)
	}

	got, id, ok = schema.ResolveShapeExpr(shex.ShapeRef(testsupport.CountryName))
	if !ok || id != testsupport.CountryName {
		t.Fatalf("reference not resolved: %v %q %v", got, id, ok)
	}
	if _, isNC := got.(*shex.NodeConstraint); !isNC {
		t.Fatalf("expected node constraint, got %T", got)
	}

	if _, _, ok := schema.ResolveShapeExpr(shex.ShapeRef("http://nowhere#X")); ok {
		t.Fatalf("unknown reference must not resolve")
	}
	if _, _, ok := schema.ResolveShapeExpr(nil); ok {
		t.Fatalf("nil expression must not resolve")
	}
}

func TestResolveShapeExpr_FirstMatchWins(t *testing.T) {
	first := &shex.Shape{}
	schema := &shex.Schema{Shapes: []*shex.ShapeDecl{
		{ID: "http://ex/S", ShapeExpr: first},
		{ID: "http://ex/S", ShapeExpr: &shex.ShapeExternal{}},
	}}
	got, _, ok := schema.ResolveShapeExpr(shex.ShapeRef("http://ex/S"))
	if !ok || got != first {
		t.Fatalf("expected first declaration, got %T", got)
	}
}

func TestResolveShapeExpr_StopsOnCycles(t *testing.T) {
	schema := &shex.Schema{Shapes: []*shex.ShapeDecl{
		{ID: "a", ShapeExpr: shex.ShapeRef("b")},
		{ID: "b", ShapeExpr: shex.ShapeRef("a")},
	}}
	if _, _, ok := schema.ResolveShapeExpr(shex.ShapeRef("a")); ok {
		t.Fatalf("cyclic aliases must not resolve")
	}
}

func TestResolveTripleExpr(t *testing.T) {
	schema := testsupport.LoadSchema(t)

	got, ok := schema.ResolveTripleExpr(shex.TripleExprRef(testsupport.BaseURI + "#UserProfile-TC-webid-1"))
	if !ok {
		t.Fatalf("labelled triple expression not found")
	}
	tc, isTC := got.(*shex.TripleConstraint)
	if !isTC || tc.Predicate != testsupport.Solid+"webid" {
		t.Fatalf("unexpected triple expression %#v", got)
	}

	if _, ok := schema.ResolveTripleExpr(shex.TripleExprRef("http://nowhere#tc")); ok {
		t.Fatalf("unknown label must not resolve")
	}
}

func TestCardinality(t *testing.T) {
	tests := []struct {
		name       string
		card       shex.Cardinality
		exactlyOne bool
		optional   bool
		allowsMore int
		want       bool
	}{
		{name: "exactly one", card: shex.Cardinality{Min: 1, Max: 1}, exactlyOne: true, allowsMore: 1, want: false},
		{name: "optional", card: shex.Cardinality{Min: 0, Max: 1}, optional: true, allowsMore: 0, want: true},
		{name: "bounded list full", card: shex.Cardinality{Min: 0, Max: 3}, allowsMore: 3, want: false},
		{name: "unbounded", card: shex.Cardinality{Min: 1, Max: shex.Unbounded}, allowsMore: 99, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.card.ExactlyOne() != tt.exactlyOne {
				t.Fatalf("ExactlyOne() = %v", tt.card.ExactlyOne())
			}
			if tt.card.Optional() != tt.optional {
				t.Fatalf("Optional() = %v", tt.card.Optional())
			}
			if tt.card.Repeated() == (tt.exactlyOne || tt.optional) {
				t.Fatalf("Repeated() = %v", tt.card.Repeated())
			}
			if got := tt.card.AllowsMore(tt.allowsMore); got != tt.want {
				t.Fatalf("AllowsMore(%d) = %v, want %v", tt.allowsMore, got, tt.want)
			}
		})
	}

	if err := (shex.Cardinality{Min: 2, Max: 1}).Validate(); err == nil {
		t.Fatalf("expected validation error for max < min")
	}
	if err := (shex.Cardinality{Min: 2, Max: shex.Unbounded}).Validate(); err != nil {
		t.Fatalf("unbounded max must validate: %v", err)
	}
}

func TestLocalName(t *testing.T) {
	tests := map[string]string{
		"http://www.w3.org/2006/vcard/ns#telephone": "telephone",
		"http://xmlns.com/foaf/0.1/name":            "name",
		"urn:example":                               "urn:example",
		"vc:telephone":                              "vc:telephone",
	}
	for in, want := range tests {
		if got := shex.LocalName(in); got != want {
			t.Fatalf("LocalName(%q) = %q, want %q", in, got, want)
		}
	}
}
