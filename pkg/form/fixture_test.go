package form_test

import (
	"testing"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

// editLoop applies raised events to its document the way a session does.
type editLoop struct {
	t   *testing.T
	doc any
}

func (l *editLoop) events() form.Events {
	return form.Events{
		OnChange: func(ctx form.Context, change form.Change) {
			next, err := document.Set(l.doc, ctx.Path, change.Value, change.IsIRI)
			if err != nil {
				l.t.Fatalf("set: %v", err)
			}
			l.doc = next
		},
		OnRemove: func(ctx form.Context, _ form.Removal) {
			next, err := document.Remove(l.doc, ctx.Path)
			if err != nil {
				l.t.Fatalf("remove: %v", err)
			}
			l.doc = next
		},
		OnAddEmptyElement: func(ctx form.Context, isIRI bool) {
			next, err := document.Set(l.doc, ctx.Path, nil, isIRI)
			if err != nil {
				l.t.Fatalf("add: %v", err)
			}
			l.doc = next
		},
	}
}

func (l *editLoop) render(selections form.Selections) *form.Node {
	schema := testsupport.LoadSchema(l.t)
	decl, ok := schema.ShapeDecl(testsupport.UserProfile)
	if !ok {
		l.t.Fatalf("missing UserProfile")
	}
	return form.Render(form.NewContext(schema, l.doc, l.events(), form.WithSelections(selections)), decl)
}

func first(root *form.Node, kind form.Kind, predicate string) *form.Node {
	var found *form.Node
	root.Walk(func(n *form.Node) bool {
		if found == nil && n.Kind == kind && n.Predicate == predicate {
			found = n
		}
		return found == nil
	})
	return found
}

func TestUserProfileFormEditing(t *testing.T) {
	loop := &editLoop{t: t, doc: document.New(testsupport.RootURI)}
	selections := form.NewSelections()

	root := loop.render(selections)
	if root.Kind != form.KindShape || root.Label != "UserProfile" {
		t.Fatalf("unexpected root %s %q", root.Kind, root.Label)
	}
	if first(root, form.KindPlaceholder, testsupport.VCard+"otherInt") == nil {
		t.Fatalf("expected otherInt placeholder")
	}
	if len(root.Issues()) == 0 {
		t.Fatalf("empty profile should report missing required values")
	}

	tel := first(root, form.KindIRI, testsupport.VCard+"telephone")
	if tel == nil || !tel.Optional {
		t.Fatalf("telephone should be an optional IRI leaf: %+v", tel)
	}
	if err := tel.Change("tel:+1-555"); err != nil {
		t.Fatalf("change telephone: %v", err)
	}
	got, ok, err := document.Resolve(loop.doc, document.PathOf(testsupport.VCard+"telephone"))
	if err != nil || !ok || got != "tel:+1-555" {
		t.Fatalf("telephone not stored: %v %v %v", got, ok, err)
	}

	root = loop.render(selections)
	addresses := first(root, form.KindList, testsupport.VCard+"hasAddress")
	if addresses == nil {
		t.Fatalf("missing hasAddress list")
	}
	if err := addresses.Add(); err != nil {
		t.Fatalf("add address: %v", err)
	}

	root = loop.render(selections)
	addresses = first(root, form.KindList, testsupport.VCard+"hasAddress")
	if addresses.Count != 1 {
		t.Fatalf("expected one address, got %d", addresses.Count)
	}
	country := first(addresses, form.KindValues, testsupport.VCard+"country-name")
	if country == nil || len(country.Choices) != 8 {
		t.Fatalf("country-name should offer the enumerated names: %+v", country)
	}
	if err := country.Choose(3); err != nil {
		t.Fatalf("choose country: %v", err)
	}
	got, _, _ = document.Resolve(loop.doc, document.PathOf(testsupport.VCard+"hasAddress", 0, testsupport.VCard+"country-name"))
	if lit, ok := got.(map[string]any); !ok || lit["@value"] != "France" {
		t.Fatalf("country not stored: %v", got)
	}

	name := first(root, form.KindLiteral, testsupport.FOAF+"name")
	if name == nil {
		t.Fatalf("first OneOf alternative should be active")
	}
	if err := name.Change("Ada"); err != nil {
		t.Fatalf("change name: %v", err)
	}
	root = loop.render(selections)
	var oneOf *form.Node
	root.Walk(func(n *form.Node) bool {
		if oneOf == nil && n.Kind == form.KindOneOf {
			oneOf = n
		}
		return oneOf == nil
	})
	if err := oneOf.Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, ok, _ := document.Resolve(loop.doc, document.PathOf(testsupport.FOAF+"name")); ok {
		t.Fatalf("switching alternatives should drop foaf:name")
	}
	root = loop.render(selections)
	if first(root, form.KindLiteral, testsupport.FOAF+"givenName") == nil {
		t.Fatalf("second alternative should render givenName")
	}
}
