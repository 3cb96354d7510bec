package overlay_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/overlay"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

func loadTestdata(t *testing.T) *overlay.Overlay {
	t.Helper()
	files := fstest.MapFS{}
	for _, name := range []string{"profile.yaml", "extra.json"} {
		data := mustRead(t, "testdata/"+name)
		files[name] = &fstest.MapFile{Data: data}
	}
	files["README.md"] = &fstest.MapFile{Data: []byte("not an overlay")}

	o, err := overlay.LoadFS(files)
	if err != nil {
		t.Fatalf("load overlays: %v", err)
	}
	return o
}

func find(t *testing.T, root *form.Node, kind form.Kind, predicate string) *form.Node {
	t.Helper()
	var found *form.Node
	root.Walk(func(n *form.Node) bool {
		if found == nil && n.Kind == kind && n.Predicate == predicate {
			found = n
		}
		return found == nil
	})
	if found == nil {
		t.Fatalf("no %s node for %s", kind, predicate)
	}
	return found
}

func TestLoadFS_MergesFilesAndPatterns(t *testing.T) {
	o := loadTestdata(t)
	if diff := cmp.Diff([]string{"extra.json", "profile.yaml"}, o.Sources()); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}

	got, ok := o.Predicate(testsupport.VCard + "someInt")
	if !ok {
		t.Fatalf("someInt override missing")
	}
	want := overlay.Text{Label: "Some number", Help: "A vCard property.", Placeholder: "42"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("someInt mismatch (-want +got):\n%s", diff)
	}

	got, _ = o.Predicate(testsupport.VCard + "telephone")
	if diff := cmp.Diff(overlay.Text{Help: "A vCard property.", Placeholder: "vCard value"}, got); diff != "" {
		t.Fatalf("telephone mismatch (-want +got):\n%s", diff)
	}

	if _, ok := o.Predicate(testsupport.Solid + "webid"); ok {
		t.Fatalf("webid should have no override")
	}
	if name, _ := o.Predicate(testsupport.FOAF + "name"); name.Label != "Display name" {
		t.Fatalf("json overlay not applied: %#v", name)
	}
}

func TestParse_SanitizesHelp(t *testing.T) {
	o := loadTestdata(t)
	shape, ok := o.Shape(testsupport.UserProfile)
	if !ok {
		t.Fatalf("shape override missing")
	}
	if strings.Contains(shape.Help, "script") || !strings.Contains(shape.Help, "<em>about</em>") {
		t.Fatalf("help not sanitized: %q", shape.Help)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":          "  ",
		"unknown prefix": "predicates:\n  nope:x:\n    label: X\n",
		"invalid":        "predicates: [\n",
	}
	for name, data := range tests {
		if _, err := overlay.Parse([]byte(data), name); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	dup := fstest.MapFS{
		"a.yaml": {Data: []byte("predicates:\n  \"http://x/p\":\n    label: A\n")},
		"b.yaml": {Data: []byte("predicates:\n  \"http://x/p\":\n    label: B\n")},
	}
	if _, err := overlay.LoadFS(dup); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestDecorator_RelabelsWidgets(t *testing.T) {
	o := loadTestdata(t)
	s, err := session.New(testsupport.LoadSchema(t),
		session.WithRootURI(testsupport.RootURI),
		session.WithDecorator(o.Decorator()),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	root := s.Render()
	if root.Label != "Your profile" {
		t.Fatalf("shape label not applied: %q", root.Label)
	}
	if triple := find(t, root, form.KindTriple, testsupport.VCard+"someInt"); triple.Label != "Some number" {
		t.Fatalf("triple label not applied: %q", triple.Label)
	}
	if leaf := find(t, root, form.KindLiteral, testsupport.VCard+"someInt"); leaf.Placeholder != "42" {
		t.Fatalf("placeholder not applied: %q", leaf.Placeholder)
	}
}

func TestDefault_LabelsCommonVocabularies(t *testing.T) {
	o, err := overlay.Default()
	if err != nil {
		t.Fatalf("default overlays: %v", err)
	}
	s, err := session.New(testsupport.LoadSchema(t),
		session.WithRootURI(testsupport.RootURI),
		session.WithDecorator(o.Decorator()),
	)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	list := find(t, s.Render(), form.KindList, testsupport.VCard+"hasAddress")
	if err := list.Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	list = find(t, s.Render(), form.KindList, testsupport.VCard+"hasAddress")
	if list.Label != "Address" || len(list.Children) != 1 || list.Children[0].Label != "Address 1" {
		t.Fatalf("list labels not applied: %q %v", list.Label, list.Children)
	}
	if telephone := find(t, s.Render(), form.KindTriple, testsupport.VCard+"telephone"); telephone.Label != "Telephone" {
		t.Fatalf("telephone label not applied: %q", telephone.Label)
	}
}
