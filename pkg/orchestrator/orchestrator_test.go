package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/schema"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

const telephone = testsupport.VCard + "telephone"

func TestOrchestrator_GenerateFromCompactSource(t *testing.T) {
	orch := New()
	if err := orch.Err(); err != nil {
		t.Fatalf("defaults: %v", err)
	}

	output, err := orch.Generate(context.Background(), Request{
		Source:  schema.SourceFromText("profile.shex", testsupport.UserProfileShExC(t)),
		RootURI: testsupport.RootURI,
		Start:   testsupport.UserProfile,
		RenderOptions: render.RenderOptions{
			Action: "/sessions/abc",
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	html := string(output)
	for _, want := range []string{
		"Telephone",
		`name="_version"`,
		`action="/sessions/abc"`,
		testsupport.RootURI,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected output to contain %q\n%s", want, html)
		}
	}
}

func TestOrchestrator_GenerateJSONLD(t *testing.T) {
	orch := New()

	output, err := orch.Generate(context.Background(), Request{
		Schema:   testsupport.LoadSchema(t),
		Renderer: "jsonld",
		RootURI:  testsupport.RootURI,
		Document: map[string]any{
			testsupport.FOAF + "name": map[string]any{"@value": "Alice"},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	want := `{"@id":"http://example.org/me","http://xmlns.com/foaf/0.1/name":{"@value":"Alice"}}`
	if string(output) != want {
		t.Fatalf("unexpected output:\nwant %s\ngot  %s", want, output)
	}
}

func TestOrchestrator_Errors(t *testing.T) {
	orch := New()
	ctx := context.Background()

	if _, err := orch.Generate(ctx, Request{}); err == nil {
		t.Fatalf("expected error without source or schema")
	}

	_, err := orch.Generate(ctx, Request{Schema: testsupport.LoadSchema(t), Renderer: "pdf"})
	if err == nil || !strings.Contains(err.Error(), `"pdf"`) {
		t.Fatalf("expected unknown renderer error, got %v", err)
	}

	_, err = orch.NewSession(ctx, Request{Schema: testsupport.LoadSchema(t), Start: "http://nowhere#S"})
	if !errors.Is(err, session.ErrUnknownShape) {
		t.Fatalf("expected ErrUnknownShape, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := orch.NewSession(cancelled, Request{Schema: testsupport.LoadSchema(t)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOrchestrator_OverlayLayers(t *testing.T) {
	files := fstest.MapFS{
		"labels.yaml": &fstest.MapFile{Data: []byte(`
prefixes:
  vc: "http://www.w3.org/2006/vcard/ns#"
predicates:
  vc:telephone:
    label: Phone
`)},
	}

	tests := []struct {
		name    string
		options []Option
		want    string
	}{
		{name: "embedded defaults", want: "Telephone"},
		{name: "layered file", options: []Option{WithOverlayFS(files)}, want: "Phone"},
		{name: "disabled", options: []Option{WithOverlay(nil)}, want: "telephone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := New(tt.options...)
			s, err := orch.NewSession(context.Background(), Request{Schema: testsupport.LoadSchema(t)})
			if err != nil {
				t.Fatalf("new session: %v", err)
			}
			triple := findTriple(s.Render(), telephone)
			if triple == nil {
				t.Fatalf("telephone triple not rendered")
			}
			if triple.Label != tt.want {
				t.Fatalf("label mismatch: want %q, got %q", tt.want, triple.Label)
			}
		})
	}
}

func TestOrchestrator_DecoratorsRunAfterOverlay(t *testing.T) {
	var seen string
	orch := New(WithDecorators(func(root *form.Node) {
		if triple := findTriple(root, telephone); triple != nil {
			seen = triple.Label
			triple.Label = strings.ToUpper(triple.Label)
		}
	}))

	s, err := orch.NewSession(context.Background(), Request{Schema: testsupport.LoadSchema(t)})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	root := s.Render()
	if seen != "Telephone" {
		t.Fatalf("decorator saw %q, want overlay label", seen)
	}
	if got := findTriple(root, telephone).Label; got != "TELEPHONE" {
		t.Fatalf("decorator result lost: %q", got)
	}
}

func TestOrchestrator_CompactBaseFromRequest(t *testing.T) {
	text := "PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>\n<#S> { <#p> xsd:string }\n"

	orch := New()
	sch, err := orch.Schema(context.Background(), Request{
		Source:  schema.SourceFromText("inline.shex", text),
		BaseURI: "http://b.example/s",
	})
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if len(sch.Shapes) != 1 || sch.Shapes[0].ID != "http://b.example/s#S" {
		t.Fatalf("unexpected shapes: %+v", sch.Shapes)
	}
}

func findTriple(root *form.Node, predicate string) *form.Node {
	var found *form.Node
	root.Walk(func(node *form.Node) bool {
		if found != nil {
			return false
		}
		if node.Kind == form.KindTriple && node.Predicate == predicate {
			found = node
			return false
		}
		return true
	})
	return found
}
