package session_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		raw  string
		want session.Action
	}{
		{raw: "add root/x", want: session.Action{Kind: session.ActionAdd, Node: "root/x"}},
		{raw: "select root/one 2", want: session.Action{Kind: session.ActionSelect, Node: "root/one", Index: 2}},
		{raw: "choose root/c 0", want: session.Action{Kind: session.ActionChoose, Node: "root/c"}},
		{raw: "start http://a.example/schema1#S", want: session.Action{Kind: session.ActionStart, Value: "http://a.example/schema1#S"}},
	}
	for _, tt := range tests {
		got, err := session.ParseAction(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("parse %q mismatch (-want +got):\n%s", tt.raw, diff)
		}
		if got.String() != tt.raw {
			t.Fatalf("round trip %q -> %q", tt.raw, got.String())
		}
	}

	for _, raw := range []string{"", "add", "jump root", "select root/one", "select root/one x"} {
		if _, err := session.ParseAction(raw); !errors.Is(err, session.ErrUnknownAction) {
			t.Fatalf("parse %q: expected ErrUnknownAction, got %v", raw, err)
		}
	}
}

func TestApply_DrivesWidgets(t *testing.T) {
	s := newSession(t)

	list := find(t, s.Render(), form.KindList, hasAddress)
	if err := s.Apply(session.Action{Kind: session.ActionAdd, Node: list.ID}); err != nil {
		t.Fatalf("add: %v", err)
	}
	item := find(t, s.Render(), form.KindItem, hasAddress)
	if err := s.Apply(session.Action{Kind: session.ActionRemove, Node: item.ID}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	oneOf := findKind(t, s.Render(), form.KindOneOf)
	if err := s.Apply(session.Action{Kind: session.ActionSelect, Node: oneOf.ID, Index: 1}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if findKind(t, s.Render(), form.KindOneOf).Selected != 1 {
		t.Fatalf("alternative not selected")
	}

	if err := s.Apply(session.Action{Kind: session.ActionAdd, Node: "missing"}); !errors.Is(err, session.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
	telephoneID := find(t, s.Render(), form.KindIRI, telephone).ID
	if err := s.Apply(session.Action{Kind: session.ActionAdd, Node: telephoneID}); !errors.Is(err, form.ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
	if err := s.Apply(session.Action{Kind: session.ActionStart, Value: testsupport.StreetAddress}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.StartShape() != testsupport.StreetAddress {
		t.Fatalf("start shape not switched")
	}
}

func TestApply_ReportsRejectedEdit(t *testing.T) {
	s := newSession(t, session.WithDocument(map[string]any{hasAddress: "not a list"}))
	list := find(t, s.Render(), form.KindList, hasAddress)
	if err := s.Apply(session.Action{Kind: session.ActionAdd, Node: list.ID}); err == nil {
		t.Fatalf("expected rejected edit error")
	}

	telephoneID := find(t, s.Render(), form.KindIRI, telephone).ID
	if err := s.Apply(session.Action{Kind: session.ActionChange, Node: telephoneID, Value: "tel:1"}); err != nil {
		t.Fatalf("a later action should not report the stale error: %v", err)
	}
}

func TestFill(t *testing.T) {
	s := newSession(t)
	root := s.Render()
	telephoneID := find(t, root, form.KindIRI, telephone).ID
	registeredID := find(t, root, form.KindLiteral, testsupport.VCard+"registered").ID

	if err := s.Fill(telephoneID, ""); err != nil || s.Version() != 0 {
		t.Fatalf("empty input on an empty slot should be a no-op: err=%v version=%d", err, s.Version())
	}
	if err := s.Fill(telephoneID, "tel:+1"); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := s.Fill(telephoneID, "tel:+1"); err != nil || s.Version() != 1 {
		t.Fatalf("unchanged input should not edit: err=%v version=%d", err, s.Version())
	}
	if err := s.Fill(registeredID, "on"); err != nil {
		t.Fatalf("fill checkbox: %v", err)
	}
	if err := s.Fill(telephoneID, ""); err != nil {
		t.Fatalf("clear: %v", err)
	}

	want := map[string]any{
		"@id":                           testsupport.RootURI,
		testsupport.VCard + "registered": map[string]any{"@value": true},
	}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}

	if err := s.Fill(root.ID, "x"); !errors.Is(err, form.ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction for container, got %v", err)
	}
}
