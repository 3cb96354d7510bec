package session_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-shexform/pkg/document"
	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/session"
	"github.com/goliatone/go-shexform/pkg/shex"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

const (
	telephone  = testsupport.VCard + "telephone"
	hasAddress = testsupport.VCard + "hasAddress"
	name       = testsupport.FOAF + "name"
	givenName  = testsupport.FOAF + "givenName"
)

func newSession(t *testing.T, opts ...session.Option) *session.Session {
	t.Helper()
	opts = append([]session.Option{session.WithRootURI(testsupport.RootURI)}, opts...)
	s, err := session.New(testsupport.LoadSchema(t), opts...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
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

func findKind(t *testing.T, root *form.Node, kind form.Kind) *form.Node {
	t.Helper()
	var found *form.Node
	root.Walk(func(n *form.Node) bool {
		if found == nil && n.Kind == kind {
			found = n
		}
		return found == nil
	})
	if found == nil {
		t.Fatalf("no %s node", kind)
	}
	return found
}

func TestNew_SeedsDocumentAndStartShape(t *testing.T) {
	s := newSession(t)

	want := map[string]any{"@id": testsupport.RootURI}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
	if s.StartShape() != testsupport.UserProfile {
		t.Fatalf("start shape %s, want first declared", s.StartShape())
	}
	if !s.ShowStartShapeChooser() {
		t.Fatalf("inferred start shape should show the chooser")
	}
	choices := s.ShapeChoices()
	if len(choices) != 8 || !choices[0].Selected || choices[0].Label != "UserProfile" {
		t.Fatalf("unexpected choices %+v", choices)
	}
}

func TestNew_StartShapeOption(t *testing.T) {
	s := newSession(t, session.WithStartShape(testsupport.StreetAddress))
	if s.ShowStartShapeChooser() {
		t.Fatalf("explicit start shape should hide the chooser")
	}
	if got := s.Render().Label; got != "vcard_street-address" {
		t.Fatalf("root label %q", got)
	}

	_, err := session.New(testsupport.LoadSchema(t), session.WithStartShape("http://nowhere#X"))
	if !errors.Is(err, session.ErrUnknownShape) {
		t.Fatalf("expected ErrUnknownShape, got %v", err)
	}
}

func TestNew_PrefilledDocument(t *testing.T) {
	prefill := map[string]any{telephone: "tel:+44"}
	s := newSession(t, session.WithDocument(prefill))

	doc := s.Document().(map[string]any)
	if doc["@id"] != testsupport.RootURI || doc[telephone] != "tel:+44" {
		t.Fatalf("unexpected document %v", doc)
	}
	if _, ok := prefill["@id"]; ok {
		t.Fatalf("prefill map must not be modified")
	}
	if got := find(t, s.Render(), form.KindIRI, telephone).Value; got != "tel:+44" {
		t.Fatalf("leaf value %v", got)
	}
}

func TestSession_ChangeStoresIRI(t *testing.T) {
	s := newSession(t)
	before := s.Document()

	if err := find(t, s.Render(), form.KindIRI, telephone).Change("tel:+1-555"); err != nil {
		t.Fatalf("change: %v", err)
	}

	want := map[string]any{"@id": testsupport.RootURI, telephone: "tel:+1-555"}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"@id": testsupport.RootURI}, before); diff != "" {
		t.Fatalf("earlier snapshot changed (-want +got):\n%s", diff)
	}
	if s.Version() != 1 || s.Err() != nil {
		t.Fatalf("version=%d err=%v", s.Version(), s.Err())
	}

	if err := find(t, s.Render(), form.KindIRI, telephone).Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Document().(map[string]any)[telephone]; ok {
		t.Fatalf("clear should remove the predicate")
	}
}

func TestSession_AddEmptyAddress(t *testing.T) {
	s := newSession(t)

	if err := find(t, s.Render(), form.KindList, hasAddress).Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	want := map[string]any{"@id": testsupport.RootURI, hasAddress: []any{map[string]any{}}}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}

	item := find(t, s.Render(), form.KindItem, hasAddress)
	if err := item.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	want = map[string]any{"@id": testsupport.RootURI, hasAddress: []any{}}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SwitchAlternativeDropsPredicates(t *testing.T) {
	s := newSession(t)

	if err := find(t, s.Render(), form.KindLiteral, name).Change("Ada"); err != nil {
		t.Fatalf("change name: %v", err)
	}
	if err := findKind(t, s.Render(), form.KindOneOf).Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, ok := s.Document().(map[string]any)[name]; ok {
		t.Fatalf("foaf:name should be removed")
	}
	find(t, s.Render(), form.KindLiteral, givenName)

	if err := s.SelectStartShape(testsupport.UserProfile); err != nil {
		t.Fatalf("reselect same shape: %v", err)
	}
	if findKind(t, s.Render(), form.KindOneOf).Selected != 1 {
		t.Fatalf("reselecting the current shape keeps selections")
	}

	if err := s.SelectStartShape(testsupport.StreetAddress); err != nil {
		t.Fatalf("select start: %v", err)
	}
	if err := s.SelectStartShape(testsupport.UserProfile); err != nil {
		t.Fatalf("select start: %v", err)
	}
	if got := findKind(t, s.Render(), form.KindOneOf).Selected; got != 0 {
		t.Fatalf("selections should reset with the start shape, got %d", got)
	}
	if err := s.SelectStartShape("http://nowhere#X"); !errors.Is(err, session.ErrUnknownShape) {
		t.Fatalf("expected ErrUnknownShape, got %v", err)
	}
}

func TestSession_RejectedEditKeepsSnapshot(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := newSession(t,
		session.WithLogger(logger),
		session.WithDocument(map[string]any{hasAddress: "not a list"}),
	)
	before := s.Document()

	list := find(t, s.Render(), form.KindList, hasAddress)
	if err := list.Add(); err != nil {
		t.Fatalf("add: %v", err)
	}

	if !errors.Is(s.Err(), document.ErrStructuralMismatch) {
		t.Fatalf("expected structural mismatch, got %v", s.Err())
	}
	var pathErr *document.PathError
	if !errors.As(s.Err(), &pathErr) {
		t.Fatalf("expected *document.PathError, got %T", s.Err())
	}
	if diff := cmp.Diff(before, s.Document()); diff != "" {
		t.Fatalf("snapshot changed (-want +got):\n%s", diff)
	}
	if s.Version() != 0 {
		t.Fatalf("rejected edit must not bump the version")
	}
	if !strings.Contains(logs.String(), "edit rejected") {
		t.Fatalf("expected warning in logs, got %q", logs.String())
	}

	if err := find(t, s.Render(), form.KindIRI, telephone).Change("tel:1"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if s.Err() != nil || s.Version() != 1 {
		t.Fatalf("a later edit should succeed: err=%v version=%d", s.Err(), s.Version())
	}
}

func TestSession_RootIdentityIsProtected(t *testing.T) {
	s := newSession(t)
	root := s.Render()

	s.OnChange(root.Context(), form.Change{Value: "replacement"})
	if !errors.Is(s.Err(), session.ErrRootIdentity) {
		t.Fatalf("expected ErrRootIdentity, got %v", s.Err())
	}
	s.OnChange(root.Context().Extend(document.Key("@id")), form.Change{Value: "http://other", IsIRI: true})
	if !errors.Is(s.Err(), session.ErrRootIdentity) {
		t.Fatalf("expected ErrRootIdentity, got %v", s.Err())
	}
	if diff := cmp.Diff(map[string]any{"@id": testsupport.RootURI}, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ConcurrentEditsAreSerialized(t *testing.T) {
	s := newSession(t)
	list := find(t, s.Render(), form.KindList, hasAddress)
	appendCtx := list.Context().Extend(document.Index(1 << 20))

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.OnAddEmptyElement(appendCtx, false)
		}()
	}
	wg.Wait()

	if s.Version() != writers {
		t.Fatalf("version %d, want %d", s.Version(), writers)
	}
	if got := find(t, s.Render(), form.KindList, hasAddress).Count; got != writers {
		t.Fatalf("list count %d, want %d", got, writers)
	}
}

func TestSession_DecoratorsAndIssues(t *testing.T) {
	s := newSession(t, session.WithDecorator(func(root *form.Node) {
		root.Help = "decorated"
	}))
	root := s.Render()
	if root.Help != "decorated" {
		t.Fatalf("decorator not applied")
	}
	if _, ok := s.Find(root.ID); !ok {
		t.Fatalf("root id should be findable")
	}

	issues := s.Issues()
	var webid bool
	for _, issue := range issues {
		if issue.Path == "$."+testsupport.Solid+"webid" && strings.Contains(issue.Message, "IRI is required") {
			webid = true
		}
	}
	if !webid {
		t.Fatalf("expected required IRI issue, got %+v", issues)
	}
}

func TestSession_RemoveFirstOfTwoAddresses(t *testing.T) {
	s := newSession(t)

	for i := 0; i < 2; i++ {
		if err := find(t, s.Render(), form.KindList, hasAddress).Add(); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	second := find(t, s.Render(), form.KindList, hasAddress).Children[1]
	street := find(t, second, form.KindLiteral, testsupport.VCard+"street-address")
	if err := street.Change("1 Main St"); err != nil {
		t.Fatalf("change street: %v", err)
	}

	if err := find(t, s.Render(), form.KindList, hasAddress).Children[0].Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	want := map[string]any{
		"@id": testsupport.RootURI,
		hasAddress: []any{
			map[string]any{testsupport.VCard + "street-address": map[string]any{"@value": "1 Main St"}},
		},
	}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
	if s.Err() != nil {
		t.Fatalf("unexpected edit error: %v", s.Err())
	}
}

const (
	contactBase = "http://a.example/contacts"
	contact     = contactBase + "#contact"
	email       = contactBase + "#email"
	phone       = contactBase + "#phone"
)

// contactSession renders a list of contacts, each holding either an email or
// a phone IRI.
func contactSession(t *testing.T) *session.Session {
	t.Helper()
	iri := func(predicate string) *shex.TripleConstraint {
		return &shex.TripleConstraint{
			Predicate: predicate,
			ValueExpr: &shex.NodeConstraint{NodeKind: shex.NodeKindIRI},
		}
	}
	schema := &shex.Schema{Shapes: []*shex.ShapeDecl{
		{ID: contactBase + "#Person", ShapeExpr: &shex.Shape{Expression: &shex.TripleConstraint{
			Predicate: contact,
			ValueExpr: shex.ShapeRef(contactBase + "#Contact"),
			Min:       shex.Bound(0),
			Max:       shex.Bound(shex.Unbounded),
		}}},
		{ID: contactBase + "#Contact", ShapeExpr: &shex.Shape{Expression: &shex.OneOf{
			Expressions: []shex.TripleExpr{iri(email), iri(phone)},
		}}},
	}}
	s, err := session.New(schema, session.WithRootURI(testsupport.RootURI))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func contactItem(t *testing.T, s *session.Session, index int) *form.Node {
	t.Helper()
	list := find(t, s.Render(), form.KindList, contact)
	if index >= len(list.Children) {
		t.Fatalf("contact %d missing, list has %d", index, len(list.Children))
	}
	return list.Children[index]
}

func TestSession_RemovedItemChoiceDoesNotMoveToNextItem(t *testing.T) {
	s := contactSession(t)
	for i := 0; i < 2; i++ {
		if err := find(t, s.Render(), form.KindList, contact).Add(); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	if err := findKind(t, contactItem(t, s, 0), form.KindOneOf).Select(1); err != nil {
		t.Fatalf("select phone: %v", err)
	}
	if err := find(t, contactItem(t, s, 0), form.KindIRI, phone).Change("tel:1"); err != nil {
		t.Fatalf("change phone: %v", err)
	}
	if err := find(t, contactItem(t, s, 1), form.KindIRI, email).Change("mailto:b@x"); err != nil {
		t.Fatalf("change email: %v", err)
	}

	if err := contactItem(t, s, 0).Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	item := contactItem(t, s, 0)
	if got := findKind(t, item, form.KindOneOf).Selected; got != 0 {
		t.Fatalf("remaining contact shows alternative %d, want email", got)
	}
	if err := findKind(t, item, form.KindIRI).Change("mailto:c@x"); err != nil {
		t.Fatalf("change: %v", err)
	}

	want := map[string]any{
		"@id":   testsupport.RootURI,
		contact: []any{map[string]any{email: "mailto:c@x"}},
	}
	if diff := cmp.Diff(want, s.Document()); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_ChoicesFollowTheirItemAfterRemoval(t *testing.T) {
	s := contactSession(t)
	for i := 0; i < 3; i++ {
		if err := find(t, s.Render(), form.KindList, contact).Add(); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := findKind(t, contactItem(t, s, 2), form.KindOneOf).Select(1); err != nil {
		t.Fatalf("select phone: %v", err)
	}

	if err := contactItem(t, s, 0).Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	var got []int
	for i := 0; i < 2; i++ {
		got = append(got, findKind(t, contactItem(t, s, i), form.KindOneOf).Selected)
	}
	if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
		t.Fatalf("selected alternatives mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SwitchingEmptyAlternativeIsNotAnError(t *testing.T) {
	s := contactSession(t)
	if err := find(t, s.Render(), form.KindList, contact).Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	version := s.Version()

	if err := findKind(t, contactItem(t, s, 0), form.KindOneOf).Select(1); err != nil {
		t.Fatalf("select: %v", err)
	}
	if s.Err() != nil {
		t.Fatalf("switching with nothing to retract reported %v", s.Err())
	}
	if s.Version() != version {
		t.Fatalf("version moved from %d to %d without an edit", version, s.Version())
	}
	find(t, contactItem(t, s, 0), form.KindIRI, phone)
}
