package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/goliatone/go-shexform/pkg/form"
	"github.com/goliatone/go-shexform/pkg/orchestrator"
	"github.com/goliatone/go-shexform/pkg/render"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla"
	"github.com/goliatone/go-shexform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-shexform/pkg/testsupport"
)

const (
	telephone  = testsupport.VCard + "telephone"
	hasAddress = testsupport.VCard + "hasAddress"
	foafName   = testsupport.FOAF + "name"
)

func newServer(t *testing.T, options ...Option) *Server {
	t.Helper()
	options = append([]Option{WithDefaults(orchestrator.Request{
		Schema:  testsupport.LoadSchema(t),
		RootURI: testsupport.RootURI,
	})}, options...)
	s, err := New(context.Background(), options...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return s
}

func createSession(t *testing.T, handler http.Handler, start string) string {
	t.Helper()
	form := url.Values{}
	if start != "" {
		form.Set("start", start)
	}
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	var links map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &links); err != nil {
		t.Fatalf("decode links: %v", err)
	}
	if rec.Header().Get("Location") != links["form"] {
		t.Fatalf("location %q does not match form link %q", rec.Header().Get("Location"), links["form"])
	}
	return links["id"]
}

func post(t *testing.T, handler http.Handler, id string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, handler http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func nodeID(t *testing.T, s *Server, id string, kind form.Kind, predicate string) string {
	t.Helper()
	entry, ok := s.Sessions().Get(id)
	if !ok {
		t.Fatalf("session %s not held", id)
	}
	var found string
	entry.Session.Render().Walk(func(n *form.Node) bool {
		if found == "" && n.Kind == kind && n.Predicate == predicate {
			found = n.ID
		}
		return found == ""
	})
	if found == "" {
		t.Fatalf("no %s node for %s", kind, predicate)
	}
	return found
}

func TestServer_CreateAndShow(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, "")

	rec := get(t, handler, "/sessions/"+id)
	if rec.Code != http.StatusOK {
		t.Fatalf("show: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`action="/sessions/` + id + `"`,
		`data-live-url="/sessions/` + id + `/ws"`,
		`name="` + render.FieldVersion + `" value="0"`,
		`name="` + render.FieldShape + `"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q\n%s", want, body)
		}
	}

	rec = get(t, handler, "/sessions/"+id+"?renderer=jsonld")
	if rec.Body.String() != `{"@id":"http://example.org/me"}` {
		t.Fatalf("unexpected jsonld rendering %s", rec.Body.String())
	}

	rec = get(t, handler, "/sessions/"+id, "Accept", "application/ld+json")
	if rec.Header().Get("Content-Type") != "application/ld+json" || !strings.HasPrefix(rec.Body.String(), `{"@id"`) {
		t.Fatalf("expected negotiated JSON-LD, got %q: %s", rec.Header().Get("Content-Type"), rec.Body.String())
	}
}

func TestServer_IndexRedirects(t *testing.T) {
	s := newServer(t)
	rec := get(t, s.Handler(), "/?start="+url.QueryEscape(testsupport.StreetAddress))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	id := strings.TrimPrefix(location, "/sessions/")
	entry, ok := s.Sessions().Get(id)
	if !ok {
		t.Fatalf("redirect target %q is not a held session", location)
	}
	if entry.Session.StartShape() != testsupport.StreetAddress {
		t.Fatalf("start shape not applied: %s", entry.Session.StartShape())
	}

	rec = get(t, s.Handler(), "/?start="+url.QueryEscape("http://nowhere#S"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for unknown shape, got %d", rec.Code)
	}
}

func TestServer_SubmitAndDocument(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, testsupport.UserProfile)

	values := url.Values{}
	values.Set(render.FieldVersion, "0")
	values.Set(nodeID(t, s, id, form.KindIRI, telephone), "tel:+1-555-0100")
	values.Set(nodeID(t, s, id, form.KindLiteral, foafName), "<b>Bob</b> & Co")
	rec := post(t, handler, id, values)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = get(t, handler, "/sessions/"+id+"/document")
	if rec.Code != http.StatusOK {
		t.Fatalf("document: status %d", rec.Code)
	}
	want := `{"@id":"http://example.org/me","http://www.w3.org/2006/vcard/ns#telephone":"tel:+1-555-0100","http://xmlns.com/foaf/0.1/name":{"@value":"Bob & Co"}}`
	if rec.Body.String() != want {
		t.Fatalf("document mismatch:\nwant %s\ngot  %s", want, rec.Body.String())
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}
	if rec := get(t, handler, "/sessions/"+id+"/document", "If-None-Match", etag); rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304 for matching ETag, got %d", rec.Code)
	}
}

func TestServer_SubmitAction(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, testsupport.UserProfile)

	listID := nodeID(t, s, id, form.KindList, hasAddress)
	values := url.Values{}
	values.Set(render.FieldVersion, "0")
	values.Set(components.FieldAction, "add "+listID)
	if rec := post(t, handler, id, values); rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d", rec.Code)
	}
	nodeID(t, s, id, form.KindItem, hasAddress)

	values.Set(components.FieldAction, "jump "+listID)
	values.Set(render.FieldVersion, "1")
	rec := post(t, handler, id, values)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "unknown action") {
		t.Fatalf("expected form-level unknown action message, got %d\n%s", rec.Code, rec.Body.String())
	}
}

func TestServer_StaleSubmission(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, testsupport.UserProfile)

	values := url.Values{}
	values.Set(render.FieldVersion, "3")
	values.Set(nodeID(t, s, id, form.KindIRI, telephone), "tel:1")
	rec := post(t, handler, id, values)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected conflict, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), staleMessage) {
		t.Fatalf("expected stale message in page")
	}
	entry, _ := s.Sessions().Get(id)
	if entry.Session.Version() != 0 {
		t.Fatalf("stale submission was applied")
	}

	values.Set(render.FieldVersion, "zero")
	if rec := post(t, handler, id, values); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request for malformed version, got %d", rec.Code)
	}
}

func TestServer_SwitchStartShape(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, "")

	values := url.Values{}
	values.Set(render.FieldVersion, "0")
	values.Set(render.FieldShape, testsupport.StreetAddress)
	if rec := post(t, handler, id, values); rec.Code != http.StatusOK {
		t.Fatalf("submit: status %d", rec.Code)
	}
	entry, _ := s.Sessions().Get(id)
	if entry.Session.StartShape() != testsupport.StreetAddress {
		t.Fatalf("start shape not switched: %s", entry.Session.StartShape())
	}
}

func TestServer_DeleteAndMissing(t *testing.T) {
	s := newServer(t)
	handler := s.Handler()
	id := createSession(t, handler, "")

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := get(t, handler, "/sessions/"+id); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	if rec := get(t, handler, "/sessions/not-a-uuid"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed id, got %d", rec.Code)
	}
}

func TestServer_Assets(t *testing.T) {
	s := newServer(t)
	rec := get(t, s.Handler(), "/assets/"+vanilla.StylesheetName)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "body.shexform") {
		t.Fatalf("stylesheet not served: %d", rec.Code)
	}
	if rec := get(t, s.Handler(), "/assets/missing.css"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing asset, got %d", rec.Code)
	}
}

func TestServer_WithoutLive(t *testing.T) {
	s := newServer(t, WithoutLive())
	handler := s.Handler()
	id := createSession(t, handler, "")
	if body := get(t, handler, "/sessions/"+id).Body.String(); strings.Contains(body, "data-live-url") {
		t.Fatalf("live url rendered with live editing disabled")
	}
	if rec := get(t, handler, "/sessions/"+id+"/ws"); rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("websocket route should be absent, got %d", rec.Code)
	}
}

func TestServer_LiveEdits(t *testing.T) {
	s := newServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	id := createSession(t, s.Handler(), testsupport.UserProfile)
	telephoneID := nodeID(t, s, id, form.KindIRI, telephone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/sessions/"+id+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	msg := LiveMessage{Version: 0, Fields: map[string][]string{telephoneID: {"tel:+1-555"}}}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply LiveReply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Status != http.StatusOK || reply.Version != 1 {
		t.Fatalf("unexpected reply status=%d version=%d error=%q", reply.Status, reply.Version, reply.Error)
	}
	if !strings.Contains(reply.HTML, "tel:+1-555") {
		t.Fatalf("reply html does not show the edit")
	}

	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write stale: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read stale: %v", err)
	}
	if reply.Status != http.StatusConflict {
		t.Fatalf("expected conflict for stale message, got %d", reply.Status)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
