package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-shexform/pkg/schema"
)

const compact = "PREFIX ex: <http://ex.example/>\nex:S { ex:p IRI }\n"

func TestLoaderSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.shex")
	if err := os.WriteFile(path, []byte(compact), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(compact))
	}))
	defer server.Close()

	l := New(schema.NewLoaderOptions(
		schema.WithFileSystem(fstest.MapFS{"schemas/s.shex": {Data: []byte(compact)}}),
		schema.WithHTTPClient(server.Client()),
	))

	sources := map[string]schema.Source{
		"file":   schema.SourceFromFile(path),
		"fs":     schema.SourceFromFS("schemas/s.shex"),
		"url":    schema.SourceFromURL(server.URL + "/s.shex"),
		"inline": schema.SourceFromText("s.shex", compact),
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			doc, err := l.Load(context.Background(), src)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if string(doc.Raw()) != compact {
				t.Fatalf("unexpected payload %q", doc.Raw())
			}
			if doc.Format() != schema.FormatShExC {
				t.Fatalf("format %q", doc.Format())
			}
		})
	}
	if !strings.Contains(accept, "text/shex") {
		t.Fatalf("accept header %q", accept)
	}
}

func TestLoaderRejections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(strings.Repeat("#", 64)))
	}))
	defer server.Close()

	offline := New(schema.NewLoaderOptions())
	if _, err := offline.Load(context.Background(), schema.SourceFromURL(server.URL)); err == nil {
		t.Fatalf("http sources should be disabled by default")
	}
	if _, err := offline.Load(context.Background(), schema.SourceFromFS("x.shex")); err == nil {
		t.Fatalf("fs sources need a filesystem")
	}
	if _, err := offline.Load(context.Background(), nil); err == nil {
		t.Fatalf("nil source should fail")
	}

	online := New(schema.NewLoaderOptions(schema.WithHTTPFallback(0), schema.WithMaxBytes(16)))
	if _, err := online.Load(context.Background(), schema.SourceFromURL(server.URL+"/missing")); err == nil {
		t.Fatalf("non-2xx responses should fail")
	}
	if _, err := online.Load(context.Background(), schema.SourceFromURL(server.URL+"/big")); err == nil {
		t.Fatalf("oversized documents should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := offline.Load(ctx, schema.SourceFromFile("whatever.shex")); err == nil {
		t.Fatalf("cancelled context should fail")
	}
}
