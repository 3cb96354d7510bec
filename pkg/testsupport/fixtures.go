package testsupport

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-shexform/pkg/shex"
)

//go:embed testdata/*
var fixtures embed.FS

// Identifiers used by the user profile fixture.
const (
	BaseURI = "http://a.example/schema1"
	RootURI = "http://example.org/me"

	FOAF  = "http://xmlns.com/foaf/0.1/"
	VCard = "http://www.w3.org/2006/vcard/ns#"
	XSD   = "http://www.w3.org/2001/XMLSchema#"
	Solid = "http://www.w3.org/ns/solid/terms#"

	UserProfile   = BaseURI + "#UserProfile"
	StreetAddress = BaseURI + "#vcard_street-address"
	CountryName   = BaseURI + "#vcard_country-name"
)

// Fixtures exposes the embedded fixture files.
func Fixtures() embed.FS {
	return fixtures
}

// MustReadFixture returns the raw content of an embedded fixture.
func MustReadFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := fixtures.ReadFile(filepath.ToSlash(filepath.Join("testdata", name)))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// UserProfileShExJ returns the ShExJ rendition of the user profile schema.
func UserProfileShExJ(t *testing.T) []byte {
	t.Helper()
	return MustReadFixture(t, "userprofile.shexj.json")
}

// UserProfileShExC returns the compact syntax rendition of the user profile
// schema.
func UserProfileShExC(t *testing.T) string {
	t.Helper()
	return string(MustReadFixture(t, "userprofile.shex"))
}

// LoadSchema decodes the user profile ShExJ fixture.
func LoadSchema(t *testing.T) *shex.Schema {
	t.Helper()

	schema, err := LoadSchemaFromFixture("userprofile.shexj.json")
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return schema
}

// LoadSchemaFromFixture decodes an embedded ShExJ fixture without requiring
// testing.T, for setup helpers.
func LoadSchemaFromFixture(name string) (*shex.Schema, error) {
	data, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture: %w", err)
	}
	schema, err := shex.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("testsupport: decode fixture: %w", err)
	}
	return schema, nil
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
