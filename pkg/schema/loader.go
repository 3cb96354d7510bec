package schema

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader reads the document a Source names. internal/shex/loader provides
// the implementation used by the package root.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions decides which source kinds a loader can serve. File and
// inline sources always work; fs sources need FileSystem and URL sources
// need HTTPClient or AllowHTTPFallback.
type LoaderOptions struct {
	FileSystem        fs.FS
	HTTPClient        *http.Client
	AllowHTTPFallback bool
	// RequestTimeout applies to the fallback client only.
	RequestTimeout time.Duration
	// MaxBytes caps every document read; zero leaves reads unbounded.
	MaxBytes int64
}

type LoaderOption func(*LoaderOptions)

func WithFileSystem(files fs.FS) LoaderOption {
	return func(o *LoaderOptions) { o.FileSystem = files }
}

func WithHTTPClient(client *http.Client) LoaderOption {
	return func(o *LoaderOptions) { o.HTTPClient = client }
}

// WithHTTPFallback lets URL sources load through a default client bounded
// by timeout. Zero means no timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(o *LoaderOptions) {
		o.AllowHTTPFallback, o.RequestTimeout = true, timeout
	}
}

func WithMaxBytes(limit int64) LoaderOption {
	return func(o *LoaderOptions) { o.MaxBytes = limit }
}

// NewLoaderOptions folds options into a LoaderOptions value.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	var o LoaderOptions
	for _, apply := range options {
		if apply != nil {
			apply(&o)
		}
	}
	return o
}
