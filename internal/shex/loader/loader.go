package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/goliatone/go-shexform/pkg/schema"
)

// acceptShEx prefers compact syntax and still takes JSON or anything else a
// server chooses to send.
const acceptShEx = "text/shex, application/shex+json;q=0.9, application/json;q=0.8, */*;q=0.1"

// Loader is the schema.Loader behind the package root. Documents larger
// than the configured limit are rejected whatever their source.
type Loader struct {
	files  fs.FS
	client *http.Client
	limit  int64
}

var _ schema.Loader = (*Loader)(nil)

func New(options schema.LoaderOptions) *Loader {
	l := &Loader{files: options.FileSystem, limit: options.MaxBytes}
	if options.HTTPClient != nil {
		client := *options.HTTPClient
		if client.Timeout == 0 {
			client.Timeout = options.RequestTimeout
		}
		l.client = &client
	} else if options.AllowHTTPFallback {
		l.client = &http.Client{Timeout: options.RequestTimeout}
	}
	return l
}

func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("shex loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return schema.Document{}, err
	}
	if src.Location() == "" {
		return schema.Document{}, fmt.Errorf("shex loader: %s source has no location", src.Kind())
	}

	data, err := l.read(ctx, src)
	if err != nil {
		return schema.Document{}, fmt.Errorf("shex loader: %s %s: %w", src.Kind(), src.Location(), err)
	}
	if l.limit > 0 && int64(len(data)) > l.limit {
		return schema.Document{}, fmt.Errorf("shex loader: %s exceeds %d bytes", src.Location(), l.limit)
	}
	return schema.NewDocument(src, data)
}

func (l *Loader) read(ctx context.Context, src schema.Source) ([]byte, error) {
	switch src.Kind() {
	case schema.SourceKindInline:
		text, _ := schema.InlineText(src)
		return []byte(text), nil
	case schema.SourceKindFile:
		return os.ReadFile(src.Location())
	case schema.SourceKindFS:
		if l.files == nil {
			return nil, errors.New("no filesystem configured")
		}
		return fs.ReadFile(l.files, src.Location())
	case schema.SourceKindURL:
		if l.client == nil {
			return nil, errors.New("http loading is disabled")
		}
		return l.fetch(ctx, src.Location())
	}
	return nil, fmt.Errorf("unsupported source kind %q", src.Kind())
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptShEx)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body := io.Reader(resp.Body)
	if l.limit > 0 {
		body = io.LimitReader(body, l.limit+1)
	}
	return io.ReadAll(body)
}
