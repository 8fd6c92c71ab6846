// Package remote fetches tree documents over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/branchwise/pkg/domain"
	"github.com/aretw0/branchwise/pkg/schema"
)

// TreePath is appended to base URLs that do not name a document.
const TreePath = "/api/tree"

// MaxDocumentSize bounds the response body.
const MaxDocumentSize = 8 << 20

// ErrDocumentTooLarge is returned when the body exceeds MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("tree document too large")

// Loader implements ports.TreeLoader over HTTP GET.
type Loader struct {
	url    string
	client *http.Client
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// NewLoader creates a loader for rawURL. A URL without a path is treated as
// a server base and gets TreePath appended.
func NewLoader(rawURL string, opts ...Option) (*Loader, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid tree URL %q", rawURL)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = TreePath
	}
	l := &Loader{
		url:    u.String(),
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// IsURL reports whether source looks like an http(s) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// URL returns the resolved document URL.
func (l *Loader) URL() string {
	return l.url
}

// Load fetches and validates the document.
func (l *Loader) Load(ctx context.Context) (*domain.Tree, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch tree: %s returned %s", l.url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}
	if len(data) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrDocumentTooLarge, l.url, MaxDocumentSize)
	}

	format := schema.FormatFromPath(req.URL.Path)
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = schema.FormatYAML
	}
	return schema.Decode(data, format)
}
