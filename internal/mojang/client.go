// SPDX-License-Identifier: MPL-2.0

package mojang

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/blocklaunch/blocklaunch/internal/download"
	"github.com/blocklaunch/blocklaunch/pkg/digest"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
	"github.com/blocklaunch/blocklaunch/pkg/manifest"
)

const (
	// DefaultManifestURL is the version list endpoint.
	DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

	// maxJSONResponseBytes bounds every metadata response (32 MB).
	maxJSONResponseBytes = 32 << 20

	// listTTL is how long a fetched version list is reused.
	listTTL = 10 * time.Minute
)

// ErrUnexpectedStatus is wrapped by StatusError.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type (
	// Client reads remote version metadata.
	Client struct {
		httpClient  *http.Client
		manifestURL string
		mirror      download.Mirror
		userAgent   string
		cacheRoot   string
		logger      *log.Logger
		now         func() time.Time

		group     singleflight.Group
		mu        sync.Mutex
		list      *VersionList
		fetchedAt time.Time
	}

	// Option configures a Client during construction.
	Option func(*Client)

	// StatusError reports a non-200 response.
	StatusError struct {
		URL    string
		Status int
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s %d", e.URL, ErrUnexpectedStatus, e.Status)
}

// Unwrap returns ErrUnexpectedStatus so callers can use errors.Is.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithManifestURL overrides the version list URL, primarily for test servers.
func WithManifestURL(u string) Option {
	return func(cl *Client) {
		cl.manifestURL = u
	}
}

// WithMirror routes requests through a mirror first, falling back to the
// origin.
func WithMirror(m download.Mirror) Option {
	return func(cl *Client) {
		cl.mirror = m
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithCacheRoot makes Fetch store each verified descriptor under
// versions/<id>/<id>.json in root.
func WithCacheRoot(root string) Option {
	return func(cl *Client) {
		cl.cacheRoot = root
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a Client reading DefaultManifestURL.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient:  http.DefaultClient,
		manifestURL: DefaultManifestURL,
		userAgent:   "blocklaunch/dev",
		logger:      log.New(io.Discard),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VersionList returns the remote version list, reusing a recent copy.
func (c *Client) VersionList(ctx context.Context) (*VersionList, error) {
	c.mu.Lock()
	if c.list != nil && c.now().Sub(c.fetchedAt) < listTTL {
		list := c.list
		c.mu.Unlock()
		return list, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("list", func() (any, error) {
		data, err := c.get(ctx, c.manifestURL)
		if err != nil {
			return nil, err
		}
		list, err := decodeVersionList(data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.list, c.fetchedAt = list, c.now()
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching version list: %w", err)
	}
	return v.(*VersionList), nil
}

// Fetch implements manifest.Source. The descriptor is verified against the
// sha1 published in the version list.
func (c *Client) Fetch(ctx context.Context, id string) (*manifest.Version, error) {
	data, err := c.FetchRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return manifest.Decode(id, data)
}

// FetchRaw returns the verified descriptor bytes for id.
func (c *Client) FetchRaw(ctx context.Context, id string) ([]byte, error) {
	list, err := c.VersionList(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := list.Find(id)
	if !ok {
		return nil, &manifest.NotFoundError{ID: id}
	}

	data, err := c.get(ctx, entry.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching version %s: %w", id, err)
	}

	if want := digest.SHA1Hex(entry.SHA1); !want.IsZero() {
		v, err := digest.NewVerifier(want)
		if err != nil {
			return nil, fmt.Errorf("version %s: %w", id, err)
		}
		_, _ = v.Write(data) // hash writes cannot fail
		if err := v.Verify(id+".json", 0); err != nil {
			return nil, fmt.Errorf("version %s: %w", id, err)
		}
	}

	if c.cacheRoot != "" {
		path := manifest.VersionPath(c.cacheRoot, id)
		if err := fspath.WriteFileAtomic(path, data, 0o644); err != nil {
			c.logger.Warn("version descriptor not cached", "id", id, "error", err)
		}
	}
	return data, nil
}

// get fetches url, trying the mirrored URL first.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for _, src := range c.mirror.Sources(url) {
		data, err := c.getOnce(ctx, src)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("metadata source failed", "url", src, "error", err)
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}
