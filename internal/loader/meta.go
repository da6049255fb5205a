// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blocklaunch/blocklaunch/internal/download"
)

// maxMetaResponseBytes bounds metadata responses (16 MB).
const maxMetaResponseBytes = 16 << 20

type (
	// metaClient fetches loader metadata documents.
	metaClient struct {
		httpClient *http.Client
		userAgent  string
		mirror     download.Mirror
	}

	// ProviderOption configures the metadata access of a Provider.
	ProviderOption func(*providerConfig)

	providerConfig struct {
		meta    metaClient
		baseURL string
		// promotionsURL is only used by Forge.
		promotionsURL string
	}

	// statusError reports a non-200 metadata response.
	statusError struct {
		URL    string
		Status int
	}
)

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// WithHTTPClient sets the HTTP client for metadata requests.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *providerConfig) {
		p.meta.httpClient = c
	}
}

// WithBaseURL overrides the metadata or Maven base URL, primarily for tests.
func WithBaseURL(u string) ProviderOption {
	return func(p *providerConfig) {
		p.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPromotionsURL overrides the Forge promotions document URL.
func WithPromotionsURL(u string) ProviderOption {
	return func(p *providerConfig) {
		p.promotionsURL = u
	}
}

// WithMirror routes metadata requests through a mirror first.
func WithMirror(m download.Mirror) ProviderOption {
	return func(p *providerConfig) {
		p.meta.mirror = m
	}
}

// WithUserAgent sets the User-Agent header for metadata requests.
func WithUserAgent(ua string) ProviderOption {
	return func(p *providerConfig) {
		p.meta.userAgent = ua
	}
}

func newProviderConfig(baseURL string, opts []ProviderOption) providerConfig {
	cfg := providerConfig{
		meta:    metaClient{httpClient: http.DefaultClient, userAgent: "blocklaunch/dev"},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// get returns the body of url, trying the mirror first. A 404 from every
// source is reported as a *statusError with Status 404.
func (m metaClient) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for _, src := range m.mirror.Sources(url) {
		data, err := m.getOnce(ctx, src)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}

func (m metaClient) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMetaResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return data, nil
}

func (m metaClient) getJSON(ctx context.Context, url string, v any) error {
	data, err := m.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
