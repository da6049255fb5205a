// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	// HopYggdrasilAPI reads the Yggdrasil server metadata.
	HopYggdrasilAPI Hop = "yggdrasil-api"
	// HopYggdrasilAuthenticate signs in with a password.
	HopYggdrasilAuthenticate Hop = "yggdrasil-authenticate"
	// HopYggdrasilValidate checks a stored token.
	HopYggdrasilValidate Hop = "yggdrasil-validate"
	// HopYggdrasilRefresh renews a token or binds it to a profile.
	HopYggdrasilRefresh Hop = "yggdrasil-refresh"
	// HopAgentRelease reads the authlib-injector release metadata.
	HopAgentRelease Hop = "agent-release"

	// apiLocationHeader points from a server's landing page to its API root.
	apiLocationHeader = "X-Authlib-Injector-API-Location"

	// yggdrasilRevalidate is how long a validated token is used without
	// asking the server again.
	yggdrasilRevalidate = time.Hour
)

// ErrInvalidCredentials is returned when a Yggdrasil server rejects the
// username or password.
var ErrInvalidCredentials = errors.New("invalid username or password")

type (
	// YggdrasilServer identifies a third-party authentication server.
	YggdrasilServer struct {
		// APIURL is the API root, without a trailing slash.
		APIURL string `toml:"api_url"`
		Name   string `toml:"name"`
		// Metadata is the API root document, base64 encoded, handed to the
		// agent so it skips its own request at startup.
		Metadata string `toml:"metadata"`
	}

	// YggdrasilCredentials are what a password sign-in needs. APIURL may be
	// a landing page that redirects to the API with the
	// X-Authlib-Injector-API-Location header.
	YggdrasilCredentials struct {
		APIURL   string
		Username string
		Password string
	}

	// ProfileChooser picks one of the profiles an account owns and returns
	// its index. An error aborts the sign-in.
	ProfileChooser func(ctx context.Context, profiles []Profile) (int, error)

	// AgentRelease is a published authlib-injector build.
	AgentRelease struct {
		Version string
		URL     string
		// SHA256 is the hex digest of the jar.
		SHA256 string
	}

	yggdrasilAuth struct {
		accessToken string
		clientToken string
		selected    *Profile
		available   []Profile
	}
)

// ResolveYggdrasilServer reads the metadata of the server at rawURL,
// following the API location header. A URL without a scheme is taken as
// https.
func (m *Manager) ResolveYggdrasilServer(ctx context.Context, rawURL string) (YggdrasilServer, error) {
	api, err := normalizeAPIURL(rawURL)
	if err != nil {
		return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Err: err}
	}

	resp, err := m.get(ctx, api)
	if err != nil {
		return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Err: err}
	}
	if loc := resp.header.Get(apiLocationHeader); loc != "" {
		next, err := resolveLocation(api, loc)
		if err != nil {
			return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Err: err}
		}
		if next != api {
			api = next
			if resp, err = m.get(ctx, api); err != nil {
				return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Err: err}
			}
		}
	}
	if resp.status != http.StatusOK {
		return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Status: resp.status, Err: errors.New("server metadata unavailable")}
	}
	if !gjson.ValidBytes(resp.body) {
		return YggdrasilServer{}, &HopError{Hop: HopYggdrasilAPI, Status: resp.status, Err: errors.New("server metadata is not JSON")}
	}

	name := gjson.GetBytes(resp.body, "meta.serverName").String()
	if name == "" {
		name = hostOf(api)
	}
	return YggdrasilServer{
		APIURL:   api,
		Name:     name,
		Metadata: base64.StdEncoding.EncodeToString(resp.body),
	}, nil
}

// LoginYggdrasil signs in to a Yggdrasil server with a password and stores
// the session. choose is asked when the account owns several profiles and
// the server did not select one; nil picks the first.
func (m *Manager) LoginYggdrasil(ctx context.Context, creds YggdrasilCredentials, choose ProfileChooser) (Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return Session{}, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	server, err := m.ResolveYggdrasilServer(ctx, creds.APIURL)
	if err != nil {
		return Session{}, err
	}

	res, err := m.yggdrasilAuthenticate(ctx, server.APIURL, creds, simpleUUID(uuid.New()))
	if err != nil {
		return Session{}, err
	}

	profile, err := pickProfile(ctx, res, choose)
	if err != nil {
		return Session{}, err
	}
	if res.selected == nil || res.selected.UUID != profile.UUID {
		bound, err := m.yggdrasilRefresh(ctx, server.APIURL, res.accessToken, res.clientToken, &profile)
		if err != nil {
			return Session{}, err
		}
		res = bound
	}

	s := &Session{
		AccountID:   profile.UUID,
		Kind:        KindYggdrasil,
		AccessToken: res.accessToken,
		ClientToken: res.clientToken,
		Profile:     profile,
		Server:      &server,
		ValidatedAt: m.now(),
	}
	if err := m.commit(s); err != nil {
		return Session{}, err
	}
	m.logger.Info("signed in", "player", profile.Name, "server", server.Name)
	return *s, nil
}

// LatestAgent reads the release metadata of authlib-injector.
func (m *Manager) LatestAgent(ctx context.Context) (AgentRelease, error) {
	resp, err := m.get(ctx, m.endpoints.AuthlibInjector)
	if err != nil {
		return AgentRelease{}, &HopError{Hop: HopAgentRelease, Err: err}
	}
	if resp.status != http.StatusOK {
		return AgentRelease{}, &HopError{Hop: HopAgentRelease, Status: resp.status, Err: errors.New("release metadata unavailable")}
	}

	r := gjson.ParseBytes(resp.body)
	rel := AgentRelease{
		Version: r.Get("version").String(),
		URL:     r.Get("download_url").String(),
		SHA256:  strings.ToLower(r.Get("checksums.sha256").String()),
	}
	if rel.Version == "" || rel.URL == "" || rel.SHA256 == "" {
		return AgentRelease{}, &HopError{Hop: HopAgentRelease, Status: resp.status, Err: errors.New("release lacks version, download_url or sha256")}
	}
	return rel, nil
}

// renewYggdrasil validates the token of s and refreshes it when the server
// no longer accepts it. A rejected refresh wraps ErrInvalidGrant.
func (m *Manager) renewYggdrasil(ctx context.Context, s *Session) (*Session, error) {
	api := s.Server.APIURL
	resp, err := m.postJSON(ctx, api+"/authserver/validate", map[string]string{
		"accessToken": s.AccessToken,
		"clientToken": s.ClientToken,
	})
	if err != nil {
		return nil, &HopError{Hop: HopYggdrasilValidate, Err: err}
	}

	out := *s
	server := *s.Server
	out.Server = &server
	if resp.status == http.StatusNoContent {
		out.ValidatedAt = m.now()
		return &out, nil
	}
	if resp.status != http.StatusForbidden {
		return nil, &HopError{Hop: HopYggdrasilValidate, Status: resp.status, Err: yggdrasilError(resp.body)}
	}

	res, err := m.yggdrasilRefresh(ctx, api, s.AccessToken, s.ClientToken, nil)
	if err != nil {
		return nil, err
	}
	out.AccessToken = res.accessToken
	out.ClientToken = res.clientToken
	if res.selected != nil {
		out.Profile.Name = res.selected.Name
	}
	out.ValidatedAt = m.now()
	return &out, nil
}

func (m *Manager) yggdrasilAuthenticate(ctx context.Context, api string, creds YggdrasilCredentials, clientToken string) (yggdrasilAuth, error) {
	resp, err := m.postJSON(ctx, api+"/authserver/authenticate", map[string]any{
		"agent":       map[string]any{"name": "Minecraft", "version": 1},
		"username":    creds.Username,
		"password":    creds.Password,
		"clientToken": clientToken,
		"requestUser": true,
	})
	if err != nil {
		return yggdrasilAuth{}, &HopError{Hop: HopYggdrasilAuthenticate, Err: err}
	}
	switch resp.status {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return yggdrasilAuth{}, &HopError{
			Hop: HopYggdrasilAuthenticate, Status: resp.status,
			Err: fmt.Errorf("%w: %w", ErrInvalidCredentials, yggdrasilError(resp.body)),
		}
	default:
		return yggdrasilAuth{}, &HopError{Hop: HopYggdrasilAuthenticate, Status: resp.status, Err: yggdrasilError(resp.body)}
	}
	return parseYggdrasilAuth(HopYggdrasilAuthenticate, resp, clientToken)
}

// yggdrasilRefresh renews accessToken. A non-nil profile binds the new
// token to it.
func (m *Manager) yggdrasilRefresh(ctx context.Context, api, accessToken, clientToken string, profile *Profile) (yggdrasilAuth, error) {
	payload := map[string]any{
		"accessToken": accessToken,
		"clientToken": clientToken,
		"requestUser": true,
	}
	if profile != nil {
		payload["selectedProfile"] = map[string]string{"id": profile.UUID, "name": profile.Name}
	}

	resp, err := m.postJSON(ctx, api+"/authserver/refresh", payload)
	if err != nil {
		return yggdrasilAuth{}, &HopError{Hop: HopYggdrasilRefresh, Err: err}
	}
	switch resp.status {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusUnauthorized:
		return yggdrasilAuth{}, &HopError{
			Hop: HopYggdrasilRefresh, Status: resp.status,
			Err: fmt.Errorf("%w: %w", ErrInvalidGrant, yggdrasilError(resp.body)),
		}
	default:
		return yggdrasilAuth{}, &HopError{Hop: HopYggdrasilRefresh, Status: resp.status, Err: yggdrasilError(resp.body)}
	}
	return parseYggdrasilAuth(HopYggdrasilRefresh, resp, clientToken)
}

func parseYggdrasilAuth(hop Hop, resp *response, clientToken string) (yggdrasilAuth, error) {
	r := gjson.ParseBytes(resp.body)
	res := yggdrasilAuth{
		accessToken: r.Get("accessToken").String(),
		clientToken: r.Get("clientToken").String(),
	}
	if res.accessToken == "" {
		return yggdrasilAuth{}, &HopError{Hop: hop, Status: resp.status, Err: errors.New("response lacks an access token")}
	}
	if res.clientToken == "" {
		res.clientToken = clientToken
	}
	if sel := r.Get("selectedProfile"); sel.Exists() && sel.Get("id").String() != "" {
		res.selected = &Profile{UUID: sel.Get("id").String(), Name: sel.Get("name").String()}
	}
	for _, p := range r.Get("availableProfiles").Array() {
		if id := p.Get("id").String(); id != "" {
			res.available = append(res.available, Profile{UUID: id, Name: p.Get("name").String()})
		}
	}
	return res, nil
}

func pickProfile(ctx context.Context, res yggdrasilAuth, choose ProfileChooser) (Profile, error) {
	if res.selected != nil {
		return *res.selected, nil
	}
	switch len(res.available) {
	case 0:
		return Profile{}, ErrNoGameOwnership
	case 1:
		return res.available[0], nil
	}
	if choose == nil {
		return res.available[0], nil
	}
	i, err := choose(ctx, res.available)
	if err != nil {
		return Profile{}, fmt.Errorf("choosing profile: %w", err)
	}
	if i < 0 || i >= len(res.available) {
		return Profile{}, fmt.Errorf("choosing profile: index %d out of range", i)
	}
	return res.available[i], nil
}

// yggdrasilError extracts the server's error message.
func yggdrasilError(body []byte) error {
	r := gjson.ParseBytes(body)
	msg := r.Get("errorMessage").String()
	if msg == "" {
		msg = r.Get("error").String()
	}
	if msg == "" {
		msg = "request rejected"
	}
	return errors.New(msg)
}

func normalizeAPIURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("no server URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("server URL %q is not an http(s) address", raw)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

func resolveLocation(base, loc string) (string, error) {
	b, err := url.Parse(base + "/")
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	l, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", apiLocationHeader, err)
	}
	return strings.TrimSuffix(b.ResolveReference(l).String(), "/"), nil
}

func hostOf(api string) string {
	if u, err := url.Parse(api); err == nil {
		return u.Host
	}
	return api
}
