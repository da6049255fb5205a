// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blocklaunch/blocklaunch/internal/testutil"
	"github.com/blocklaunch/blocklaunch/pkg/fspath"
)

const (
	testClientID = "00000000-test-client"
	playerUUID   = "069a79f444e94726a5befca90e38aaf5"
)

// fakeIdentity serves the whole sign-in chain.
type fakeIdentity struct {
	mu            sync.Mutex
	pollErrors    []string
	alwaysPending bool
	refreshError  string
	refreshStatus int
	xstsXErr      int64
	profileStatus int
	logins        int

	polls       atomic.Int32
	refreshes   atomic.Int32
	refreshGate chan struct{}
	refreshSeen chan struct{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeIdentity) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/consumers/oauth2/v2.0/devicecode", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("client_id") != testClientID || r.FormValue("scope") != msaScope {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"device_code":      "device-123",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://microsoft.com/devicelogin",
			"expires_in":       900,
			"interval":         1,
			"message":          "To sign in, use a web browser.",
		})
	})

	mux.HandleFunc("/consumers/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		switch r.FormValue("grant_type") {
		case deviceCodeGrant:
			f.polls.Add(1)
			if r.FormValue("device_code") != "device-123" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_verification_code"})
				return
			}
			f.mu.Lock()
			code := ""
			switch {
			case f.alwaysPending:
				code = "authorization_pending"
			case len(f.pollErrors) > 0:
				code, f.pollErrors = f.pollErrors[0], f.pollErrors[1:]
			}
			f.mu.Unlock()
			if code != "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "msa-access", "refresh_token": "msa-refresh"})

		case "refresh_token":
			f.refreshes.Add(1)
			if f.refreshSeen != nil {
				select {
				case f.refreshSeen <- struct{}{}:
				default:
				}
			}
			if f.refreshGate != nil {
				<-f.refreshGate
			}
			if f.refreshError != "" {
				writeJSON(w, f.refreshStatus, map[string]string{"error": f.refreshError})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "msa-access-2", "refresh_token": "msa-refresh-2"})

		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		}
	})

	mux.HandleFunc("/user/authenticate", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Properties struct{ RpsTicket string }
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Properties.RpsTicket != "d=msa-access" && req.Properties.RpsTicket != "d=msa-access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"Token":         "xbl-token",
			"DisplayClaims": map[string]any{"xui": []map[string]string{{"uhs": "userhash"}}},
		})
	})

	mux.HandleFunc("/xsts/authorize", func(w http.ResponseWriter, _ *http.Request) {
		if f.xstsXErr != 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"XErr": f.xstsXErr})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"Token":         "xsts-token",
			"DisplayClaims": map[string]any{"xui": []map[string]string{{"uhs": "userhash", "xid": "2535400000000000"}}},
		})
	})

	mux.HandleFunc("/authentication/login_with_xbox", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IdentityToken string `json:"identityToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.IdentityToken != "XBL3.0 x=userhash;xsts-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.logins++
		n := f.logins
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"access_token": fmt.Sprintf("game-%d", n), "expires_in": 86400})
	})

	mux.HandleFunc("/minecraft/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.profileStatus == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "NOT_FOUND", "path": "/minecraft/profile"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":   playerUUID,
			"name": "Notch",
			"skins": []map[string]string{
				{"state": "INACTIVE", "url": "https://textures.test/old"},
				{"state": "ACTIVE", "url": "https://textures.test/skin"},
			},
		})
	})
	return mux
}

type authEnv struct {
	identity *fakeIdentity
	store    FileStore
	clock    *testutil.FakeClock
	base     string
}

func newAuthEnv(t *testing.T, identity *fakeIdentity) *authEnv {
	t.Helper()
	srv := httptest.NewServer(identity.handler())
	t.Cleanup(srv.Close)
	return &authEnv{
		identity: identity,
		store:    FileStore{Path: filepath.Join(t.TempDir(), "sessions.toml")},
		clock:    testutil.NewFakeClock(time.Time{}),
		base:     srv.URL,
	}
}

func (e *authEnv) manager() *Manager {
	m := NewManager(e.store,
		WithEndpoints(EndpointsAt(e.base)),
		WithClientID(testClientID),
		WithClock(e.clock.Now),
	)
	m.intervalUnit = time.Millisecond
	m.slowDown = time.Millisecond
	return m
}

// seedExpired stores a Microsoft session that expired an hour ago.
func (e *authEnv) seedExpired(t *testing.T) {
	t.Helper()
	err := e.store.Save(&Session{
		AccountID:    playerUUID,
		Kind:         KindMicrosoft,
		AccessToken:  "stale-game-token",
		RefreshToken: "msa-refresh",
		ExpiresAt:    e.clock.Now().Add(-time.Hour),
		Profile:      Profile{Name: "Notch", UUID: playerUUID},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAuthenticate_DeviceCodeFlow(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{pollErrors: []string{"authorization_pending", "slow_down", "authorization_pending"}})
	m := env.manager()

	var shown DeviceCode
	s, err := m.Authenticate(context.Background(), func(_ context.Context, dc DeviceCode) error {
		shown = dc
		if got := m.State(); got != StateDeviceCodePending {
			t.Errorf("state while prompting = %s", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if shown.UserCode != "ABCD-EFGH" || shown.VerificationURI != "https://microsoft.com/devicelogin" || shown.ExpiresIn != 15*time.Minute {
		t.Errorf("device code = %+v", shown)
	}
	if got := env.identity.polls.Load(); got != 4 {
		t.Errorf("token polls = %d, want 4", got)
	}

	want := Session{
		AccountID:    playerUUID,
		Kind:         KindMicrosoft,
		AccessToken:  "game-1",
		RefreshToken: "msa-refresh",
		ExpiresAt:    env.clock.Now().Add(24 * time.Hour),
		XUID:         "2535400000000000",
		Profile:      Profile{Name: "Notch", UUID: playerUUID, SkinURL: "https://textures.test/skin"},
	}
	if s != want {
		t.Errorf("session = %+v\nwant %+v", s, want)
	}
	if m.State() != StateAuthenticated {
		t.Errorf("state = %s, want authenticated", m.State())
	}

	// a fresh manager picks the stored session up without network traffic
	reloaded, err := env.manager().Session(context.Background())
	if err != nil {
		t.Fatalf("Session after reload: %v", err)
	}
	if !reloaded.ExpiresAt.Equal(want.ExpiresAt) || reloaded.AccessToken != want.AccessToken {
		t.Errorf("reloaded session = %+v", reloaded)
	}
}

func TestAuthenticate_PollingOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want error
	}{
		{"expired_token", ErrExpiredDeviceCode},
		{"authorization_declined", ErrUserDeclined},
		{"invalid_grant", ErrInvalidGrant},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			env := newAuthEnv(t, &fakeIdentity{pollErrors: []string{"authorization_pending", tt.code}})
			m := env.manager()

			_, err := m.Authenticate(context.Background(), nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Authenticate error = %v, want %v", err, tt.want)
			}
			if m.State() != StateUnauthenticated {
				t.Errorf("state = %s, want unauthenticated", m.State())
			}
			if fspath.Exists(env.store.Path) {
				t.Error("a failed sign-in stored a session")
			}
		})
	}
}

func TestAuthenticate_HopFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		identity *fakeIdentity
		hop      Hop
		status   int
		sentinel error
	}{
		{"no xbox account", &fakeIdentity{xstsXErr: xerrNoXboxAccount}, HopXSTS, http.StatusUnauthorized, nil},
		{"no game ownership", &fakeIdentity{profileStatus: http.StatusNotFound}, HopProfile, http.StatusNotFound, ErrNoGameOwnership},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newAuthEnv(t, tt.identity)
			m := env.manager()

			_, err := m.Authenticate(context.Background(), nil)
			var he *HopError
			if !errors.As(err, &he) {
				t.Fatalf("Authenticate error = %v, want *HopError", err)
			}
			if he.Hop != tt.hop || he.Status != tt.status {
				t.Errorf("HopError = %s/%d, want %s/%d", he.Hop, he.Status, tt.hop, tt.status)
			}
			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Errorf("error = %v, want %v", err, tt.sentinel)
			}
			if _, err := m.Session(context.Background()); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Session after failed sign-in = %v, want ErrUnauthenticated", err)
			}
		})
	}
}

func TestAuthenticate_DeviceCodeTimesOut(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{alwaysPending: true})
	m := env.manager()
	m.intervalUnit = 10 * time.Millisecond

	// the server hands out a 900 s code; the caller's deadline is shorter
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := m.Authenticate(ctx, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Authenticate error = %v, want context.DeadlineExceeded", err)
	}
}

func TestPollToken_CodeExpiry(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{alwaysPending: true})
	m := env.manager()

	dc := DeviceCode{UserCode: "X", ExpiresIn: 100 * time.Millisecond, Interval: 10 * time.Millisecond, deviceCode: "device-123"}
	_, err := m.pollToken(context.Background(), dc)
	if !errors.Is(err, ErrExpiredDeviceCode) {
		t.Fatalf("pollToken error = %v, want ErrExpiredDeviceCode", err)
	}
	if env.identity.polls.Load() == 0 {
		t.Error("token endpoint was never polled")
	}
}

func TestPollToken_MissingIntervalUsesDefault(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{alwaysPending: true})
	m := env.manager()
	m.intervalUnit = 20 * time.Millisecond

	// 5 units of 20ms leave room for two polls before the code expires
	dc := DeviceCode{UserCode: "X", ExpiresIn: 250 * time.Millisecond, deviceCode: "device-123"}
	_, err := m.pollToken(context.Background(), dc)
	if !errors.Is(err, ErrExpiredDeviceCode) {
		t.Fatalf("pollToken error = %v, want ErrExpiredDeviceCode", err)
	}
	if n := env.identity.polls.Load(); n == 0 || n > 3 {
		t.Errorf("polls = %d, want 1 to 3 at the default interval", n)
	}
}

func TestAuthenticate_PromptCancels(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{})
	m := env.manager()

	errClosed := errors.New("window closed")
	_, err := m.Authenticate(context.Background(), func(context.Context, DeviceCode) error { return errClosed })
	if !errors.Is(err, errClosed) {
		t.Fatalf("Authenticate error = %v, want the prompt error", err)
	}
	if env.identity.polls.Load() != 0 {
		t.Error("polled after the prompt failed")
	}
}

func TestAuthenticate_RequiresClientID(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{})
	m := NewManager(env.store, WithEndpoints(EndpointsAt(env.base)))
	if _, err := m.Authenticate(context.Background(), nil); !errors.Is(err, ErrNoClientID) {
		t.Errorf("Authenticate error = %v, want ErrNoClientID", err)
	}
}

func TestSession_ConcurrentCallersShareOneRefresh(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{refreshGate: make(chan struct{}), refreshSeen: make(chan struct{}, 1)}
	env := newAuthEnv(t, identity)
	env.seedExpired(t)
	m := env.manager()
	if m.State() != StateExpired {
		t.Fatalf("state = %s, want expired", m.State())
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Session, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = m.Session(context.Background())
		}(i)
	}

	<-identity.refreshSeen
	// let the remaining callers queue behind the in-flight refresh
	time.Sleep(50 * time.Millisecond)
	close(identity.refreshGate)
	wg.Wait()

	if got := identity.refreshes.Load(); got != 1 {
		t.Errorf("refresh requests = %d, want 1", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].AccessToken != "game-1" || results[i].RefreshToken != "msa-refresh-2" {
			t.Errorf("caller %d got %+v", i, results[i])
		}
	}
	if m.State() != StateAuthenticated {
		t.Errorf("state = %s, want authenticated", m.State())
	}
}

func TestSession_CancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	t.Parallel()

	identity := &fakeIdentity{refreshGate: make(chan struct{}), refreshSeen: make(chan struct{}, 1)}
	env := newAuthEnv(t, identity)
	env.seedExpired(t)
	m := env.manager()

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := m.Session(firstCtx)
		firstErr <- err
	}()
	<-identity.refreshSeen

	type result struct {
		s   Session
		err error
	}
	second := make(chan result, 1)
	go func() {
		s, err := m.Session(context.Background())
		second <- result{s, err}
	}()
	// let the second caller join the in-flight refresh
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller error = %v, want context.Canceled", err)
	}

	close(identity.refreshGate)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller: %v", got.err)
	}
	if got.s.AccessToken != "game-1" {
		t.Errorf("second caller token = %q, want game-1", got.s.AccessToken)
	}
	if n := identity.refreshes.Load(); n != 1 {
		t.Errorf("refresh requests = %d, want 1", n)
	}
	if m.State() != StateAuthenticated {
		t.Errorf("state = %s, want authenticated", m.State())
	}
}

func TestSession_RejectedRefreshSignsOut(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{refreshError: "invalid_grant", refreshStatus: http.StatusBadRequest})
	env.seedExpired(t)
	m := env.manager()

	_, err := m.Session(context.Background())
	if !errors.Is(err, ErrRefreshFailed) || !errors.Is(err, ErrInvalidGrant) {
		t.Fatalf("Session error = %v, want ErrRefreshFailed wrapping ErrInvalidGrant", err)
	}
	if m.State() != StateUnauthenticated {
		t.Errorf("state = %s, want unauthenticated", m.State())
	}
	if fspath.Exists(env.store.Path) {
		t.Error("rejected session is still stored")
	}
	if _, err := m.Session(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("second Session error = %v, want ErrUnauthenticated", err)
	}
}

func TestSession_TransientRefreshFailureKeepsSession(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{refreshError: "temporarily_unavailable", refreshStatus: http.StatusServiceUnavailable})
	env.seedExpired(t)
	m := env.manager()

	_, err := m.Session(context.Background())
	var he *HopError
	if !errors.As(err, &he) || he.Hop != HopToken || errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Session error = %v, want a token HopError", err)
	}
	if m.State() != StateExpired {
		t.Errorf("state = %s, want expired", m.State())
	}
	if !fspath.Exists(env.store.Path) {
		t.Error("session was discarded after a transient failure")
	}
}

func TestSession_ExpiresWithClock(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{})
	m := env.manager()
	if _, err := m.Authenticate(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	env.clock.Advance(23 * time.Hour)
	if _, err := m.Session(context.Background()); err != nil || env.identity.refreshes.Load() != 0 {
		t.Fatalf("Session before expiry: err=%v refreshes=%d", err, env.identity.refreshes.Load())
	}

	env.clock.Advance(time.Hour)
	s, err := m.Session(context.Background())
	if err != nil {
		t.Fatalf("Session after expiry: %v", err)
	}
	if env.identity.refreshes.Load() != 1 || s.AccessToken != "game-2" {
		t.Errorf("refreshes = %d, token = %s", env.identity.refreshes.Load(), s.AccessToken)
	}
}

func TestNewManager_CorruptStore(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{})
	testutil.MustWriteFile(t, env.store.Path, []byte("version = [[[ not toml"))

	m := env.manager()
	if m.State() != StateUnauthenticated {
		t.Errorf("state = %s, want unauthenticated", m.State())
	}
	if _, err := m.Session(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Session error = %v, want ErrUnauthenticated", err)
	}
}

func TestLoginOffline(t *testing.T) {
	t.Parallel()

	env := newAuthEnv(t, &fakeIdentity{})
	m := env.manager()

	s, err := m.LoginOffline("Steve")
	if err != nil {
		t.Fatalf("LoginOffline: %v", err)
	}
	if s.Profile.UUID != "81b8a1b77068306e9c8190825253066f" || s.Kind != KindOffline || s.UserType() != "offline" {
		t.Errorf("session = %+v", s)
	}

	// offline sessions never expire
	env.clock.Advance(365 * 24 * time.Hour)
	if _, err := m.Session(context.Background()); err != nil {
		t.Errorf("Session: %v", err)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := m.Session(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Session after logout = %v, want ErrUnauthenticated", err)
	}

	for _, bad := range []string{"", "has space", "seventeen_chars__", "émile"} {
		if _, err := m.LoginOffline(bad); !errors.Is(err, ErrInvalidName) {
			t.Errorf("LoginOffline(%q) error = %v, want ErrInvalidName", bad, err)
		}
	}
}

func TestOfflineUUID(t *testing.T) {
	t.Parallel()

	id := OfflineUUID("Steve")
	if id.String() != "81b8a1b7-7068-306e-9c81-90825253066f" {
		t.Errorf("OfflineUUID = %s", id)
	}
	if id.Version() != 3 {
		t.Errorf("version = %d, want 3", id.Version())
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateRefreshFailed.String() != "refresh-failed" || State(99).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
