// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// XSTS XErr codes with a known meaning.
const (
	xerrNoXboxAccount = 2148916233
	xerrRegionBlocked = 2148916235
	xerrChildAccount  = 2148916238
)

// exchange runs the Xbox Live chain for an MSA access token and builds the
// resulting session. Nothing is stored here.
func (m *Manager) exchange(ctx context.Context, tokens msaTokens) (*Session, error) {
	xbl, uhs, err := m.xboxLive(ctx, tokens.access)
	if err != nil {
		return nil, err
	}
	xsts, xuid, err := m.authorizeXSTS(ctx, xbl)
	if err != nil {
		return nil, err
	}
	game, expiresIn, err := m.loginWithXbox(ctx, uhs, xsts)
	if err != nil {
		return nil, err
	}
	profile, err := m.fetchProfile(ctx, game)
	if err != nil {
		return nil, err
	}

	return &Session{
		AccountID:    profile.UUID,
		Kind:         KindMicrosoft,
		AccessToken:  game,
		RefreshToken: tokens.refresh,
		ExpiresAt:    m.now().Add(expiresIn),
		XUID:         xuid,
		Profile:      profile,
	}, nil
}

func (m *Manager) xboxLive(ctx context.Context, msaToken string) (token, uhs string, err error) {
	resp, err := m.postJSON(ctx, m.endpoints.XboxLive, map[string]any{
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msaToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	})
	if err != nil {
		return "", "", &HopError{Hop: HopXboxLive, Err: err}
	}
	if resp.status != http.StatusOK {
		return "", "", &HopError{Hop: HopXboxLive, Status: resp.status, Err: errors.New("authentication rejected")}
	}

	r := gjson.ParseBytes(resp.body)
	token, uhs = r.Get("Token").String(), r.Get("DisplayClaims.xui.0.uhs").String()
	if token == "" || uhs == "" {
		return "", "", &HopError{Hop: HopXboxLive, Status: resp.status, Err: errors.New("response lacks token or user hash")}
	}
	return token, uhs, nil
}

// authorizeXSTS returns the XSTS token and, when the response carries one,
// the player's XUID.
func (m *Manager) authorizeXSTS(ctx context.Context, xblToken string) (token, xuid string, err error) {
	resp, err := m.postJSON(ctx, m.endpoints.XSTS, map[string]any{
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xblToken},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	})
	if err != nil {
		return "", "", &HopError{Hop: HopXSTS, Err: err}
	}
	if resp.status != http.StatusOK {
		return "", "", &HopError{Hop: HopXSTS, Status: resp.status, Err: xstsError(resp.body)}
	}
	r := gjson.ParseBytes(resp.body)
	token = r.Get("Token").String()
	if token == "" {
		return "", "", &HopError{Hop: HopXSTS, Status: resp.status, Err: errors.New("response lacks a token")}
	}
	return token, r.Get("DisplayClaims.xui.0.xid").String(), nil
}

func xstsError(body []byte) error {
	switch code := gjson.GetBytes(body, "XErr").Uint(); code {
	case xerrNoXboxAccount:
		return errors.New("the account has no Xbox profile")
	case xerrRegionBlocked:
		return errors.New("Xbox Live is not available in the account's region")
	case xerrChildAccount:
		return errors.New("the account is a child account and must be added to a family")
	case 0:
		return errors.New("authorization rejected")
	default:
		return fmt.Errorf("authorization rejected with XErr %d", code)
	}
}

func (m *Manager) loginWithXbox(ctx context.Context, uhs, xsts string) (string, time.Duration, error) {
	resp, err := m.postJSON(ctx, m.endpoints.GameLogin, map[string]string{
		"identityToken": fmt.Sprintf("XBL3.0 x=%s;%s", uhs, xsts),
	})
	if err != nil {
		return "", 0, &HopError{Hop: HopGameServices, Err: err}
	}
	if resp.status != http.StatusOK {
		return "", 0, &HopError{Hop: HopGameServices, Status: resp.status, Err: errors.New("login rejected")}
	}
	r := gjson.ParseBytes(resp.body)
	token := r.Get("access_token").String()
	if token == "" {
		return "", 0, &HopError{Hop: HopGameServices, Status: resp.status, Err: errors.New("response lacks an access token")}
	}
	return token, time.Duration(r.Get("expires_in").Int()) * time.Second, nil
}

func (m *Manager) fetchProfile(ctx context.Context, gameToken string) (Profile, error) {
	resp, err := m.getBearer(ctx, m.endpoints.Profile, gameToken)
	if err != nil {
		return Profile{}, &HopError{Hop: HopProfile, Err: err}
	}
	if resp.status == http.StatusNotFound {
		return Profile{}, &HopError{Hop: HopProfile, Status: resp.status, Err: ErrNoGameOwnership}
	}
	if resp.status != http.StatusOK {
		return Profile{}, &HopError{Hop: HopProfile, Status: resp.status, Err: errors.New("profile request rejected")}
	}

	r := gjson.ParseBytes(resp.body)
	if r.Get("error").Exists() {
		return Profile{}, &HopError{Hop: HopProfile, Status: resp.status, Err: ErrNoGameOwnership}
	}
	p := Profile{Name: r.Get("name").String(), UUID: r.Get("id").String()}
	if p.Name == "" || p.UUID == "" {
		return Profile{}, &HopError{Hop: HopProfile, Status: resp.status, Err: errors.New("response lacks id or name")}
	}
	for _, skin := range r.Get("skins").Array() {
		if skin.Get("state").String() == "ACTIVE" {
			p.SkinURL = skin.Get("url").String()
			break
		}
	}
	return p, nil
}
