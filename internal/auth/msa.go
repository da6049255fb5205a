// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	msaScope        = "XboxLive.signin offline_access"
	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

	// defaultPollInterval applies when the device-code response has no
	// interval, in units of Manager.intervalUnit (RFC 8628 section 3.2).
	defaultPollInterval = 5
)

type (
	// DeviceCode is what the player needs to approve a sign-in.
	DeviceCode struct {
		UserCode        string
		VerificationURI string
		ExpiresIn       time.Duration
		Interval        time.Duration
		Message         string

		deviceCode string
	}

	// Prompt shows a DeviceCode to the player. An error aborts the sign-in.
	Prompt func(ctx context.Context, code DeviceCode) error

	msaTokens struct {
		access  string
		refresh string
	}
)

func (m *Manager) requestDeviceCode(ctx context.Context) (DeviceCode, error) {
	resp, err := m.postForm(ctx, m.endpoints.DeviceCode, url.Values{
		"client_id": {m.clientID},
		"scope":     {msaScope},
	})
	if err != nil {
		return DeviceCode{}, &HopError{Hop: HopDeviceCode, Err: err}
	}
	if resp.status != http.StatusOK {
		return DeviceCode{}, &HopError{Hop: HopDeviceCode, Status: resp.status, Err: oauthError(resp.body)}
	}

	r := gjson.ParseBytes(resp.body)
	dc := DeviceCode{
		UserCode:        r.Get("user_code").String(),
		VerificationURI: r.Get("verification_uri").String(),
		ExpiresIn:       time.Duration(r.Get("expires_in").Int()) * time.Second,
		Interval:        time.Duration(r.Get("interval").Int()) * m.intervalUnit,
		Message:         r.Get("message").String(),
		deviceCode:      r.Get("device_code").String(),
	}
	if dc.deviceCode == "" || dc.UserCode == "" {
		return DeviceCode{}, &HopError{Hop: HopDeviceCode, Status: resp.status, Err: errors.New("response lacks a device code")}
	}
	return dc, nil
}

// pollToken polls the token endpoint until the device code is approved,
// declined or expired. The limiter paces requests at the server interval;
// slow_down widens it.
func (m *Manager) pollToken(ctx context.Context, dc DeviceCode) (msaTokens, error) {
	pollCtx := ctx
	var codeExpiry time.Time
	if dc.ExpiresIn > 0 {
		codeExpiry = time.Now().Add(dc.ExpiresIn)
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithDeadline(ctx, codeExpiry)
		defer cancel()
	}

	interval := dc.Interval
	if interval <= 0 {
		interval = defaultPollInterval * m.intervalUnit
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// the first request waits a full interval too
	limiter.Allow()

	form := url.Values{
		"grant_type":  {deviceCodeGrant},
		"client_id":   {m.clientID},
		"device_code": {dc.deviceCode},
	}

	for {
		if err := limiter.Wait(pollCtx); err != nil {
			return msaTokens{}, pollStopped(ctx, codeExpiry)
		}

		resp, err := m.postForm(pollCtx, m.endpoints.Token, form)
		if err != nil {
			if pollCtx.Err() != nil {
				return msaTokens{}, pollStopped(ctx, codeExpiry)
			}
			return msaTokens{}, &HopError{Hop: HopToken, Err: err}
		}
		if resp.status == http.StatusOK {
			return parseTokens(resp)
		}

		switch code := gjson.GetBytes(resp.body, "error").String(); code {
		case "authorization_pending":
			continue
		case "slow_down":
			interval += m.slowDown
			limiter.SetLimit(rate.Every(interval))
			m.logger.Debug("device code polling slowed", "interval", interval)
		case "expired_token":
			return msaTokens{}, ErrExpiredDeviceCode
		case "authorization_declined", "access_denied":
			return msaTokens{}, ErrUserDeclined
		case "invalid_grant", "bad_verification_code":
			return msaTokens{}, &HopError{Hop: HopToken, Status: resp.status, Err: ErrInvalidGrant}
		default:
			return msaTokens{}, &HopError{Hop: HopToken, Status: resp.status, Err: oauthError(resp.body)}
		}
	}
}

// pollStopped tells the caller's own cancellation or deadline apart from the
// device code running out.
func pollStopped(ctx context.Context, codeExpiry time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && (codeExpiry.IsZero() || dl.Before(codeExpiry)) {
		return context.DeadlineExceeded
	}
	return ErrExpiredDeviceCode
}

// refreshTokens trades a refresh token for a new token pair.
func (m *Manager) refreshTokens(ctx context.Context, refreshToken string) (msaTokens, error) {
	resp, err := m.postForm(ctx, m.endpoints.Token, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {m.clientID},
		"refresh_token": {refreshToken},
		"scope":         {msaScope},
	})
	if err != nil {
		return msaTokens{}, &HopError{Hop: HopToken, Err: err}
	}
	if resp.status != http.StatusOK {
		if gjson.GetBytes(resp.body, "error").String() == "invalid_grant" {
			return msaTokens{}, &HopError{Hop: HopToken, Status: resp.status, Err: ErrInvalidGrant}
		}
		return msaTokens{}, &HopError{Hop: HopToken, Status: resp.status, Err: oauthError(resp.body)}
	}
	t, err := parseTokens(resp)
	if err != nil {
		return msaTokens{}, err
	}
	// some grants omit a rotated refresh token
	if t.refresh == "" {
		t.refresh = refreshToken
	}
	return t, nil
}

func parseTokens(resp *response) (msaTokens, error) {
	r := gjson.ParseBytes(resp.body)
	t := msaTokens{access: r.Get("access_token").String(), refresh: r.Get("refresh_token").String()}
	if t.access == "" {
		return msaTokens{}, &HopError{Hop: HopToken, Status: resp.status, Err: errors.New("response lacks an access token")}
	}
	return t, nil
}

// oauthError summarizes an OAuth error body.
func oauthError(body []byte) error {
	r := gjson.ParseBytes(body)
	code := r.Get("error").String()
	if code == "" {
		return errors.New("unexpected response")
	}
	if desc := r.Get("error_description").String(); desc != "" {
		return fmt.Errorf("%s: %s", code, desc)
	}
	return errors.New(code)
}
