// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"crypto/md5" //nolint:gosec // offline ids are derived, not secret
	"regexp"
	"time"

	"github.com/google/uuid"
)

const (
	// KindMicrosoft is a Microsoft account session.
	KindMicrosoft Kind = "microsoft"
	// KindOffline is a local session without a game token.
	KindOffline Kind = "offline"
	// KindYggdrasil is a session from a third-party Yggdrasil server, used
	// through the authlib-injector agent.
	KindYggdrasil Kind = "yggdrasil"
)

// offlineAccessToken is handed to the game for offline sessions, which
// accept any token.
const offlineAccessToken = "0"

// expirySkew treats sessions about to expire as expired.
const expirySkew = time.Minute

var playerNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,16}$`)

type (
	// Kind tags the account type of a session.
	Kind string

	// Session is a signed-in player. Values returned by Manager are copies.
	Session struct {
		AccountID    string    `toml:"account_id"`
		Kind         Kind      `toml:"kind"`
		AccessToken  string    `toml:"access_token"`
		RefreshToken string    `toml:"refresh_token"`
		ExpiresAt    time.Time `toml:"expires_at"`
		XUID         string    `toml:"xuid"`
		Profile      Profile   `toml:"profile"`

		// ClientToken, Server and ValidatedAt are set for Yggdrasil
		// sessions only.
		ClientToken string           `toml:"client_token,omitempty"`
		Server      *YggdrasilServer `toml:"server,omitempty"`
		ValidatedAt time.Time        `toml:"validated_at"`
	}

	// Profile is the player's public identity.
	Profile struct {
		Name string `toml:"name"`
		// UUID is in simple form, without dashes.
		UUID    string `toml:"uuid"`
		SkinURL string `toml:"skin_url"`
	}
)

// Expired reports whether the session must be refreshed before use.
// Offline sessions never expire.
func (s *Session) Expired(now time.Time) bool {
	switch s.Kind {
	case KindOffline:
		return false
	case KindYggdrasil:
		// the server publishes no expiry; tokens are revalidated instead
		return !now.Before(s.ValidatedAt.Add(yggdrasilRevalidate))
	default:
		return !now.Add(expirySkew).Before(s.ExpiresAt)
	}
}

// UserType is the value the game expects for ${user_type}.
func (s *Session) UserType() string {
	switch s.Kind {
	case KindOffline:
		return "offline"
	case KindYggdrasil:
		return "mojang"
	default:
		return "msa"
	}
}

// valid reports whether a loaded session carries the fields its kind needs.
func (s *Session) valid() bool {
	switch s.Kind {
	case KindOffline:
		return s.Profile.Name != "" && s.Profile.UUID != ""
	case KindMicrosoft:
		return s.AccessToken != "" && s.RefreshToken != "" && s.Profile.UUID != ""
	case KindYggdrasil:
		return s.AccessToken != "" && s.ClientToken != "" && s.Profile.UUID != "" &&
			s.Server != nil && s.Server.APIURL != ""
	default:
		return false
	}
}

// OfflineUUID derives the player id of an offline name: the md5 of the name
// stamped as a version 3 UUID.
func OfflineUUID(name string) uuid.UUID {
	sum := md5.Sum([]byte(name)) //nolint:gosec // offline ids are derived, not secret
	var id uuid.UUID
	copy(id[:], sum[:])
	id[6] = (id[6] & 0x0f) | 0x30
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// simpleUUID renders id without dashes.
func simpleUUID(id uuid.UUID) string {
	s := id.String()
	return s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:]
}

// newOfflineSession builds the session of an offline player.
func newOfflineSession(name string) (*Session, error) {
	if !playerNamePattern.MatchString(name) {
		return nil, ErrInvalidName
	}
	id := simpleUUID(OfflineUUID(name))
	return &Session{
		AccountID:   id,
		Kind:        KindOffline,
		AccessToken: offlineAccessToken,
		Profile:     Profile{Name: name, UUID: id},
	}, nil
}
