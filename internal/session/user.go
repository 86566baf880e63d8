package session

import (
	"net/url"
	"strings"
)

const (
	// GuestDisplayName is shown while no account is bound.
	GuestDisplayName = "Guest Player"
	// GuestAvatarURL is the identicon used for guests.
	GuestAvatarURL = identiconBaseURL + "?seed=guest"

	displayNamePrefix = "Player"
	identiconBaseURL  = "https://api.dicebear.com/7.x/identicon/svg"
)

// User is the wallet identity known to the app.
type User struct {
	Address     string `json:"address,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	IsGuest     bool   `json:"isGuest"`
}

func guestUser() User {
	return User{IsGuest: true}
}

// IsAccount reports whether s looks like a wallet account: a 0x-prefixed hex
// string with at least four hex digits. Derived display names of such
// accounts can never contain the account itself, since they carry no "x".
func IsAccount(s string) bool {
	if len(s) < 6 || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	for _, r := range s[2:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// DisplayNameFor derives the pseudonym of an account: a fixed prefix plus the
// last four characters of the address.
func DisplayNameFor(address string) string {
	if !IsAccount(address) {
		return GuestDisplayName
	}
	return displayNamePrefix + address[len(address)-4:]
}

// AvatarFor derives the identicon URL seeded with the full address.
func AvatarFor(address string) string {
	if address == "" {
		return GuestAvatarURL
	}
	return identiconBaseURL + "?seed=" + url.QueryEscape(address)
}

func displayNameOf(u User) string {
	if u.DisplayName != "" && !revealsAddress(u.DisplayName, u.Address) {
		return u.DisplayName
	}
	if u.Address != "" {
		return DisplayNameFor(u.Address)
	}
	return GuestDisplayName
}

func avatarOf(u User) string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	if u.Address != "" {
		return AvatarFor(u.Address)
	}
	return GuestAvatarURL
}

func revealsAddress(name, address string) bool {
	if address == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(address))
}

// boundUser builds the record for a freshly bound account. Explicit profile
// values are kept only when they do not reveal the address.
func boundUser(address, username, avatar string) User {
	u := User{Address: address, IsGuest: false}
	if username == "" || revealsAddress(username, address) {
		username = DisplayNameFor(address)
	}
	if avatar == "" {
		avatar = AvatarFor(address)
	}
	u.DisplayName = username
	u.AvatarURL = avatar
	return u
}
