// Package profile keeps connection profiles (backend URL, API key, login)
// in a password-protected file.
package profile

import (
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("profile not found")
	ErrDuplicate   = errors.New("profile already exists")
	ErrDecrypt     = errors.New("failed to decrypt profile vault (wrong password?)")
	ErrNotLoggedIn = errors.New("not logged in (run `sfdash login`)")
)

// Profile is one SmartFactory deployment plus the account used on it.
type Profile struct {
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// LoggedIn reports whether a session user is recorded.
func (p Profile) LoggedIn() bool { return p.UserID != "" }

// Summary is a Profile without secrets.
type Summary struct {
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Username string `json:"username,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	LoggedIn bool   `json:"logged_in"`
}

// Summarize masks the API key and drops the password.
func (p Profile) Summarize() Summary {
	return Summary{
		Name:     p.Name,
		BaseURL:  p.BaseURL,
		Username: p.Username,
		APIKey:   mask(p.APIKey),
		LoggedIn: p.LoggedIn(),
	}
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

// Provider stores profiles.
type Provider interface {
	List() ([]Summary, error)
	Get(name string) (Profile, error)
	Add(p Profile) error
	Update(name string, p Profile) error
	Remove(name string) error
	SetSession(name, userID string) error
}
