// ABOUTME: Session token boundary: the core reads tokens, it never issues or refreshes them.
// ABOUTME: Sources supply the current bearer token pair from env, file, or a fixed value.

package session

import (
	"os"
	"path/filepath"
	"strings"
)

// Token is the bearer token pair issued by the external identity provider.
// The core treats both values as opaque; only AccessToken is ever sent.
type Token struct {
	AccessToken  string
	RefreshToken string
}

// Source supplies the current session token. Current returns false when no
// session exists; a returned token may still be stale, which the backend
// rejects (the core never refreshes).
type Source interface {
	Current() (Token, bool)
}

// Authenticated reports whether the source currently has a usable token.
func Authenticated(src Source) bool {
	tok, ok := src.Current()
	return ok && tok.AccessToken != ""
}

// Static is a Source that always returns the same token. Used by tests and
// by flows that already resolved a token.
type Static struct {
	Token Token
}

// Current implements Source.
func (s Static) Current() (Token, bool) {
	if s.Token.AccessToken == "" {
		return Token{}, false
	}
	return s.Token, true
}

// FileSource reads the access token from the VALET_TOKEN environment
// variable, falling back to a token file. The file is re-read on every
// call so an external refresh flow can rotate it without a restart.
type FileSource struct {
	// Path to the token file. Empty means the default
	// ($XDG_CONFIG_HOME|~/.config)/valet/token.
	Path string
}

// Current implements Source.
func (f FileSource) Current() (Token, bool) {
	if tok := os.Getenv("VALET_TOKEN"); tok != "" {
		return Token{AccessToken: tok, RefreshToken: os.Getenv("VALET_REFRESH_TOKEN")}, true
	}

	path := f.Path
	if path == "" {
		path = defaultTokenPath()
	}
	if path == "" {
		return Token{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Token{}, false
	}
	access := strings.TrimSpace(string(data))
	if access == "" {
		return Token{}, false
	}
	return Token{AccessToken: access}, true
}

// defaultTokenPath resolves ($XDG_CONFIG_HOME|~/.config)/valet/token.
func defaultTokenPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "valet", "token")
}
