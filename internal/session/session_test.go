// ABOUTME: Tests for session token sources and unverified expiry inspection.
// ABOUTME: Covers env var precedence, token file re-reads, and JWT exp parsing.

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Current(t *testing.T) {
	src := Static{Token: Token{AccessToken: "abc", RefreshToken: "def"}}

	tok, ok := src.Current()
	require.True(t, ok)
	assert.Equal(t, "abc", tok.AccessToken)
	assert.Equal(t, "def", tok.RefreshToken)
}

func TestStatic_Empty(t *testing.T) {
	_, ok := Static{}.Current()
	assert.False(t, ok)
	assert.False(t, Authenticated(Static{}))
}

func TestFileSource_EnvWins(t *testing.T) {
	t.Setenv("VALET_TOKEN", "env-token")
	t.Setenv("VALET_REFRESH_TOKEN", "env-refresh")

	// The file exists but the env var takes precedence
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("file-token"), 0o600))

	tok, ok := FileSource{Path: path}.Current()
	require.True(t, ok)
	assert.Equal(t, "env-token", tok.AccessToken)
	assert.Equal(t, "env-refresh", tok.RefreshToken)
}

func TestFileSource_ReadsFile(t *testing.T) {
	t.Setenv("VALET_TOKEN", "")

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0o600))

	tok, ok := FileSource{Path: path}.Current()
	require.True(t, ok)
	assert.Equal(t, "file-token", tok.AccessToken, "token is trimmed")
}

func TestFileSource_RereadsOnEveryCall(t *testing.T) {
	t.Setenv("VALET_TOKEN", "")

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("old-token"), 0o600))

	src := FileSource{Path: path}
	tok, _ := src.Current()
	assert.Equal(t, "old-token", tok.AccessToken)

	// An external refresh rotates the file; no restart needed
	require.NoError(t, os.WriteFile(path, []byte("new-token"), 0o600))
	tok, _ = src.Current()
	assert.Equal(t, "new-token", tok.AccessToken)
}

func TestFileSource_MissingFile(t *testing.T) {
	t.Setenv("VALET_TOKEN", "")

	src := FileSource{Path: filepath.Join(t.TempDir(), "nope")}
	_, ok := src.Current()
	assert.False(t, ok)
	assert.False(t, Authenticated(src))
}

func TestFileSource_EmptyFile(t *testing.T) {
	t.Setenv("VALET_TOKEN", "")

	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o600))

	_, ok := FileSource{Path: path}.Current()
	assert.False(t, ok)
}

// signToken builds a real HS256 JWT with the given expiry for testing the
// unverified parse path.
func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user@example.com",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestExpired_PastExp(t *testing.T) {
	now := time.Now()
	tok := signToken(t, now.Add(-time.Hour))
	assert.True(t, Expired(tok, now))
}

func TestExpired_FutureExp(t *testing.T) {
	now := time.Now()
	tok := signToken(t, now.Add(time.Hour))
	assert.False(t, Expired(tok, now))
}

func TestExpired_NoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	assert.False(t, Expired(signed, time.Now()))
}

func TestExpired_NotAJWT(t *testing.T) {
	assert.False(t, Expired("opaque-session-token", time.Now()))
	assert.False(t, Expired("", time.Now()))
}
