// ABOUTME: Tests for the backend HTTP client: header injection, URL joining,
// ABOUTME: and the split between status errors and network failures.

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON_RoundTrip(t *testing.T) {
	var gotAuth, gotContentType, gotPath string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"answer": "hello back"})
	}))
	defer srv.Close()

	client := New(srv.URL)

	var reply struct {
		Answer string `json:"answer"`
	}
	err := client.PostJSON(context.Background(), "/api/email/chat", "tok-123",
		map[string]string{"message": "hello"}, &reply)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "/api/email/chat", gotPath)
	assert.Equal(t, map[string]string{"message": "hello"}, gotBody)
	assert.Equal(t, "hello back", reply.Answer)
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(map[string]string{"email": "user@example.com"})
	}))
	defer srv.Close()

	var out struct {
		Email string `json:"email"`
	}
	err := New(srv.URL).GetJSON(context.Background(), "/api/auth/user/data", "tok", &out)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", out.Email)
}

func TestClient_EmptyTokenOmitsHeader(t *testing.T) {
	var gotAuth string
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth, present = r.Header.Get("Authorization"), r.Header.Values("Authorization") != nil
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	err := New(srv.URL).GetJSON(context.Background(), "/health", "", nil)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.False(t, present)
}

func TestClient_TrailingSlashBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	err := New(srv.URL + "/").GetJSON(context.Background(), "/api/ping", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/api/ping", gotPath)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
	}))
	defer srv.Close()

	err := New(srv.URL).GetJSON(context.Background(), "/api/auth/user/data", "stale", nil)
	require.Error(t, err)

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusNotFound))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "token expired", se.Message())
}

func TestStatusError_Message_NonJSONBody(t *testing.T) {
	se := &StatusError{Code: 502, Body: []byte("<html>Bad Gateway</html>")}
	assert.Empty(t, se.Message())
	assert.Contains(t, se.Error(), "502")
}

func TestClient_NetworkFailureIsNotStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	err := New(srv.URL).GetJSON(context.Background(), "/api/ping", "", nil)
	require.Error(t, err)

	var se *StatusError
	assert.False(t, IsStatus(err, 0))
	assert.NotErrorAs(t, err, &se)
}

func TestClient_MalformedResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).GetJSON(context.Background(), "/api/ping", "", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing response")
}

func TestClient_NilOutDiscardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	err := New(srv.URL).PostJSON(context.Background(), "/api/email/update", "tok",
		map[string]string{"credential": "tok"}, nil)
	assert.NoError(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL).GetJSON(ctx, "/api/slow", "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
