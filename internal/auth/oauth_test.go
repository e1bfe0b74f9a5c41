package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token endpoint and the two API calls Exchange makes.
func fakeGitHub(t *testing.T, user map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testProvider(srv *httptest.Server) *GitHubProvider {
	return newGitHubProvider("client", "secret", "http://localhost/cb", oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}, srv.URL)
}

func TestGitHubExchange_PublicEmail(t *testing.T) {
	srv := fakeGitHub(t, map[string]any{"id": 99, "login": "octocat", "name": "Mona Lisa Octocat", "email": "mona@github.com"}, nil)

	u, err := testProvider(srv).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, int64(99), u.ID)
	assert.Equal(t, "mona@github.com", u.Email)
	first, last := u.FirstLast()
	assert.Equal(t, "Mona", first)
	assert.Equal(t, "Lisa Octocat", last)
}

func TestGitHubExchange_HiddenEmailUsesPrimaryVerified(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 5, "login": "ghost"},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "main@example.com", "primary": true, "verified": true},
		},
	)

	u, err := testProvider(srv).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, "main@example.com", u.Email)
	first, last := u.FirstLast()
	assert.Equal(t, "ghost", first)
	assert.Equal(t, "ghost", last)
}

func TestGitHubExchange_NoUsableEmail(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 5, "login": "ghost"},
		[]map[string]any{{"email": "x@example.com", "primary": true, "verified": false}},
	)

	_, err := testProvider(srv).Exchange(context.Background(), "code")
	assert.Error(t, err)
}

func TestGitHubAuthURL_CarriesState(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost:8080/api/auth/github/callback")

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
}
