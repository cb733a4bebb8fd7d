package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhive/jobhive/social"
	"github.com/jobhive/jobhive/social/providers/google"
)

func TestAuthCodeURL(t *testing.T) {
	provider := google.New(google.Config{
		ClientID:    "client-123",
		CallbackURL: "https://jobhive.example.com/api/v1/auth/google/callback",
	})

	raw := provider.AuthCodeURL("state-abc")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "state-abc", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "https://jobhive.example.com/api/v1/auth/google/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "code-xyz", r.FormValue("code"))
		assert.Equal(t, "client-123", r.FormValue("client_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-123",
			"token_type": "Bearer",
			"expires_in": 3600,
			"refresh_token": "rt-456",
			"id_token": "idt-789"
		}`))
	}))
	defer srv.Close()

	provider := google.New(google.Config{
		ClientID:     "client-123",
		ClientSecret: "secret",
		CallbackURL:  "https://jobhive.example.com/callback",
		TokenURL:     srv.URL,
	})

	token, err := provider.Exchange(ctx, "code-xyz")
	require.NoError(t, err)
	assert.Equal(t, "at-123", token.AccessToken)
	assert.Equal(t, "rt-456", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.False(t, token.ExpiresAt.IsZero())
	assert.Equal(t, "idt-789", token.Raw["id_token"])
}

func TestExchangeError(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Bad authorization code."}`))
	}))
	defer srv.Close()

	provider := google.New(google.Config{TokenURL: srv.URL})

	_, err := provider.Exchange(ctx, "expired-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestUserInfo(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"sub": "10987654321",
			"email": "jane@example.com",
			"email_verified": true,
			"name": "Jane Doe",
			"given_name": "Jane",
			"family_name": "Doe",
			"picture": "https://lh3.example.com/photo.jpg"
		}`))
	}))
	defer srv.Close()

	provider := google.New(google.Config{UserInfoURL: srv.URL})

	profile, err := provider.UserInfo(ctx, &social.Token{AccessToken: "at-123"})
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "10987654321", profile.ProviderUserID)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Doe", profile.LastName)
}

func TestUserInfoUnauthorized(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	provider := google.New(google.Config{UserInfoURL: srv.URL})

	_, err := provider.UserInfo(ctx, &social.Token{AccessToken: "stale"})
	assert.Error(t, err)
}
