package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
)

func TestLoginRedirectsWithStoredState(t *testing.T) {
	setupTest()

	c, w := testContext("GET", "/user/login", nil, nil)
	Login(c)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	assert.NoError(t, err)
	assert.Contains(t, location.Host, "accounts.spotify.com")

	state := location.Query().Get("state")
	assert.Len(t, state, 16)

	// The nonce is parked server-side for the callback to consume
	var count int64
	database.DB.Model(&models.LoginState{}).Where("state = ?", state).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	setupTest()

	c, w := testContext("GET", "/user/callback?state=NEVERSTORED12345&code=abc", nil, nil)
	Callback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "State mismatch")
}

func TestCallbackRejectsProviderError(t *testing.T) {
	setupTest()

	c, w := testContext("GET", "/user/callback?error=access_denied", nil, nil)
	Callback(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "access_denied")
}

func TestCallbackCreatesUserAndConsumesState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access-1","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-1"}`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"spotify_user","display_name":"alice","email":"alice@example.com"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	setupTestWithServer(srv)

	const state = "ABCDEFGH12345678"
	database.DB.Create(&models.LoginState{State: state})

	c, w := testContext("GET", "/user/callback?state="+state+"&code=goodcode", nil, nil)
	Callback(c)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "http://localhost:5173/dashboard", w.Header().Get("Location"))

	// First login creates the account
	var user models.User
	assert.NoError(t, database.DB.First(&user, "email = ?", "alice@example.com").Error)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.LevelRookie, user.Level)

	// All three carriers were issued
	cookies := strings.Join(w.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, cookies, auth.CookieSession+"=")
	assert.Contains(t, cookies, auth.CookieAccessToken+"=access-1")
	assert.Contains(t, cookies, auth.CookieRefresh+"=refresh-1")

	// The nonce is single-use: a replayed callback fails
	c, w = testContext("GET", "/user/callback?state="+state+"&code=goodcode", nil, nil)
	Callback(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "State mismatch")
}

func TestCallbackSyncsUsernameDriftOnLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"access-1","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-1"}`)
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"spotify_user","display_name":"alice_renamed","email":"alice@example.com"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	setupTestWithServer(srv)
	createUser(t, "alice1", "alice")

	const state = "ABCDEFGH87654321"
	database.DB.Create(&models.LoginState{State: state})

	c, w := testContext("GET", "/user/callback?state="+state+"&code=goodcode", nil, nil)
	Callback(c)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "alice_renamed", reloadUser(t, "alice1").Username)

	// Still one account: login matches on email, not display name
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLogoutClearsCarriers(t *testing.T) {
	setupTest()

	c, w := testContext("GET", "/user/logout", nil, nil)
	Logout(c)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	for _, cookie := range w.Header().Values("Set-Cookie") {
		assert.Contains(t, cookie, "Max-Age=0")
	}
}
