package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
)

func TestGetProfileSyncsUsernameDrift(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"spotify_user","display_name":"alice_renamed","email":"alice@example.com"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	setupTestWithServer(srv)
	alice := createUser(t, "alice1", "alice")
	createPlaylistRow(t, "pl1", "Chill", alice.ID)

	c, w := testContext("GET", "/user/profile", nil, alice)
	GetProfile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice_renamed"`)
	assert.Contains(t, w.Body.String(), `"pl1"`)
	assert.Equal(t, "alice_renamed", reloadUser(t, alice.ID).Username)
}

func TestDeleteAccountPhraseMismatch(t *testing.T) {
	setupTest()
	alice := createUser(t, "alice1", "alice")

	c, w := testContext("DELETE", "/user/account", map[string]string{
		"confirmation": "I really want to delete my account",
	}, alice)
	DeleteAccount(c)

	// A mismatch is a soft rejection, not an error
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":false`)

	var count int64
	database.DB.Model(&models.User{}).Where("id = ?", alice.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteAccountCascades(t *testing.T) {
	setupTest()
	alice := createUser(t, "alice1", "alice")
	bob := createUser(t, "bob1", "bob")

	// Alice owns a playlist with activity on it
	createPlaylistRow(t, "pl_alice", "Mine", alice.ID)
	likeIt := func(user *models.User, playlistID string) {
		c, _ := testContext("POST", "/play/"+playlistID+"/like", nil, user)
		c.Params = gin.Params{{Key: "id", Value: playlistID}}
		Like(c)
	}
	rateIt := func(user *models.User, playlistID string, rating float64) {
		c, _ := testContext("POST", "/play/"+playlistID+"/rate", map[string]float64{"rating": rating}, user)
		c.Params = gin.Params{{Key: "id", Value: playlistID}}
		Rate(c)
	}
	likeIt(bob, "pl_alice")
	rateIt(bob, "pl_alice", 4)

	// Alice has also been active on Bob's playlist and follows him
	createPlaylistRow(t, "pl_bob", "His", bob.ID)
	likeIt(alice, "pl_bob")
	rateIt(alice, "pl_bob", 1)
	rateIt(bob, "pl_bob", 5)

	c, _ := testContext("POST", "/user/follow/"+bob.ID, nil, alice)
	c.Params = gin.Params{{Key: "id", Value: bob.ID}}
	Follow(c)
	assert.Equal(t, 1, reloadUser(t, bob.ID).Followers)
	assert.InDelta(t, 3.0, reloadPlaylist(t, "pl_bob").Rating, 0.0001)

	c, w := testContext("DELETE", "/user/account", map[string]string{
		"confirmation": "I alice want to delete my account",
	}, alice)
	DeleteAccount(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":true`)

	// The user and everything they owned is gone
	var count int64
	database.DB.Model(&models.User{}).Where("id = ?", alice.ID).Count(&count)
	assert.Equal(t, int64(0), count)
	database.DB.Model(&models.Playlist{}).Where("id = ?", "pl_alice").Count(&count)
	assert.Equal(t, int64(0), count)
	database.DB.Model(&models.Reaction{}).Where("playlist_id = ?", "pl_alice").Count(&count)
	assert.Equal(t, int64(0), count)
	database.DB.Model(&models.Rating{}).Where("playlist_id = ?", "pl_alice").Count(&count)
	assert.Equal(t, int64(0), count)

	// Bob's side of the graph got fixed up
	assert.Equal(t, 0, reloadUser(t, bob.ID).Followers)

	pb := reloadPlaylist(t, "pl_bob")
	assert.Equal(t, 0, pb.Likes)
	// Alice's rating is gone, leaving only Bob's 5
	assert.InDelta(t, 5.0, pb.Rating, 0.0001)

	// The session carriers were expired
	cookies := w.Header().Values("Set-Cookie")
	assert.NotEmpty(t, cookies)
	for _, cookie := range cookies {
		assert.Contains(t, cookie, "Max-Age=0")
	}
}

func TestDeleteAccountRequiresConfirmation(t *testing.T) {
	setupTest()
	alice := createUser(t, "alice1", "alice")

	c, w := testContext("DELETE", "/user/account", map[string]string{}, alice)
	DeleteAccount(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
