package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/config"
	"github.com/imisi99/Spotify-api/internal/spotify"
)

var (
	cfg    *config.Config
	sp     *spotify.Client
	issuer *auth.Issuer
)

// Init hands the handlers the components built once at startup. Business
// logic never reads configuration from ambient state after this.
func Init(c *config.Config, client *spotify.Client, iss *auth.Issuer) {
	cfg = c
	sp = client
	issuer = iss
}

// session pulls the identity the auth middleware resolved for this request.
func session(c *gin.Context) (auth.Session, bool) {
	userID, ok := c.Get("userId")
	if !ok {
		return auth.Session{}, false
	}
	username, _ := c.Get("username")
	accessToken, _ := c.Get("accessToken")

	s := auth.Session{UserID: userID.(string)}
	if username != nil {
		s.Username = username.(string)
	}
	if accessToken != nil {
		s.AccessToken = accessToken.(string)
	}
	return s, true
}
