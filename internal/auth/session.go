package auth

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// Cookie names for the three session carriers plus the tracked expiry of the
// Spotify access token.
const (
	CookieSession     = "session_token"
	CookieAccessToken = "spotify_access_token"
	CookieRefresh     = "spotify_refresh_token"
	CookieExpiry      = "spotify_token_expiry"
)

const refreshTokenTTL = 180 * 24 * time.Hour

// Session is the resolved identity plus provider tokens for one request.
type Session struct {
	UserID      string
	Username    string
	AccessToken string
}

// SetSessionCookie writes the local signed credential.
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(CookieSession, token, int(ttl.Seconds()), "/", "", false, true)
}

// SetProviderCookies writes the Spotify token carriers. The access token and
// its expiry always move together; the refresh token is only rewritten when
// Spotify rotated it.
func SetProviderCookies(c *gin.Context, tok *oauth2.Token) {
	ttl := time.Until(tok.Expiry)
	if ttl <= 0 {
		ttl = time.Hour
	}
	c.SetCookie(CookieAccessToken, tok.AccessToken, int(ttl.Seconds()), "/", "", false, true)
	c.SetCookie(CookieExpiry, strconv.FormatInt(tok.Expiry.Unix(), 10), int(ttl.Seconds()), "/", "", false, true)

	if tok.RefreshToken != "" {
		c.SetCookie(CookieRefresh, tok.RefreshToken, int(refreshTokenTTL.Seconds()), "/", "", false, true)
	}
}

// ClearSessionCookies deletes every carrier. Logout is client-side only.
func ClearSessionCookies(c *gin.Context) {
	for _, name := range []string{CookieSession, CookieAccessToken, CookieRefresh, CookieExpiry} {
		c.SetCookie(name, "", -1, "/", "", false, true)
	}
}

// TokenExpiry parses the tracked expiry cookie. A missing or garbled value
// reads as already expired, which just forces a refresh.
func TokenExpiry(c *gin.Context) time.Time {
	raw, err := c.Cookie(CookieExpiry)
	if err != nil {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
