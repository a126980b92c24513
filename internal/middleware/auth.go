package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/spotify"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

const LoginPath = "/user/login"

// wantsJSON distinguishes API callers from browser flows. Browsers get a
// login redirect, API callers get an explicit 401.
func wantsJSON(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func rejectUnauthenticated(c *gin.Context, reason string) {
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": reason})
		c.Abort()
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, LoginPath)
	c.Abort()
}

// RequireSession resolves the caller's identity from the session cookie and
// guarantees a fresh Spotify access token before the handler runs.
//
// When the tracked expiry has passed, the one shared refresh path runs here:
// exchange the refresh token, re-issue the carriers, then redirect back to
// the originally requested endpoint so it retries with the new token. Every
// remote-dependent handler gets refresh behavior from this middleware instead
// of duplicating it.
func RequireSession(issuer *auth.Issuer, sp *spotify.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, err := c.Cookie(auth.CookieSession)
		if err != nil {
			rejectUnauthenticated(c, "No session")
			return
		}

		claims, err := issuer.Validate(sessionToken)
		if err != nil {
			logger.Warn().Err(err).Msg("Session validation failed")
			rejectUnauthenticated(c, err.Error())
			return
		}

		accessToken, tokenErr := c.Cookie(auth.CookieAccessToken)
		if tokenErr != nil || spotify.Expired(auth.TokenExpiry(c)) {
			refreshToken, err := c.Cookie(auth.CookieRefresh)
			if err != nil {
				rejectUnauthenticated(c, "No Spotify credentials")
				return
			}

			tok, err := sp.Refresh(c.Request.Context(), refreshToken)
			if err != nil {
				logger.Warn().Err(err).Str("user_id", claims.UserID).Msg("Token refresh failed")
				auth.ClearSessionCookies(c)
				rejectUnauthenticated(c, "Spotify session expired, please log in again")
				return
			}

			auth.SetProviderCookies(c, tok)
			logger.Info().Str("user_id", claims.UserID).Msg("Spotify access token refreshed")

			// Retry the original request with the new carriers in place.
			c.Redirect(http.StatusTemporaryRedirect, c.Request.URL.RequestURI())
			c.Abort()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("accessToken", accessToken)
		c.Next()
	}
}

// OptionalSession sets identity context when a valid session is present but
// never aborts. Anonymous listeners go through here.
func OptionalSession(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, err := c.Cookie(auth.CookieSession)
		if err != nil {
			c.Next()
			return
		}

		claims, err := issuer.Validate(sessionToken)
		if err != nil {
			c.Next()
			return
		}

		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)
		if accessToken, err := c.Cookie(auth.CookieAccessToken); err == nil {
			c.Set("accessToken", accessToken)
		}
		c.Next()
	}
}
