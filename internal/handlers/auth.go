package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/internal/spotify"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

// Login starts the authorization-code flow: mint a state nonce, park it
// server-side, redirect to accounts.spotify.com.
func Login(c *gin.Context) {
	state := spotify.NewState()

	if err := storeState(state); err != nil {
		logger.Error().Err(err).Msg("Failed to store OAuth state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start login"})
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, sp.AuthCodeURL(state))
}

// Callback completes the flow. The state check runs before any token
// exchange; a nonce is consumable exactly once.
func Callback(c *gin.Context) {
	if provErr := c.Query("error"); provErr != "" {
		logger.Warn().Str("error", provErr).Msg("Spotify authorization denied")
		c.JSON(http.StatusBadRequest, gin.H{"error": provErr})
		return
	}

	state := c.Query("state")
	ok, err := consumeState(state)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to look up OAuth state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify login state"})
		return
	}
	if !ok {
		logger.Warn().Msg("OAuth callback with unknown or reused state")
		c.JSON(http.StatusBadRequest, gin.H{"error": "State mismatch, please try logging in again"})
		return
	}

	tok, err := sp.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		logger.Error().Err(err).Msg("Spotify code exchange failed")
		c.Error(err)
		return
	}

	profile, err := sp.Me(c.Request.Context(), tok.AccessToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch Spotify profile")
		c.Error(err)
		return
	}

	user, err := resolveUser(profile)
	if err != nil {
		logger.Error().Err(err).Str("email", profile.Email).Msg("Failed to resolve user during callback")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve account"})
		return
	}

	sessionToken, err := issuer.Issue(user.ID, user.Username)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue session token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue session"})
		return
	}

	auth.SetSessionCookie(c, sessionToken, issuer.TTL())
	auth.SetProviderCookies(c, tok)

	logger.Info().Str("user_id", user.ID).Msg("User logged in via Spotify")
	c.Redirect(http.StatusTemporaryRedirect, cfg.FrontendURL+"/dashboard")
}

// Logout deletes the carriers. There is no server-side revocation; expiry is
// the only invalidation mechanism for the session credential.
func Logout(c *gin.Context) {
	auth.ClearSessionCookies(c)
	c.Redirect(http.StatusTemporaryRedirect, "/")
}

// resolveUser finds the account for a Spotify profile by email, creating it
// on first login and re-syncing username drift on later ones.
func resolveUser(profile *spotify.UserProfile) (*models.User, error) {
	var user models.User
	err := database.DB.Where("email = ?", profile.Email).First(&user).Error

	switch err {
	case nil:
		if user.Username != profile.DisplayName && profile.DisplayName != "" {
			if err := database.DB.Model(&user).Update("username", profile.DisplayName).Error; err != nil {
				return nil, err
			}
			user.Username = profile.DisplayName
		}
		return &user, nil

	case gorm.ErrRecordNotFound:
		username := profile.DisplayName
		if username == "" {
			username = profile.ID
		}
		user = models.User{
			Username: username,
			Email:    profile.Email,
			Level:    models.LevelRookie,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return nil, err
		}
		logger.Info().Str("email", profile.Email).Str("user_id", user.ID).Msg("New user registered via Spotify")
		return &user, nil

	default:
		return nil, err
	}
}

func storeState(state string) error {
	if database.Redis != nil {
		return database.StoreState(state)
	}

	// Opportunistic cleanup of stale nonces on the DB fallback path.
	database.DB.Where("created_at < ?", time.Now().Add(-10*time.Minute)).Delete(&models.LoginState{})
	return database.DB.Create(&models.LoginState{State: state}).Error
}

func consumeState(state string) (bool, error) {
	if state == "" {
		return false, nil
	}
	if database.Redis != nil {
		return database.ConsumeState(state)
	}

	res := database.DB.Where("state = ? AND created_at >= ?", state, time.Now().Add(-10*time.Minute)).
		Delete(&models.LoginState{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
