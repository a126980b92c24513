package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

// GetProfile handles GET /user/profile. The Spotify profile is re-fetched so
// a display-name change upstream lands in the local row.
func GetProfile(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := sp.Me(c.Request.Context(), sess.AccessToken)
	if err != nil {
		c.Error(err)
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", sess.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if profile.DisplayName != "" && user.Username != profile.DisplayName {
		if err := database.DB.Model(&user).Update("username", profile.DisplayName).Error; err != nil {
			logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sync username drift")
		} else {
			user.Username = profile.DisplayName
		}
	}

	var playlists []models.Playlist
	database.DB.Where("owner_id = ?", user.ID).Find(&playlists)

	c.JSON(http.StatusOK, gin.H{
		"username":             user.Username,
		"email":                user.Email,
		"followers":            user.Followers,
		"following":            user.Following,
		"level":                user.Level,
		"createdPlaylistCount": user.CreatedPlaylistCount,
		"playlists":            playlists,
	})
}

type DeleteAccountInput struct {
	Confirmation string `json:"confirmation" binding:"required"`
}

// DeleteAccount handles DELETE /user/account. The confirmation phrase must
// match exactly; a mismatch is a soft rejection, not an error. A match
// cascades through everything the user owns and clears the carriers.
func DeleteAccount(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input DeleteAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", sess.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	expected := fmt.Sprintf("I %s want to delete my account", user.Username)
	if input.Confirmation != expected {
		c.JSON(http.StatusOK, gin.H{
			"deleted": false,
			"message": "Confirmation phrase does not match, account left untouched",
		})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Follow edges first, fixing the counterparties' counters.
		var edges []models.Following
		if err := tx.Where("follower_id = ? OR followee_id = ?", user.ID, user.ID).Find(&edges).Error; err != nil {
			return err
		}
		for _, e := range edges {
			if e.FollowerID == user.ID {
				if err := tx.Model(&models.User{}).Where("id = ? AND followers > 0", e.FolloweeID).
					UpdateColumn("followers", gorm.Expr("followers - 1")).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.User{}).Where("id = ? AND following > 0", e.FollowerID).
					UpdateColumn("following", gorm.Expr("following - 1")).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", user.ID, user.ID).
			Delete(&models.Following{}).Error; err != nil {
			return err
		}

		// Reactions on other users' playlists keep their counters honest.
		var reactions []models.Reaction
		if err := tx.Where("user_id = ?", user.ID).Find(&reactions).Error; err != nil {
			return err
		}
		for _, r := range reactions {
			if err := bumpReactionCounter(tx, r.PlaylistID, r.Reaction, -1); err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}

		// Ratings: remove and recompute each touched playlist's mean.
		var ratings []models.Rating
		if err := tx.Where("user_id = ?", user.ID).Find(&ratings).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		for _, r := range ratings {
			var mean float64
			if err := tx.Model(&models.Rating{}).Where("playlist_id = ?", r.PlaylistID).
				Select("COALESCE(AVG(rating), 0)").Scan(&mean).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Playlist{}).Where("id = ?", r.PlaylistID).
				UpdateColumn("rating", mean).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Discussion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Contributor{}).Error; err != nil {
			return err
		}

		// Owned playlists and everything hanging off them.
		var owned []models.Playlist
		if err := tx.Where("owner_id = ?", user.ID).Find(&owned).Error; err != nil {
			return err
		}
		for _, p := range owned {
			for _, m := range []interface{}{&models.Reaction{}, &models.Rating{}, &models.Discussion{}, &models.Contributor{}} {
				if err := tx.Where("playlist_id = ?", p.ID).Delete(m).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.Playlist{}).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Account deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	auth.ClearSessionCookies(c)
	logger.Info().Str("user_id", user.ID).Msg("Account deleted")
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
