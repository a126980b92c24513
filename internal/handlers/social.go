package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

// Follow handles POST /user/follow/:id. Following yourself is a no-op,
// following twice leaves the counters incremented exactly once.
func Follow(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	followeeID := c.Param("id")
	if followeeID == sess.UserID {
		c.JSON(http.StatusOK, gin.H{"followed": false, "message": "Cannot follow yourself"})
		return
	}

	var followee models.User
	if err := database.DB.First(&followee, "id = ?", followeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var count int64
	database.DB.Model(&models.Following{}).
		Where("follower_id = ? AND followee_id = ?", sess.UserID, followeeID).Count(&count)
	if count > 0 {
		c.JSON(http.StatusOK, gin.H{"followed": true})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Following{
			FollowerID: sess.UserID,
			FolloweeID: followeeID,
		}).Error; err != nil {
			return err
		}

		// Deterministic update order to avoid deadlocks between concurrent
		// follow/unfollow pairs.
		first, second := followCounterUpdates(sess.UserID, followeeID)
		if err := first(tx); err != nil {
			return err
		}
		return second(tx)
	})
	if err != nil {
		logger.Error().Err(err).Str("follower", sess.UserID).Str("followee", followeeID).Msg("Follow failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"followed": true})
}

// Unfollow handles DELETE /user/follow/:id, idempotent on a missing edge.
func Unfollow(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	followeeID := c.Param("id")

	var followee models.User
	if err := database.DB.First(&followee, "id = ?", followeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ?", sess.UserID, followeeID).
			Delete(&models.Following{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ? AND following > 0", sess.UserID).
			UpdateColumn("following", gorm.Expr("following - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND followers > 0", followeeID).
			UpdateColumn("followers", gorm.Expr("followers - 1")).Error
	})
	if err != nil {
		logger.Error().Err(err).Str("follower", sess.UserID).Str("followee", followeeID).Msg("Unfollow failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"followed": false})
}

// followCounterUpdates returns the two counter bumps in deterministic id order.
func followCounterUpdates(followerID, followeeID string) (func(*gorm.DB) error, func(*gorm.DB) error) {
	bumpFollowing := func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following", gorm.Expr("following + 1")).Error
	}
	bumpFollowers := func(tx *gorm.DB) error {
		return tx.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("followers", gorm.Expr("followers + 1")).Error
	}
	if followerID < followeeID {
		return bumpFollowing, bumpFollowers
	}
	return bumpFollowers, bumpFollowing
}

// GetFollowers handles GET /user/:id/followers.
func GetFollowers(c *gin.Context) {
	targetID := c.Param("id")

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var edges []models.Following
	if err := database.DB.Preload("Follower").Where("followee_id = ?", targetID).
		Order("created_at desc").Limit(50).Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followers"})
		return
	}

	users := make([]gin.H, 0, len(edges))
	for _, e := range edges {
		users = append(users, gin.H{
			"id":         e.Follower.ID,
			"username":   e.Follower.Username,
			"level":      e.Follower.Level,
			"followedAt": e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"followers": users})
}

// GetFollowing handles GET /user/:id/following.
func GetFollowing(c *gin.Context) {
	targetID := c.Param("id")

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var edges []models.Following
	if err := database.DB.Preload("Followee").Where("follower_id = ?", targetID).
		Order("created_at desc").Limit(50).Find(&edges).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch following"})
		return
	}

	users := make([]gin.H, 0, len(edges))
	for _, e := range edges {
		users = append(users, gin.H{
			"id":         e.Followee.ID,
			"username":   e.Followee.Username,
			"level":      e.Followee.Level,
			"followedAt": e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"following": users})
}
