package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/imisi99/Spotify-api/internal/auth"
	"github.com/imisi99/Spotify-api/internal/database"
	"github.com/imisi99/Spotify-api/internal/models"
	"github.com/imisi99/Spotify-api/internal/spotify"
	"github.com/imisi99/Spotify-api/pkg/logger"
)

const playbackBaseURL = "https://open.spotify.com/playlist/"

type CreatePlaylistInput struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Genre         string `json:"genre"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}

// CreatePlaylist handles POST /play/create.
func CreatePlaylist(c *gin.Context) {
	var input CreatePlaylistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	createPlaylist(c, input)
}

// CreatePrivatePlaylist handles POST /play/create-private. Same as create but
// the visibility flags are forced off.
func CreatePrivatePlaylist(c *gin.Context) {
	var input CreatePlaylistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Public = false
	input.Collaborative = false
	createPlaylist(c, input)
}

// createPlaylist calls Spotify first and writes the local shadow row only
// after the remote create succeeds. The row's id is the Spotify-assigned one.
func createPlaylist(c *gin.Context, input CreatePlaylistInput) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// The create endpoint is keyed by the Spotify user id, which is not
	// persisted locally.
	profile, err := sp.Me(c.Request.Context(), sess.AccessToken)
	if err != nil {
		c.Error(err)
		return
	}

	remote, err := sp.CreatePlaylist(c.Request.Context(), sess.AccessToken, profile.ID,
		input.Name, input.Description, input.Public, input.Collaborative)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", sess.UserID).Msg("Spotify rejected playlist creation")
		c.Error(err)
		return
	}

	playlist := models.Playlist{
		ID:      remote.ID,
		Name:    remote.Name,
		Genre:   input.Genre,
		OwnerID: sess.UserID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&playlist).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Contributor{PlaylistID: playlist.ID, UserID: sess.UserID}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", sess.UserID).
			UpdateColumn("created_playlist_count", gorm.Expr("created_playlist_count + 1")).Error
	})
	if err != nil {
		logger.Error().Err(err).Str("playlist_id", playlist.ID).Msg("Failed to store playlist shadow row")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Playlist created on Spotify but could not be saved"})
		return
	}

	logger.Info().Str("playlist_id", playlist.ID).Str("user_id", sess.UserID).Msg("Playlist created")
	c.JSON(http.StatusCreated, gin.H{"playlist": playlist, "url": remote.ExternalURLs.Spotify})
}

// GetPlaylist handles GET /play/:id.
func GetPlaylist(c *gin.Context) {
	var playlist models.Playlist
	if err := database.DB.Preload("Owner").First(&playlist, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	var contributors []models.Contributor
	database.DB.Preload("User").Where("playlist_id = ?", playlist.ID).Find(&contributors)

	c.JSON(http.StatusOK, gin.H{"playlist": playlist, "contributors": contributors})
}

// loadWithPermission fetches the local row plus the live remote playlist and
// enforces the ownership-or-collaborative rule. The same check guards every
// mutating operation; no endpoint gets a looser variant.
func loadWithPermission(c *gin.Context, sess auth.Session) (*models.Playlist, *spotify.Playlist, bool) {
	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return nil, nil, false
	}

	// The collaborative flag is read live; the shadow row never caches it.
	remote, err := sp.GetPlaylist(c.Request.Context(), sess.AccessToken, playlist.ID)
	if err != nil {
		c.Error(err)
		return nil, nil, false
	}

	if playlist.OwnerID != sess.UserID && !remote.Collaborative {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can modify a non-collaborative playlist"})
		return nil, nil, false
	}

	return &playlist, remote, true
}

type VisibilityInput struct {
	Public        *bool `json:"public" binding:"required"`
	Collaborative *bool `json:"collaborative" binding:"required"`
}

// SetVisibility handles PUT /play/:id/visibility. Spotify stays authoritative
// for these attributes; nothing is cached locally.
func SetVisibility(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input VisibilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist, _, ok := loadWithPermission(c, sess)
	if !ok {
		return
	}

	if err := sp.ChangeDetails(c.Request.Context(), sess.AccessToken, playlist.ID, *input.Public, *input.Collaborative); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist visibility updated"})
}

type TracksInput struct {
	TrackIDs []string `json:"trackIds" binding:"required"`
}

// AddTracks handles POST /play/:id/tracks. Malformed track ids are dropped
// silently before URIs are built; the response reports how many were added.
func AddTracks(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input TracksInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid := spotify.FilterTrackIDs(input.TrackIDs)
	if len(valid) == 0 {
		c.JSON(http.StatusOK, gin.H{"added": 0})
		return
	}

	playlist, _, ok := loadWithPermission(c, sess)
	if !ok {
		return
	}

	uris := make([]string, len(valid))
	for i, id := range valid {
		uris[i] = spotify.TrackURI(id)
	}

	if err := sp.AddTracks(c.Request.Context(), sess.AccessToken, playlist.ID, uris); err != nil {
		c.Error(err)
		return
	}

	if err := syncAfterTrackChange(c, sess, playlist); err != nil {
		logger.Error().Err(err).Str("playlist_id", playlist.ID).Msg("Failed to sync playlist after track add")
	}

	c.JSON(http.StatusOK, gin.H{"added": len(valid)})
}

// RemoveTracks handles DELETE /play/:id/tracks, symmetric to AddTracks.
func RemoveTracks(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input TracksInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	valid := spotify.FilterTrackIDs(input.TrackIDs)
	if len(valid) == 0 {
		c.JSON(http.StatusOK, gin.H{"removed": 0})
		return
	}

	playlist, _, ok := loadWithPermission(c, sess)
	if !ok {
		return
	}

	uris := make([]string, len(valid))
	for i, id := range valid {
		uris[i] = spotify.TrackURI(id)
	}

	if err := sp.RemoveTracks(c.Request.Context(), sess.AccessToken, playlist.ID, uris); err != nil {
		c.Error(err)
		return
	}

	if err := syncAfterTrackChange(c, sess, playlist); err != nil {
		logger.Error().Err(err).Str("playlist_id", playlist.ID).Msg("Failed to sync playlist after track removal")
	}

	c.JSON(http.StatusOK, gin.H{"removed": len(valid)})
}

// syncAfterTrackChange re-queries the remote track list, recomputes the total
// duration in whole seconds, and records the requester as a contributor.
func syncAfterTrackChange(c *gin.Context, sess auth.Session, playlist *models.Playlist) error {
	items, err := sp.PlaylistTracks(c.Request.Context(), sess.AccessToken, playlist.ID)
	if err != nil {
		return err
	}

	totalMS := 0
	for _, item := range items {
		totalMS += item.Track.DurationMS
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(playlist).UpdateColumn("duration_seconds", totalMS/1000).Error; err != nil {
			return err
		}

		var count int64
		tx.Model(&models.Contributor{}).Where("playlist_id = ? AND user_id = ?", playlist.ID, sess.UserID).Count(&count)
		if count == 0 {
			return tx.Create(&models.Contributor{PlaylistID: playlist.ID, UserID: sess.UserID}).Error
		}
		return nil
	})
}

// DeletePlaylist handles DELETE /play/:id. Spotify deletion is an unfollow;
// "already removed" counts as removed, so the local cleanup still runs.
func DeletePlaylist(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	playlist, _, ok := loadWithPermission(c, sess)
	if !ok {
		return
	}

	if err := sp.Unfollow(c.Request.Context(), sess.AccessToken, playlist.ID); err != nil {
		c.Error(err)
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.Reaction{}, &models.Rating{}, &models.Discussion{}, &models.Contributor{}} {
			if err := tx.Where("playlist_id = ?", playlist.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(playlist).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ? AND created_playlist_count > 0", playlist.OwnerID).
			UpdateColumn("created_playlist_count", gorm.Expr("created_playlist_count - 1")).Error
	})
	if err != nil {
		logger.Error().Err(err).Str("playlist_id", playlist.ID).Msg("Failed to delete playlist row")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete playlist"})
		return
	}

	logger.Info().Str("playlist_id", playlist.ID).Str("user_id", sess.UserID).Msg("Playlist deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted"})
}

// Like handles POST /play/:id/like.
func Like(c *gin.Context) {
	react(c, models.ReactionLike)
}

// Dislike handles POST /play/:id/dislike.
func Dislike(c *gin.Context) {
	react(c, models.ReactionDislike)
}

// react keeps the liked and disliked sets mutually exclusive: at most one
// reaction row per (user, playlist), and counter moves happen in the same
// transaction as the row change. Repeating the current reaction is a no-op.
func react(c *gin.Context, target string) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	playlistID := c.Param("id")

	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	var existing models.Reaction
	findErr := database.DB.Where("playlist_id = ? AND user_id = ?", playlistID, sess.UserID).First(&existing).Error

	if findErr == nil && existing.Reaction == target {
		c.JSON(http.StatusOK, gin.H{"reaction": target})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if findErr == nil {
			// Switching sides: drop the old membership before adding the new.
			// Update writes the new value back into the struct, so hold on to
			// the old one first.
			prev := existing.Reaction
			if err := tx.Model(&existing).Update("reaction", target).Error; err != nil {
				return err
			}
			if err := bumpReactionCounter(tx, playlistID, prev, -1); err != nil {
				return err
			}
			return bumpReactionCounter(tx, playlistID, target, +1)
		}

		if err := tx.Create(&models.Reaction{
			PlaylistID: playlistID,
			UserID:     sess.UserID,
			Reaction:   target,
		}).Error; err != nil {
			return err
		}
		return bumpReactionCounter(tx, playlistID, target, +1)
	})
	if err != nil {
		logger.Error().Err(err).Str("playlist_id", playlistID).Msg("Failed to record reaction")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record reaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reaction": target})
}

func bumpReactionCounter(tx *gorm.DB, playlistID, reaction string, delta int) error {
	field := "likes"
	if reaction == models.ReactionDislike {
		field = "dislikes"
	}
	return tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
		UpdateColumn(field, gorm.Expr(field+" + ?", delta)).Error
}

type RateInput struct {
	Rating *float64 `json:"rating" binding:"required"`
}

// Rate handles POST /play/:id/rate. The aggregate is always recomputed as the
// mean over all rating rows rather than adjusted incrementally, so the stored
// value never drifts regardless of call order.
func Rate(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input RateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating := *input.Rating
	if rating < 0 || rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 0 and 5"})
		return
	}

	playlistID := c.Param("id")
	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Rating
		err := tx.Where("playlist_id = ? AND user_id = ?", playlistID, sess.UserID).First(&existing).Error
		switch err {
		case nil:
			if err := tx.Model(&existing).Update("rating", rating).Error; err != nil {
				return err
			}
		case gorm.ErrRecordNotFound:
			if err := tx.Create(&models.Rating{
				PlaylistID: playlistID,
				UserID:     sess.UserID,
				Rating:     rating,
			}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var mean float64
		if err := tx.Model(&models.Rating{}).Where("playlist_id = ?", playlistID).
			Select("AVG(rating)").Scan(&mean).Error; err != nil {
			return err
		}
		return tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
			UpdateColumn("rating", mean).Error
	})
	if err != nil {
		logger.Error().Err(err).Str("playlist_id", playlistID).Msg("Failed to store rating")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rating recorded"})
}

type CommentInput struct {
	Text string `json:"text" binding:"required"`
}

// Comment handles POST /play/:id/discussion. Comments are append-only, so the
// denormalized counter is only ever incremented.
func Comment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlistID := c.Param("id")
	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	comment := models.Discussion{
		PlaylistID: playlistID,
		UserID:     sess.UserID,
		Text:       input.Text,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Playlist{}).Where("id = ?", playlistID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post comment"})
		return
	}

	database.DB.Preload("User").First(&comment, "id = ?", comment.ID)
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// GetDiscussion handles GET /play/:id/discussion, oldest first.
func GetDiscussion(c *gin.Context) {
	playlistID := c.Param("id")

	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	var comments []models.Discussion
	if err := database.DB.Preload("User").Where("playlist_id = ?", playlistID).
		Order("created_at asc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch discussion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Listen handles GET /play/:id/listen. Public: anyone can listen without
// logging in. The playback link is constructible from the playlist id alone,
// so no Spotify call is needed.
func Listen(c *gin.Context) {
	playlistID := c.Param("id")

	var playlist models.Playlist
	if err := database.DB.First(&playlist, "id = ?", playlistID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	database.DB.Model(&playlist).UpdateColumn("plays", gorm.Expr("plays + 1"))

	c.JSON(http.StatusOK, gin.H{
		"name": playlist.Name,
		"url":  playbackBaseURL + playlist.ID,
	})
}

// RankTop handles GET /play/top. The highest-rated and highest-played
// playlist are scored independently with rating*0.85 + plays*0.15, and the
// larger score wins. Ties keep the rating-ranked candidate.
func RankTop(c *gin.Context) {
	var byRating, byPlays models.Playlist

	if err := database.DB.Order("rating desc").First(&byRating).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No playlists yet, try creating one"})
		return
	}
	if err := database.DB.Order("plays desc").First(&byPlays).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No playlists yet, try creating one"})
		return
	}

	top := byRating
	if score(&byPlays) > score(&byRating) {
		top = byPlays
	}

	c.JSON(http.StatusOK, gin.H{"playlist": top})
}

func score(p *models.Playlist) float64 {
	return p.Rating*0.85 + float64(p.Plays)*0.15
}

// SearchTracks handles GET /play/search. Proxies the provider's track search
// for the add-tracks flow.
func SearchTracks(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	tracks, err := sp.SearchTracks(c.Request.Context(), sess.AccessToken, query, 20)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}
