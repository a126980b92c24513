package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Playlist is a local shadow of a Spotify playlist. The row exists only after
// Spotify confirmed creation and its ID is the Spotify-assigned playlist id.
// Spotify stays authoritative for membership, visibility and track contents;
// this row carries the social metadata Spotify knows nothing about.
type Playlist struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name  string `gorm:"not null" json:"name"`
	Genre string `gorm:"index" json:"genre"`

	OwnerID string `gorm:"index;not null" json:"ownerId"`
	Owner   User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner"`

	DurationSeconds int `gorm:"default:0" json:"durationSeconds"`

	// Incrementally maintained counters
	Likes        int `gorm:"default:0" json:"likes"`
	Dislikes     int `gorm:"default:0" json:"dislikes"`
	Plays        int `gorm:"default:0" json:"plays"`
	CommentCount int `gorm:"default:0" json:"commentCount"`

	// Arithmetic mean over all Rating rows, recomputed in full on every change
	Rating float64 `gorm:"default:0" json:"rating"`
}

// Contributor marks a user who has added at least one track to the playlist.
type Contributor struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	PlaylistID string `gorm:"uniqueIndex:idx_playlist_contributor" json:"playlistId"`
	UserID     string `gorm:"uniqueIndex:idx_playlist_contributor" json:"userId"`
	User       User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

// Reaction is a like or dislike on a playlist. One row per (user, playlist)
// is what keeps the liked/disliked sets mutually exclusive.
type Reaction struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	PlaylistID string `gorm:"uniqueIndex:idx_user_playlist_reaction" json:"playlistId"`
	UserID     string `gorm:"uniqueIndex:idx_user_playlist_reaction" json:"userId"`

	// like | dislike
	Reaction string `gorm:"type:text;not null" json:"reaction"`
}

// Rating is one user's 0-5 score for a playlist, unique per pair. A second
// rating from the same user replaces the first.
type Rating struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	UserID     string  `gorm:"uniqueIndex:idx_user_playlist_rating" json:"userId"`
	PlaylistID string  `gorm:"uniqueIndex:idx_user_playlist_rating" json:"playlistId"`
	Rating     float64 `gorm:"not null" json:"rating"`
}

// Discussion is an append-only playlist comment. There is no edit or delete
// path, so Playlist.CommentCount is only ever incremented.
type Discussion struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	PlaylistID string `gorm:"index;not null" json:"playlistId"`
	UserID     string `gorm:"not null" json:"userId"`
	User       User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`

	Text string `gorm:"type:text;not null" json:"text"`
}

func (p *Contributor) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return
}

func (d *Discussion) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}
