package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Level string

const (
	LevelRookie  Level = "rookie"
	LevelCurator Level = "curator"
	LevelLegend  Level = "legend"
)

// User is created on the first successful Spotify callback for an email.
// Username tracks the Spotify display name and is re-synced on drift.
type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Username string `gorm:"not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	// Denormalized counters, maintained transactionally with the rows they count
	CreatedPlaylistCount int `gorm:"default:0" json:"createdPlaylistCount"`
	Followers            int `gorm:"default:0" json:"followers"`
	Following            int `gorm:"default:0" json:"following"`

	Level Level `gorm:"type:text;default:'rookie'" json:"level"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// Following is a follower -> followee edge. Unique per pair; both users'
// counters move with the edge inside the same transaction.
type Following struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	FollowerID string `gorm:"uniqueIndex:idx_follower_followee" json:"followerId"`
	Follower   User   `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower"`

	FolloweeID string `gorm:"uniqueIndex:idx_follower_followee" json:"followeeId"`
	Followee   User   `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"followee"`
}

func (f *Following) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return
}
