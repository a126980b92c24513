package models

import "time"

// LoginState is a pending OAuth state nonce. Used only when Redis is not
// configured; rows are deleted on consumption and expired rows are ignored.
type LoginState struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	State string `gorm:"uniqueIndex;not null" json:"state"`
}
