package models

import "time"

// Session is an issued token stored server side so it can be revoked.
type Session struct {
	ID        uint64    `gorm:"primaryKey"`
	Username  string    `gorm:"index;size:100;not null"`
	Token     string    `gorm:"uniqueIndex;size:1024;not null"`
	Platform  string    `gorm:"size:50"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}
