package models

import "time"

// Notification is a broadcast message shown to every user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
