package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types mirror the toast levels the cabinet UI renders.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationError   = "error"
)

// Notification is a per-user message emitted by moderation decisions.
// Persisted with GORM (new-module convention, see db/gorm.go).
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    int64     `json:"userId" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Message   string    `json:"message" gorm:"type:text"`
	Type      string    `json:"type" gorm:"size:16"`
	Link      string    `json:"link" gorm:"size:512"`
	IsRead    bool      `json:"isRead" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewNotification builds an unread notification for a user.
func NewNotification(userID int64, title, message, typ, link string) *Notification {
	return &Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Link:      link,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
}
