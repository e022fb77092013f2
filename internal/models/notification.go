package models

import "time"

// Notification types.
const (
	NotificationAlert    = "ALERT"
	NotificationReminder = "REMINDER"
	NotificationInfo     = "INFO"
)

// Notification is a stored message for a user. Delivery (push, e-mail) is
// outside this system; records are created and read through the API only.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:100;not null" json:"title"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Type      string    `gorm:"size:16;not null" json:"type"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
