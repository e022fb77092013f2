package models

import "time"

// Tag is a free-form label attached to transactions.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	Transactions []Transaction `gorm:"many2many:transaction_tags" json:"-"`
}
