package models

import "time"

// Category types, shared with transactions.
const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// Category represents an income/expense category.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Type      string    `gorm:"size:16;index;not null" json:"type"`
	Icon      string    `gorm:"size:255" json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
