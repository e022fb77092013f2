package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for a category over a recurring period.
type Budget struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	CategoryID uint            `gorm:"index;not null" json:"category_id"`
	Period     string          `gorm:"size:16;not null" json:"period"` // DAILY / WEEKLY / MONTHLY / YEARLY
	LimitValue decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"limit_value"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	User     User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
