package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal statuses.
const (
	GoalInProgress = "IN_PROGRESS"
	GoalCompleted  = "COMPLETED"
	GoalCancelled  = "CANCELLED"
)

// Goal is a savings target the user works towards over time.
type Goal struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Description   string          `gorm:"size:100;not null" json:"description"`
	TargetAmount  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"current_amount"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	Status        string          `gorm:"size:16;not null;default:IN_PROGRESS" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
