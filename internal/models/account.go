package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountChecking   = "CHECKING"
	AccountSavings    = "SAVINGS"
	AccountWallet     = "WALLET"
	AccountInvestment = "INVESTMENT"
)

// Account statuses.
const (
	AccountActive   = "ACTIVE"
	AccountInactive = "INACTIVE"
)

// Account represents a money account owned by a user (bank account, wallet...).
type Account struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         uint            `gorm:"index;not null" json:"user_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Type           string          `gorm:"size:16;not null" json:"type"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"initial_balance"`
	Status         string          `gorm:"size:16;not null;default:ACTIVE" json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
