package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger record. Entries generated from a recurring
// transaction carry a back-reference and an installment number; ordinary
// one-off entries leave both nil.
//
// The composite unique index on (recurring_transaction_id, occurred_at) is
// the idempotency contract for generated occurrences: at most one entry may
// exist per recurrence and occurrence date. SQLite treats NULL values as
// distinct, so one-off entries are unaffected.
type Transaction struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"index;not null" json:"user_id"`
	AccountID  uint `gorm:"index;not null" json:"account_id"`
	CategoryID uint `gorm:"index;not null" json:"category_id"`

	OccurredAt    time.Time       `gorm:"index;not null;uniqueIndex:idx_recurring_occurrence" json:"occurred_at"`
	Type          string          `gorm:"size:16;index;not null" json:"type"` // INCOME / EXPENSE
	Description   string          `gorm:"size:255;not null" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"size:50" json:"payment_method,omitempty"`

	InstallmentNumber      *int  `json:"installment_number,omitempty"`
	RecurringTransactionID *uint `gorm:"index;uniqueIndex:idx_recurring_occurrence" json:"recurring_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User                 User                  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Account              Account               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category             Category              `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	RecurringTransaction *RecurringTransaction `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Tags                 []Tag                 `gorm:"many2many:transaction_tags" json:"tags,omitempty"`
}
