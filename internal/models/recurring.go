package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeriesKind classifies how a recurring transaction terminates. The three
// nullable fields on RecurringTransaction (FixedExpense, TotalInstallments,
// EndDate) collapse into a single variant chosen at validation time, so the
// scheduling code never has to reason about flag combinations.
type SeriesKind int

const (
	// SeriesOpenEnded runs indefinitely (fixed expense, e.g. rent).
	SeriesOpenEnded SeriesKind = iota
	// SeriesFixedInstallments generates exactly TotalInstallments entries.
	SeriesFixedInstallments
	// SeriesBoundedByDate runs until EndDate, inclusive.
	SeriesBoundedByDate
)

// RecurringTransaction is a user-defined recurrence: a template transaction
// plus a periodicity. NextRun is the watermark marking the earliest
// occurrence that has not yet been turned into a ledger Transaction; it is
// advanced only by the recurrence processor and never moves backward.
type RecurringTransaction struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"index;not null" json:"user_id"`
	AccountID  uint `gorm:"index;not null" json:"account_id"`
	CategoryID uint `gorm:"index;not null" json:"category_id"`

	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Type        string          `gorm:"size:16;not null" json:"type"` // INCOME / EXPENSE
	Description string          `gorm:"size:255;not null" json:"description"`
	Periodicity string          `gorm:"size:16;not null" json:"periodicity"` // DAILY / WEEKLY / MONTHLY / YEARLY

	StartDate         time.Time  `gorm:"not null" json:"start_date"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	TotalInstallments *int       `json:"total_installments,omitempty"` // nil for fixed expenses
	FixedExpense      bool       `gorm:"not null;default:false" json:"fixed_expense"`
	NextRun           time.Time  `gorm:"index;not null" json:"next_run"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User     User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Account  Account  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category Category `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Kind derives the termination variant. FixedExpense wins over an installment
// count (creation rejects that combination, but stored rows are trusted last).
func (r *RecurringTransaction) Kind() SeriesKind {
	switch {
	case r.FixedExpense && r.EndDate == nil:
		return SeriesOpenEnded
	case r.FixedExpense:
		return SeriesBoundedByDate
	case r.TotalInstallments != nil && *r.TotalInstallments > 0:
		return SeriesFixedInstallments
	case r.EndDate != nil:
		return SeriesBoundedByDate
	default:
		return SeriesOpenEnded
	}
}
