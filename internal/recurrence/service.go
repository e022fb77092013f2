package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/models"

	"gorm.io/gorm"
)

// Errors surfaced by the service. Handlers map ErrInvalid to a 400-style
// response and the not-found family to 404.
var (
	ErrInvalid          = errors.New("invalid recurring transaction")
	ErrNotFound         = errors.New("recurring transaction not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Service owns the lifecycle of recurring transactions: reference
// validation, persistence, and hand-off to the Processor. All lookups are
// scoped to the owning user.
type Service struct {
	db        *gorm.DB
	processor *Processor
}

func NewService(db *gorm.DB, processor *Processor) *Service {
	return &Service{db: db, processor: processor}
}

// Processor exposes the underlying processor for the scheduler and the
// explicit process endpoint.
func (s *Service) Processor() *Processor {
	return s.processor
}

// Create validates rec and persists it. Closed (fixed-installment) series
// have their whole run materialized immediately; open series wait for the
// next catch-up pass. Nothing is persisted when validation fails.
func (s *Service) Create(rec *models.RecurringTransaction) error {
	if err := s.validate(rec); err != nil {
		return err
	}

	now := time.Now()
	if rec.StartDate.IsZero() {
		rec.StartDate = now
	}
	if rec.NextRun.IsZero() {
		rec.NextRun = rec.StartDate
	}

	if err := s.checkReferences(rec); err != nil {
		return err
	}

	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create recurring transaction: %w", err)
	}

	if rec.Kind() == models.SeriesFixedInstallments {
		return s.processor.MaterializeSeries(rec)
	}
	return nil
}

// FindAll returns every recurring transaction owned by userID.
func (s *Service) FindAll(userID uint) ([]models.RecurringTransaction, error) {
	var recs []models.RecurringTransaction
	if err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return recs, nil
}

// FindByID returns one recurring transaction, ErrNotFound when absent.
func (s *Service) FindByID(userID, id uint) (*models.RecurringTransaction, error) {
	var rec models.RecurringTransaction
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find recurring transaction: %w", err)
	}
	return &rec, nil
}

// Update replaces the mutable fields of an existing definition. Already
// materialized occurrences are never revisited; the change only affects
// future catch-up passes. The NextRun watermark is left untouched.
func (s *Service) Update(userID, id uint, in *models.RecurringTransaction) (*models.RecurringTransaction, error) {
	rec, err := s.FindByID(userID, id)
	if err != nil {
		return nil, err
	}

	in.UserID = userID
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if err := s.checkReferences(in); err != nil {
		return nil, err
	}

	rec.AccountID = in.AccountID
	rec.CategoryID = in.CategoryID
	rec.Amount = in.Amount
	rec.Type = in.Type
	rec.Description = in.Description
	rec.Periodicity = in.Periodicity
	rec.EndDate = in.EndDate
	rec.TotalInstallments = in.TotalInstallments
	rec.FixedExpense = in.FixedExpense

	if err := s.db.Save(rec).Error; err != nil {
		return nil, fmt.Errorf("update recurring transaction: %w", err)
	}
	return rec, nil
}

// Delete removes a definition, ErrNotFound when absent. Previously generated
// transactions keep existing with a detached back-reference.
func (s *Service) Delete(userID, id uint) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.RecurringTransaction{})
	if res.Error != nil {
		return fmt.Errorf("delete recurring transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) validate(rec *models.RecurringTransaction) error {
	if !rec.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalid)
	}
	if rec.Type != models.TypeIncome && rec.Type != models.TypeExpense {
		return fmt.Errorf("%w: type must be INCOME or EXPENSE", ErrInvalid)
	}
	if rec.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if !ValidPeriodicity(rec.Periodicity) {
		return fmt.Errorf("%w: %q", ErrUnknownPeriodicity, rec.Periodicity)
	}
	if rec.FixedExpense && rec.TotalInstallments != nil {
		return fmt.Errorf("%w: fixed expense cannot carry an installment count", ErrInvalid)
	}
	if rec.TotalInstallments != nil && *rec.TotalInstallments < 1 {
		return fmt.Errorf("%w: total installments must be at least 1", ErrInvalid)
	}
	if rec.EndDate != nil && !rec.StartDate.IsZero() && rec.EndDate.Before(rec.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalid)
	}
	return nil
}

// checkReferences verifies that the owner, account and category exist and
// belong together before anything touches the recurring table.
func (s *Service) checkReferences(rec *models.RecurringTransaction) error {
	var n int64
	if err := s.db.Model(&models.User{}).Where("id = ?", rec.UserID).Count(&n).Error; err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	if err := s.db.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", rec.AccountID, rec.UserID).Count(&n).Error; err != nil {
		return fmt.Errorf("check account: %w", err)
	}
	if n == 0 {
		return ErrAccountNotFound
	}
	if err := s.db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", rec.CategoryID, rec.UserID).Count(&n).Error; err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
