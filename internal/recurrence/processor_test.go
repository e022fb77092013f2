package recurrence

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/config"
	"github.com/matteusmanoel/granaguru-backend/internal/database"
	"github.com/matteusmanoel/granaguru-backend/internal/logger"
	"github.com/matteusmanoel/granaguru-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Path:    filepath.Join(t.TempDir(), "recurrence_test.db"),
		LogMode: false,
	}
	db, err := database.Init(cfg)
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

func newTestProcessor(db *gorm.DB, maxPerPass int) *Processor {
	return NewProcessor(db, logger.NewWithWriter(io.Discard), maxPerPass)
}

// seedRefs creates the user/account/category a recurring transaction needs.
func seedRefs(t *testing.T, db *gorm.DB) (models.User, models.Account, models.Category) {
	t.Helper()

	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := models.Account{
		UserID:         user.ID,
		Name:           "Checking",
		Type:           models.AccountChecking,
		InitialBalance: decimal.NewFromInt(1000),
		Status:         models.AccountActive,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	category := models.Category{UserID: user.ID, Name: "Housing", Type: models.TypeExpense}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return user, account, category
}

func newRecurring(user models.User, account models.Account, category models.Category) models.RecurringTransaction {
	return models.RecurringTransaction{
		UserID:      user.ID,
		AccountID:   account.ID,
		CategoryID:  category.ID,
		Amount:      decimal.NewFromInt(100),
		Type:        models.TypeExpense,
		Description: "Rent",
		Periodicity: Daily,
	}
}

func generatedEntries(t *testing.T, db *gorm.DB, recID uint) []models.Transaction {
	t.Helper()
	var txs []models.Transaction
	if err := db.Where("recurring_transaction_id = ?", recID).
		Order("occurred_at ASC").Find(&txs).Error; err != nil {
		t.Fatalf("query generated entries: %v", err)
	}
	return txs
}

func TestProcessDue_DailyCatchUp(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	anchor := now.AddDate(0, 0, -5)

	rec := newRecurring(user, account, category)
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("ProcessDueAt failed: %v", err)
	}

	txs := generatedEntries(t, db, rec.ID)
	if len(txs) != 6 {
		t.Fatalf("expected 6 generated entries (anchor..now), got %d", len(txs))
	}
	for i, tx := range txs {
		wantDate := anchor.AddDate(0, 0, i)
		if !tx.OccurredAt.Equal(wantDate) {
			t.Errorf("entry %d occurred at %s, want %s", i, tx.OccurredAt, wantDate)
		}
		if tx.Description != "Rent" {
			t.Errorf("entry %d description = %q, want undecorated %q", i, tx.Description, "Rent")
		}
		if tx.InstallmentNumber == nil || *tx.InstallmentNumber != i+1 {
			t.Errorf("entry %d installment number = %v, want %d", i, tx.InstallmentNumber, i+1)
		}
	}

	wantNext := now.AddDate(0, 0, 1)
	if !rec.NextRun.Equal(wantNext) {
		t.Errorf("next run = %s, want %s", rec.NextRun, wantNext)
	}
}

func TestProcessDue_SameDayDoubleCall(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	rec := newRecurring(user, account, category)
	rec.StartDate = now.AddDate(0, 0, -5)
	rec.NextRun = rec.StartDate
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("first ProcessDueAt failed: %v", err)
	}
	first := len(generatedEntries(t, db, rec.ID))

	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("second ProcessDueAt failed: %v", err)
	}
	second := len(generatedEntries(t, db, rec.ID))

	if first != 6 || second != 6 {
		t.Errorf("expected 6 entries after both calls, got %d then %d", first, second)
	}
}

func TestProcessDue_SkipsExistingOccurrence(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	anchor := now.AddDate(0, 0, -2)

	rec := newRecurring(user, account, category)
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// pre-existing entry for the anchor date, as if a previous pass crashed
	// after creating it but before saving the watermark
	one := 1
	existing := models.Transaction{
		UserID:                 user.ID,
		AccountID:              account.ID,
		CategoryID:             category.ID,
		OccurredAt:             anchor,
		Type:                   rec.Type,
		Description:            rec.Description,
		Amount:                 rec.Amount,
		InstallmentNumber:      &one,
		RecurringTransactionID: &rec.ID,
	}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("create existing entry: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("ProcessDueAt failed: %v", err)
	}

	txs := generatedEntries(t, db, rec.ID)
	if len(txs) != 3 {
		t.Fatalf("expected 3 entries total, got %d", len(txs))
	}

	seen := map[string]int{}
	for _, tx := range txs {
		seen[tx.OccurredAt.UTC().Format("2006-01-02")]++
	}
	for day, count := range seen {
		if count != 1 {
			t.Errorf("date %s has %d entries, want exactly 1", day, count)
		}
	}
}

func TestProcessDue_MonotonicWatermark(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	rec := newRecurring(user, account, category)
	rec.StartDate = now.AddDate(0, 0, -3)
	rec.NextRun = rec.StartDate
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	before := rec.NextRun
	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("ProcessDueAt failed: %v", err)
	}
	if !rec.NextRun.After(before) {
		t.Errorf("watermark did not advance: %s -> %s", before, rec.NextRun)
	}

	var stored models.RecurringTransaction
	if err := db.First(&stored, rec.ID).Error; err != nil {
		t.Fatalf("reload recurring: %v", err)
	}
	if !stored.NextRun.Equal(rec.NextRun) {
		t.Errorf("persisted watermark %s differs from in-memory %s", stored.NextRun, rec.NextRun)
	}

	// a second pass with the same clock must not move it
	after := rec.NextRun
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("second ProcessDueAt failed: %v", err)
	}
	if !rec.NextRun.Equal(after) {
		t.Errorf("watermark moved on idle pass: %s -> %s", after, rec.NextRun)
	}
}

func TestProcessDue_BoundedByDateStopsAtEnd(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	anchor := now.AddDate(0, 0, -5)
	end := anchor.AddDate(0, 0, 2)

	rec := newRecurring(user, account, category)
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.EndDate = &end
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("ProcessDueAt failed: %v", err)
	}

	txs := generatedEntries(t, db, rec.ID)
	if len(txs) != 3 {
		t.Fatalf("expected 3 entries up to end date, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.OccurredAt.After(end) {
			t.Errorf("entry at %s is past end date %s", tx.OccurredAt, end)
		}
		if tx.Description != "Rent" {
			t.Errorf("bounded series description = %q, want undecorated", tx.Description)
		}
	}
}

func TestProcessDue_FixedInstallmentsStopsAtTotal(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	anchor := now.AddDate(0, 0, -4)
	total := 2

	rec := newRecurring(user, account, category)
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.TotalInstallments = &total
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("ProcessDueAt failed: %v", err)
	}

	txs := generatedEntries(t, db, rec.ID)
	if len(txs) != 2 {
		t.Fatalf("expected exactly %d entries for closed series, got %d", total, len(txs))
	}
	wantDescriptions := []string{"Rent - Installment 1/2", "Rent - Installment 2/2"}
	for i, tx := range txs {
		if tx.Description != wantDescriptions[i] {
			t.Errorf("entry %d description = %q, want %q", i, tx.Description, wantDescriptions[i])
		}
	}
}

func TestProcessDue_UnknownPeriodicityNoMutation(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	rec := newRecurring(user, account, category)
	rec.Periodicity = "FORTNIGHTLY"
	rec.StartDate = now.AddDate(0, 0, -3)
	rec.NextRun = rec.StartDate
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	err := p.ProcessDueAt(&rec, now)
	if !errors.Is(err, ErrUnknownPeriodicity) {
		t.Fatalf("ProcessDueAt error = %v, want ErrUnknownPeriodicity", err)
	}

	if n := len(generatedEntries(t, db, rec.ID)); n != 0 {
		t.Errorf("expected no entries for invalid periodicity, got %d", n)
	}
	var stored models.RecurringTransaction
	if err := db.First(&stored, rec.ID).Error; err != nil {
		t.Fatalf("reload recurring: %v", err)
	}
	if !stored.NextRun.Equal(rec.StartDate) {
		t.Errorf("watermark moved on invalid periodicity: %s", stored.NextRun)
	}
}

func TestProcessDue_IterationCapResumes(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)
	anchor := now.AddDate(0, 0, -9)

	rec := newRecurring(user, account, category)
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 3)
	if err := p.ProcessDueAt(&rec, now); err != nil {
		t.Fatalf("first capped pass failed: %v", err)
	}
	if n := len(generatedEntries(t, db, rec.ID)); n != 3 {
		t.Fatalf("expected 3 entries after capped pass, got %d", n)
	}

	// further passes finish the backlog without duplicating anything
	for i := 0; i < 3; i++ {
		if err := p.ProcessDueAt(&rec, now); err != nil {
			t.Fatalf("resume pass %d failed: %v", i, err)
		}
	}
	if n := len(generatedEntries(t, db, rec.ID)); n != 10 {
		t.Errorf("expected 10 entries after resume passes, got %d", n)
	}
}

func TestProcessAllDue_ScansOnlyDueDefinitions(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	now := date(2026, time.March, 10)

	due := newRecurring(user, account, category)
	due.StartDate = now.AddDate(0, 0, -2)
	due.NextRun = due.StartDate
	due.FixedExpense = true
	if err := db.Create(&due).Error; err != nil {
		t.Fatalf("create due recurring: %v", err)
	}

	future := newRecurring(user, account, category)
	future.Description = "Insurance"
	future.StartDate = now.AddDate(0, 0, 10)
	future.NextRun = future.StartDate
	future.FixedExpense = true
	if err := db.Create(&future).Error; err != nil {
		t.Fatalf("create future recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	processed, err := p.ProcessAllDue(now)
	if err != nil {
		t.Fatalf("ProcessAllDue failed: %v", err)
	}
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}

	if n := len(generatedEntries(t, db, due.ID)); n != 3 {
		t.Errorf("due definition generated %d entries, want 3", n)
	}
	if n := len(generatedEntries(t, db, future.ID)); n != 0 {
		t.Errorf("future definition generated %d entries, want 0", n)
	}
}

func TestMaterializeSeries_MonthlyInstallments(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	anchor := date(2026, time.January, 15)
	total := 3

	rec := newRecurring(user, account, category)
	rec.Description = "Sofa"
	rec.Periodicity = Monthly
	rec.StartDate = anchor
	rec.NextRun = anchor
	rec.TotalInstallments = &total
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.MaterializeSeries(&rec); err != nil {
		t.Fatalf("MaterializeSeries failed: %v", err)
	}

	txs := generatedEntries(t, db, rec.ID)
	if len(txs) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(txs))
	}

	wantDates := []time.Time{anchor, anchor.AddDate(0, 1, 0), anchor.AddDate(0, 2, 0)}
	wantDescriptions := []string{
		"Sofa - Installment 1/3",
		"Sofa - Installment 2/3",
		"Sofa - Installment 3/3",
	}
	for i, tx := range txs {
		if !tx.OccurredAt.Equal(wantDates[i]) {
			t.Errorf("installment %d dated %s, want %s", i+1, tx.OccurredAt, wantDates[i])
		}
		if tx.Description != wantDescriptions[i] {
			t.Errorf("installment %d description = %q, want %q", i+1, tx.Description, wantDescriptions[i])
		}
		if tx.InstallmentNumber == nil || *tx.InstallmentNumber != i+1 {
			t.Errorf("installment %d number = %v, want %d", i+1, tx.InstallmentNumber, i+1)
		}
	}

	// repeated materialization is a no-op
	if err := p.MaterializeSeries(&rec); err != nil {
		t.Fatalf("second MaterializeSeries failed: %v", err)
	}
	if n := len(generatedEntries(t, db, rec.ID)); n != 3 {
		t.Errorf("expected 3 installments after re-materialization, got %d", n)
	}
}

func TestMaterializeSeries_RejectsOpenEnded(t *testing.T) {
	db := setupTestDB(t)
	user, account, category := seedRefs(t, db)

	rec := newRecurring(user, account, category)
	rec.StartDate = date(2026, time.January, 1)
	rec.NextRun = rec.StartDate
	rec.FixedExpense = true
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	p := newTestProcessor(db, 0)
	if err := p.MaterializeSeries(&rec); err == nil {
		t.Error("MaterializeSeries on open-ended series error = nil, want error")
	}
	if n := len(generatedEntries(t, db, rec.ID)); n != 0 {
		t.Errorf("expected no entries, got %d", n)
	}
}
