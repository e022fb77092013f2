package scheduler

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/matteusmanoel/granaguru-backend/internal/config"
	"github.com/matteusmanoel/granaguru-backend/internal/database"
	"github.com/matteusmanoel/granaguru-backend/internal/logger"
	"github.com/matteusmanoel/granaguru-backend/internal/models"
	"github.com/matteusmanoel/granaguru-backend/internal/recurrence"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "scheduler_test.db"),
	})
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}
	return db
}

func seedOverdueRecurring(t *testing.T, db *gorm.DB) models.RecurringTransaction {
	t.Helper()

	user := models.User{Name: "Scheduler User", Email: "sched@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	account := models.Account{
		UserID:         user.ID,
		Name:           "Checking",
		Type:           models.AccountChecking,
		InitialBalance: decimal.NewFromInt(500),
		Status:         models.AccountActive,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	category := models.Category{UserID: user.ID, Name: "Utilities", Type: models.TypeExpense}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}

	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -2)
	rec := models.RecurringTransaction{
		UserID:       user.ID,
		AccountID:    account.ID,
		CategoryID:   category.ID,
		Amount:       decimal.NewFromInt(80),
		Type:         models.TypeExpense,
		Description:  "Electricity",
		Periodicity:  recurrence.Daily,
		StartDate:    start,
		NextRun:      start,
		FixedExpense: true,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create recurring: %v", err)
	}
	return rec
}

func TestRun_ProcessesBacklogOnStart(t *testing.T) {
	db := setupTestDB(t)
	rec := seedOverdueRecurring(t, db)

	log := logger.NewWithWriter(io.Discard)
	p := recurrence.NewProcessor(db, log, 0)
	s := New(p, time.Hour, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// the first pass runs immediately, before the first ticker fire
	deadline := time.After(5 * time.Second)
	for {
		var n int64
		if err := db.Model(&models.Transaction{}).
			Where("recurring_transaction_id = ?", rec.ID).Count(&n).Error; err != nil {
			t.Fatalf("count entries: %v", err)
		}
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("backlog not processed before deadline, have %d entries", n)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}

func TestNew_DefaultsInterval(t *testing.T) {
	log := logger.NewWithWriter(io.Discard)
	s := New(nil, 0, log)
	if s.interval != time.Minute {
		t.Errorf("interval = %s, want 1m default", s.interval)
	}
}
