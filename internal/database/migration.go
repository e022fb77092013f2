package database

import (
	"fmt"

	"github.com/matteusmanoel/granaguru-backend/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Category{},
		&models.Tag{},
		&models.RecurringTransaction{},
		&models.Transaction{},
		&models.Budget{},
		&models.Goal{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
