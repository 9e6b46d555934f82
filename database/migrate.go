package database

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

var (
	paymentMethods    = []string{"Cash", "Credit Card"}
	expenseCategories = []string{"Ingredients", "Beverages", "Rent", "Utilities", "Salaries", "Maintenance", "Other"}
	feedbackTypes     = []string{"Complaint", "Suggestion", "Compliment"}
)

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Staff{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentMethod{},
		&models.Payment{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.FeedbackType{},
		&models.Feedback{},
		&models.ActionLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")
	return nil
}

// SeedOptions describes the bootstrap manager account.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
}

// Seed fills the lookup tables and creates the first manager when the staff
// table is empty. It is safe to run on every start.
func Seed(db *gorm.DB, opts SeedOptions) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range paymentMethods {
			if err := tx.Where(models.PaymentMethod{Name: name}).FirstOrCreate(&models.PaymentMethod{}).Error; err != nil {
				return fmt.Errorf("seed payment method %s: %w", name, err)
			}
		}
		for _, name := range expenseCategories {
			if err := tx.Where(models.ExpenseCategory{Name: name}).FirstOrCreate(&models.ExpenseCategory{}).Error; err != nil {
				return fmt.Errorf("seed expense category %s: %w", name, err)
			}
		}
		for _, name := range feedbackTypes {
			if err := tx.Where(models.FeedbackType{Name: name}).FirstOrCreate(&models.FeedbackType{}).Error; err != nil {
				return fmt.Errorf("seed feedback type %s: %w", name, err)
			}
		}
		return seedManager(tx, opts)
	})
}

func seedManager(tx *gorm.DB, opts SeedOptions) error {
	var n int64
	if err := tx.Model(&models.Staff{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if opts.AdminUsername == "" || opts.AdminPassword == "" {
		return errors.New("no staff exists: set ADMIN_USERNAME and ADMIN_PASSWORD to create the first manager")
	}

	hash, err := services.HashPassword(opts.AdminPassword)
	if err != nil {
		return err
	}
	manager := models.Staff{
		FullName:      "Administrator",
		Username:      opts.AdminUsername,
		PasswordHash:  hash,
		Role:          models.RoleManager,
		AccountStatus: models.AccountActive,
		ShiftStatus:   models.ShiftOffDuty,
	}
	if err := tx.Create(&manager).Error; err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}
	utils.InfoLogger.WithField("username", manager.Username).Info("Created bootstrap manager account")
	return nil
}
