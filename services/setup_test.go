package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ctx = context.Background()

// setupTestDB opens a private in-memory database for one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func createStaff(t *testing.T, db *gorm.DB, username, role string) models.Staff {
	t.Helper()
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	staff := models.Staff{
		FullName:      strings.ToUpper(username[:1]) + username[1:],
		Username:      username,
		PasswordHash:  hash,
		Role:          role,
		AccountStatus: models.AccountActive,
		ShiftStatus:   models.ShiftOffDuty,
	}
	require.NoError(t, db.Create(&staff).Error)
	return staff
}

func actorFor(s models.Staff) Actor {
	return Actor{StaffID: s.ID, Name: s.FullName, Role: s.Role, IP: "127.0.0.1"}
}

func createTable(t *testing.T, db *gorm.DB, name, status string) models.Table {
	t.Helper()
	table := models.Table{Name: name, Status: status}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func createCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func createProduct(t *testing.T, db *gorm.DB, categoryID uint, name, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		Active:     true,
	}
	require.NoError(t, db.Omit("Category").Create(&product).Error)
	return product
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p
}

func reloadTable(t *testing.T, db *gorm.DB, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, db.First(&table, id).Error)
	return table
}

func countLogs(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.ActionLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}
