package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
}

type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    ExpenseCategory `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	StaffID     *uint           `gorm:"index" json:"staff_id"`
	Staff       *Staff          `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"staff,omitempty"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Description string          `gorm:"type:varchar(500)" json:"description"`
	SpentAt     time.Time       `gorm:"not null;index" json:"spent_at"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}
