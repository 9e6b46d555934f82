package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CategoryID uint            `gorm:"not null;uniqueIndex:idx_category_product_name" json:"category_id"`
	Category   Category        `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Name       string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_product_name" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock      int             `gorm:"not null;default:0" json:"stock"`
	Active     bool            `gorm:"not null" json:"active"`
	ImageURL   string          `gorm:"type:varchar(255)" json:"image_url"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}
