package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
}

// Payment closes an order. Amount is the order total at the time of payment.
type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	PaymentMethodID uint            `gorm:"not null" json:"payment_method_id"`
	PaymentMethod   PaymentMethod   `gorm:"foreignKey:PaymentMethodID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"payment_method"`
	StaffID         *uint           `gorm:"index" json:"staff_id"`
	Staff           *Staff          `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"staff,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	PaidAt          time.Time       `gorm:"not null;index" json:"paid_at"`
}
