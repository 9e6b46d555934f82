package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPreparing = "preparing"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OpenOrderStatuses are the statuses of an order still attached to its table.
var OpenOrderStatuses = []string{OrderStatusPreparing, OrderStatusServed}

type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	TableID   *uint       `gorm:"index" json:"table_id"`
	Table     *Table      `gorm:"foreignKey:TableID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"table,omitempty"`
	WaiterID  *uint       `gorm:"index" json:"waiter_id"`
	Waiter    *Staff      `gorm:"foreignKey:WaiterID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"waiter,omitempty"`
	Status    string      `gorm:"type:varchar(20);not null;default:'preparing';index" json:"status"`
	Note      string      `gorm:"type:varchar(500)" json:"note"`
	CreatedAt time.Time   `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payment   *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
}

// IsOpen reports whether the order still holds its table.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusPreparing || o.Status == OrderStatusServed
}

// Total sums quantity x unit price over the loaded line items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the quantities of the loaded line items.
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}
