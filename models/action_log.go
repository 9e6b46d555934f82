package models

import "time"

const (
	ActionLogin             = "login"
	ActionLogout            = "logout"
	ActionStaffAdd          = "staff_add"
	ActionStaffUpdate       = "staff_update"
	ActionStaffDelete       = "staff_delete"
	ActionCategoryAdd       = "category_add"
	ActionCategoryUpdate    = "category_update"
	ActionCategoryDelete    = "category_delete"
	ActionProductAdd        = "product_add"
	ActionProductUpdate     = "product_update"
	ActionProductDelete     = "product_delete"
	ActionTableAdd          = "table_add"
	ActionTableUpdate       = "table_update"
	ActionTableDelete       = "table_delete"
	ActionExpenseAdd        = "expense_add"
	ActionExpenseUpdate     = "expense_update"
	ActionExpenseDelete     = "expense_delete"
	ActionFeedbackDelete    = "feedback_delete"
	ActionOrderCreate       = "order_create"
	ActionOrderItemAdd      = "order_item_add"
	ActionOrderItemRemove   = "order_item_remove"
	ActionOrderStatusUpdate = "order_status_update"
	ActionOrderCancel       = "order_cancel"
	ActionPaymentTake       = "payment_take"
	ActionTableReservation  = "table_reservation"
)

type ActionLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StaffID     *uint     `gorm:"index" json:"staff_id"`
	Staff       *Staff    `gorm:"foreignKey:StaffID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"staff,omitempty"`
	Action      string    `gorm:"type:varchar(40);not null;index" json:"action"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}
