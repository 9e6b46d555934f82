package models

import "time"

const (
	RoleWaiter  = "waiter"
	RoleManager = "manager"
)

const (
	AccountActive    = "active"
	AccountSuspended = "suspended"
	AccountLeft      = "left"
)

const (
	ShiftOffDuty = "off_duty"
	ShiftOnDuty  = "on_duty"
)

type Staff struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FullName      string     `gorm:"type:varchar(100);not null" json:"full_name"`
	Username      string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"username"`
	PasswordHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Phone         string     `gorm:"type:varchar(20)" json:"phone"`
	Email         string     `gorm:"type:varchar(100)" json:"email"`
	Address       string     `gorm:"type:varchar(255)" json:"address"`
	Role          string     `gorm:"type:varchar(20);not null;index" json:"role"`
	AccountStatus string     `gorm:"type:varchar(20);not null;default:'active'" json:"account_status"`
	ShiftStatus   string     `gorm:"type:varchar(20);not null;default:'off_duty'" json:"shift_status"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (Staff) TableName() string {
	return "staff"
}

func IsValidRole(role string) bool {
	return role == RoleWaiter || role == RoleManager
}

func IsValidAccountStatus(status string) bool {
	return status == AccountActive || status == AccountSuspended || status == AccountLeft
}
