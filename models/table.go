package models

import "time"

const (
	TableStatusEmpty    = "empty"
	TableStatusOccupied = "occupied"
	TableStatusReserved = "reserved"
)

type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Status    string    `gorm:"type:varchar(20);not null;default:'empty';index" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Table) TableName() string {
	return "dining_tables"
}
