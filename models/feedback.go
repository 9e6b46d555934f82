package models

import "time"

type FeedbackType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
}

type Feedback struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	TypeID    uint         `gorm:"not null;index" json:"type_id"`
	Type      FeedbackType `gorm:"foreignKey:TypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"type"`
	ProductID *uint        `gorm:"index" json:"product_id"`
	Product   *Product     `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"product,omitempty"`
	Rating    int          `gorm:"not null" json:"rating"`
	Comment   string       `gorm:"type:varchar(1000)" json:"comment"`
	CreatedAt time.Time    `gorm:"not null;index" json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
