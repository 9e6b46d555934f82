package models

import (
	"strings"
	"time"
)

const (
	OtherCategoryName      = "Other"
	OtherCategorySortOrder = 9999
)

var otherCategoryNames = []string{"other", "diğer", "diger"}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	ImageURL  string    `gorm:"type:varchar(255)" json:"image_url"`
	Products  []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsOtherName reports whether name refers to the protected catch-all category.
func IsOtherName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, other := range otherCategoryNames {
		if n == other {
			return true
		}
	}
	return false
}

func (c *Category) IsOther() bool {
	return IsOtherName(c.Name)
}
