package models

import "github.com/shopspring/decimal"

// MenuItem represents menu_items table
type MenuItem struct {
	BaseModel
	Name        string          `gorm:"type:varchar(150);not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;check:price >= 0" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	ImageURL    string          `gorm:"type:varchar(500);not null;default:''" json:"image_url"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`
}

// TableName specifies the table name for MenuItem
func (MenuItem) TableName() string {
	return "menu_items"
}
