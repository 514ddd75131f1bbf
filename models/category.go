package models

// Category represents categories table.
// Menu items reference a category by name.
type Category struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;unique" json:"name"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`

	// Filled by list queries only
	ItemCount int64 `gorm:"->;-:migration" json:"item_count"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}
