package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistItem represents wishlist_items table: a user (member id or guest
// identifier) marking a menu item
type WishlistItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_wishlist_user_item" json:"user_id"`
	MenuItemID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_item" json:"menu_item_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Joined from menu_items by list queries
	Name        string          `gorm:"->;-:migration" json:"name,omitempty"`
	Price       decimal.Decimal `gorm:"->;-:migration" json:"price"`
	Category    string          `gorm:"->;-:migration" json:"category,omitempty"`
	ImageURL    string          `gorm:"->;-:migration" json:"image_url,omitempty"`
	IsAvailable bool            `gorm:"->;-:migration" json:"is_available"`
}

// TableName specifies the table name for WishlistItem
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// PopularItem is a menu item with its wishlist count
type PopularItem struct {
	MenuItemID    uint            `json:"menu_item_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Price         decimal.Decimal `json:"price"`
	WishlistCount int64           `json:"wishlist_count"`
}
