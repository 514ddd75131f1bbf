package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryTransactionType is the kind of stock movement
type InventoryTransactionType string

const (
	InventoryRestock    InventoryTransactionType = "restock"
	InventoryUsage      InventoryTransactionType = "usage"
	InventoryWaste      InventoryTransactionType = "waste"
	InventoryAdjustment InventoryTransactionType = "adjustment"
)

// Increases reports whether the movement adds stock. Only restock does.
func (t InventoryTransactionType) Increases() bool {
	return t == InventoryRestock
}

// Valid reports whether t is a known transaction type
func (t InventoryTransactionType) Valid() bool {
	switch t {
	case InventoryRestock, InventoryUsage, InventoryWaste, InventoryAdjustment:
		return true
	}
	return false
}

// InventoryItem represents inventory_items table
type InventoryItem struct {
	BaseModel
	Name         string          `gorm:"type:varchar(150);not null" json:"name"`
	SKU          string          `gorm:"column:sku;type:varchar(50);not null;unique" json:"sku"`
	Category     string          `gorm:"type:varchar(100);not null;default:''" json:"category"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;check:current_stock >= 0" json:"current_stock"`
	MinimumStock decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"minimum_stock"`
	Unit         string          `gorm:"type:varchar(20);not null" json:"unit"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_per_unit"`
}

// TableName specifies the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock reports whether the item is at or below its minimum
func (i InventoryItem) IsLowStock() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinimumStock)
}

// InventoryTransaction represents inventory_transactions table (append-only)
type InventoryTransaction struct {
	ID              uint                     `gorm:"primaryKey" json:"id"`
	InventoryItemID uint                     `gorm:"not null;index" json:"inventory_item_id"`
	TransactionType InventoryTransactionType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Quantity        decimal.Decimal          `gorm:"type:decimal(12,2);not null;check:quantity > 0" json:"quantity"`
	StockAfter      decimal.Decimal          `gorm:"type:decimal(12,2);not null" json:"stock_after"`
	UnitCost        *decimal.Decimal         `gorm:"type:decimal(12,2)" json:"unit_cost,omitempty"`
	Notes           string                   `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt       time.Time                `json:"created_at"`

	// Filled by ledger queries that join the parent item
	ItemName string `gorm:"->;-:migration" json:"item_name,omitempty"`
}

// TableName specifies the table name for InventoryTransaction
func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}
