package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// orderProgress ranks the forward path; cancelled is off the path
var orderProgress = map[OrderStatus]int{
	OrderPending:   0,
	OrderConfirmed: 1,
	OrderPreparing: 2,
	OrderReady:     3,
	OrderCompleted: 4,
}

// Valid reports whether s is in the status allow-list
func (s OrderStatus) Valid() bool {
	if s == OrderCancelled {
		return true
	}
	_, ok := orderProgress[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// CanTransitionTo reports whether an order in status s may move to next.
// Orders only move forward (skipping steps is fine) or get cancelled
// while not terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return orderProgress[next] > orderProgress[s]
}

// OrderType is how the order is served
type OrderType string

const (
	OrderDineIn   OrderType = "dine-in"
	OrderTakeout  OrderType = "takeout"
	OrderDelivery OrderType = "delivery"
)

// PaymentMethod type for payment methods
type PaymentMethod string

const (
	PaymentCash           PaymentMethod = "cash"
	PaymentCard           PaymentMethod = "card"
	PaymentAccountBalance PaymentMethod = "account_balance"
)

// Order represents orders table
type Order struct {
	BaseModel
	MemberID       *uint           `gorm:"index" json:"member_id"`
	CustomerName   string          `gorm:"type:varchar(100);not null;default:''" json:"customer_name"`
	CustomerPhone  string          `gorm:"type:varchar(20);not null;default:''" json:"customer_phone"`
	OrderType      OrderType       `gorm:"type:varchar(20);not null;default:'dine-in'" json:"order_type"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;check:total_amount >= 0" json:"total_amount"`
	Status         OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PointsEarned   int             `gorm:"not null;default:0" json:"points_earned"`
	PointsUsed     int             `gorm:"not null;default:0" json:"points_used"`
	Notes          string          `gorm:"type:text;not null;default:''" json:"notes"`

	Items []OrderItem `gorm:"-" json:"items,omitempty"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderItem represents order_items table. Rows are written once with the
// order and never updated.
type OrderItem struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	OrderID             uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID          uint            `gorm:"not null;index" json:"menu_item_id"`
	ItemName            string          `gorm:"type:varchar(150);not null" json:"item_name"`
	Quantity            int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	SpecialInstructions string          `gorm:"type:text;not null;default:''" json:"special_instructions"`
	CreatedAt           time.Time       `json:"created_at"`
}

// TableName specifies the table name for OrderItem
func (OrderItem) TableName() string {
	return "order_items"
}
