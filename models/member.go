package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MembershipLevel is the tier of a member account
type MembershipLevel string

const (
	LevelBronze   MembershipLevel = "bronze"
	LevelSilver   MembershipLevel = "silver"
	LevelGold     MembershipLevel = "gold"
	LevelPlatinum MembershipLevel = "platinum"
)

// Valid reports whether l is a known level
func (l MembershipLevel) Valid() bool {
	switch l {
	case LevelBronze, LevelSilver, LevelGold, LevelPlatinum:
		return true
	}
	return false
}

// Member represents members table
type Member struct {
	BaseModel
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	Email           *string         `gorm:"type:varchar(150);unique" json:"email"`
	Phone           *string         `gorm:"type:varchar(20);unique" json:"phone"`
	MembershipLevel MembershipLevel `gorm:"type:varchar(20);not null;default:'bronze'" json:"membership_level"`
	Points          int             `gorm:"not null;default:0;check:points >= 0" json:"points"`
	Balance         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;check:balance >= 0" json:"balance"`
	MemberSince     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"member_since"`
}

// TableName specifies the table name for Member
func (Member) TableName() string {
	return "members"
}

// MemberTransactionType is the kind of balance ledger entry
type MemberTransactionType string

const (
	MemberTopUp    MemberTransactionType = "topup"
	MemberPurchase MemberTransactionType = "purchase"
	MemberRefund   MemberTransactionType = "refund"
)

// MemberTransaction represents member_transactions table (append-only ledger)
type MemberTransaction struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	MemberID        uint                  `gorm:"not null;index" json:"member_id"`
	TransactionType MemberTransactionType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Amount          decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceAfter    decimal.Decimal       `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	PaymentMethod   string                `gorm:"type:varchar(30);not null;default:''" json:"payment_method"`
	OrderID         *uint                 `gorm:"index" json:"order_id,omitempty"`
	Description     string                `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt       time.Time             `json:"created_at"`
}

// TableName specifies the table name for MemberTransaction
func (MemberTransaction) TableName() string {
	return "member_transactions"
}
