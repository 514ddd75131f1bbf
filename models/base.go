package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is rendered as a JSON number, e.g. 70.5 rather than "70.5".
	decimal.MarshalJSONWithoutQuotes = true
}

// BaseModel contains ID and common timestamp columns
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
