package services

import (
	"database/sql/driver"
	"regexp"

	"github.com/shopspring/decimal"
)

// money matches a decimal query argument by value, so "12.5" matches "12.50"
type money string

func (m money) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(m)))
}

func sqlLike(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
