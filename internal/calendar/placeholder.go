package calendar

import "github.com/shopspring/decimal"

var placeholderUnitPrice = decimal.New(99, -2)

// PlaceholderAmount is the filler amount shown for a past day with no
// recorded expenses. It depends only on the day of the month.
func PlaceholderAmount(day int) decimal.Decimal {
	return decimal.NewFromInt(int64(day)).Mul(placeholderUnitPrice)
}
