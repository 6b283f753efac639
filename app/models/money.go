package models

import "github.com/shopspring/decimal"

func init() {
	// Prices, subtotals and totals are JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money rounds d half-up to two decimal places.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
