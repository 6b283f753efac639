package services

import (
	"github.com/shopspring/decimal"

	"github.com/retromusic/storefront/app/models"
)

// Totals is the money summary of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineSubtotal is unit price times quantity, rounded to cents.
func LineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return models.Money(unit.Mul(decimal.NewFromInt(int64(qty))))
}

// ComputeTotals sums line subtotals and applies rate half-up to cents.
func ComputeTotals(lines []models.OrderLine, rate decimal.Decimal) Totals {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal)
	}
	subtotal := models.Money(sum)
	tax := models.Money(subtotal.Mul(rate))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    models.Money(subtotal.Add(tax)),
	}
}
