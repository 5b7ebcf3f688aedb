// Package pricing derives cart and order totals. Totals are always computed
// from lines and never stored as the source of truth.
package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Config struct {
	TaxRate     decimal.Decimal
	DeliveryFee decimal.Decimal
	// FreeDeliveryThreshold waives the delivery fee when the subtotal reaches
	// it. Zero disables the waiver.
	FreeDeliveryThreshold decimal.Decimal
}

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Tip         decimal.Decimal `json:"tip"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Compute prices lines. An empty set of lines yields all-zero totals.
func (c *Calculator) Compute(lines []Line, tip decimal.Decimal) Totals {
	if len(lines) == 0 {
		return Totals{
			Subtotal:    decimal.Zero,
			Tax:         decimal.Zero,
			DeliveryFee: decimal.Zero,
			Tip:         decimal.Zero,
			Total:       decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		count += l.Quantity
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(c.cfg.TaxRate).Round(2)

	fee := c.cfg.DeliveryFee.Round(2)
	if c.cfg.FreeDeliveryThreshold.IsPositive() && subtotal.GreaterThanOrEqual(c.cfg.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}

	tip = tip.Round(2)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: fee,
		Tip:         tip,
		Total:       subtotal.Add(tax).Add(fee).Add(tip),
		ItemCount:   count,
	}
}

// ValidPrice reports whether d is positive with at most two decimals.
func ValidPrice(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2))
}

// ValidTip reports whether d is a non-negative amount with at most two decimals.
func ValidTip(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(2))
}

// Cents converts an amount to the smallest currency unit.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}
