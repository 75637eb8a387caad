package pricing

import "math"

// TaxRate is the fixed profit tax deducted from every pre-tax profit.
const TaxRate = 0.30

// Bulk orders above this quantity earn a flat discount on revenue.
const (
	BulkQuantityThreshold = 10
	BulkDiscountRate      = 0.10
)

// BulkDiscount returns the discount to subtract from the given gross
// revenue. The discount applies only when quantity is strictly above the
// threshold; quantity = 10 pays full price.
func BulkDiscount(quantity int, grossCents int64) int64 {
	if quantity <= BulkQuantityThreshold {
		return 0
	}
	return int64(math.Round(float64(grossCents) * BulkDiscountRate))
}

// ProfitAfterTax returns revenue minus cost with the profit tax removed.
func ProfitAfterTax(revenueCents int64, costCents int64) int64 {
	before := revenueCents - costCents
	tax := int64(math.Round(float64(before) * TaxRate))
	return before - tax
}
