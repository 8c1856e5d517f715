package kpi

import (
	"github.com/shopspring/decimal"
)

// Availability computes (1 − downtime_hours / planned_available_hours)
// × 100. Zero planned hours yields 0; negative results (downtime exceeding
// planned time, a data anomaly) clamp to 0.
func Availability(downtimeHours, plannedAvailableHours decimal.Decimal) decimal.Decimal {
	if !plannedAvailableHours.IsPositive() {
		return decimal.Zero
	}
	avail := decimal.NewFromInt(1).Sub(downtimeHours.Div(plannedAvailableHours))
	if avail.IsNegative() {
		return decimal.Zero
	}
	return round2(avail.Mul(hundred))
}

// OEE composes Availability × Performance × Quality. Inputs are the three
// factor percentages; they are multiplied as fractions and rescaled to a
// percentage, so each factor's own edge policy (zero, cap, clamp) propagates
// through unchanged.
func OEE(availabilityPct, performancePct, qualityPct decimal.Decimal) decimal.Decimal {
	product := availabilityPct.Mul(performancePct).Mul(qualityPct)
	return round2(product.Div(tenThousand))
}
