package kpi

import (
	"github.com/shopspring/decimal"
)

// Efficiency computes (units × ideal_cycle_time) / (employees ×
// scheduled_hours) × 100 against scheduled labor time. Zero denominator
// yields 0; results above the cap report the cap.
//
// employees is decimal because an inferred headcount can be a historical
// average.
func Efficiency(units int64, idealCycleTime, employees, scheduledHours decimal.Decimal) decimal.Decimal {
	denom := employees.Mul(scheduledHours)
	if !denom.IsPositive() {
		return decimal.Zero
	}
	earned := decimal.NewFromInt(units).Mul(idealCycleTime)
	return cappedPercent(earned.Div(denom).Mul(hundred))
}

// Performance computes (ideal_cycle_time × units) / run_time_hours × 100
// against actual run time, which is what distinguishes it from Efficiency.
// Same zero-denominator and cap policy.
func Performance(units int64, idealCycleTime, runTimeHours decimal.Decimal) decimal.Decimal {
	if !runTimeHours.IsPositive() {
		return decimal.Zero
	}
	earned := idealCycleTime.Mul(decimal.NewFromInt(units))
	return cappedPercent(earned.Div(runTimeHours).Mul(hundred))
}
