package kpi

import (
	"github.com/shopspring/decimal"
)

// QualityRate computes (units − defects − scrap) / units × 100.
// Zero units yields 0.
func QualityRate(units, defects, scrap int64) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	good := decimal.NewFromInt(units - defects - scrap)
	return round2(good.Div(decimal.NewFromInt(units)).Mul(hundred))
}

// PPM computes (defects / units) × 1,000,000. Zero units yields 0.
func PPM(defects, units int64) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	return round2(decimal.NewFromInt(defects).Div(decimal.NewFromInt(units)).Mul(million))
}

// DPMO computes (defects / (units × opportunities_per_unit)) × 1,000,000.
// An undeclared opportunities count defaults to 1, making DPMO degrade to
// PPM. Zero units yields 0.
func DPMO(defects, units int64, opportunitiesPerUnit int) decimal.Decimal {
	if opportunitiesPerUnit <= 0 {
		opportunitiesPerUnit = 1
	}
	denom := units * int64(opportunitiesPerUnit)
	if denom <= 0 {
		return decimal.Zero
	}
	return round2(decimal.NewFromInt(defects).Div(decimal.NewFromInt(denom)).Mul(million))
}

// FPY computes (units passed without rework or repair / units processed)
// × 100. First-pass counts are tracked explicitly; they are not derivable
// from defect counts alone. Zero processed yields 0.
func FPY(firstPass, processed int64) decimal.Decimal {
	if processed <= 0 {
		return decimal.Zero
	}
	return round2(decimal.NewFromInt(firstPass).Div(decimal.NewFromInt(processed)).Mul(hundred))
}

// StageYield is one production stage's first-pass result set, ordered by
// stage sequence.
type StageYield struct {
	Stage     string
	FirstPass int64
	Processed int64
}

// RTY computes rolled throughput yield as the product of per-stage FPY
// values. It is undefined (ok=false) when any stage has zero throughput,
// rather than collapsing to 0%. With no stage data at all it is also
// undefined; callers fall back to RTYFromOrder.
func RTY(stages []StageYield) (decimal.Decimal, bool) {
	if len(stages) == 0 {
		return decimal.Zero, false
	}
	yield := decimal.NewFromInt(1)
	for _, s := range stages {
		if s.Processed <= 0 {
			return decimal.Zero, false
		}
		yield = yield.Mul(decimal.NewFromInt(s.FirstPass).Div(decimal.NewFromInt(s.Processed)))
	}
	return round2(yield.Mul(hundred)), true
}

// RTYFromOrder is the job-granularity fallback when stage data is
// unavailable: completed over ordered. Undefined when nothing was ordered.
func RTYFromOrder(completed, ordered int64) (decimal.Decimal, bool) {
	if ordered <= 0 {
		return decimal.Zero, false
	}
	return round2(decimal.NewFromInt(completed).Div(decimal.NewFromInt(ordered)).Mul(hundred)), true
}
