// Package kpi implements the metric calculators and the aggregation layer.
// Calculators are stateless pure functions over validated inputs; they never
// raise on zero denominators and report anomalous magnitudes through fixed
// caps instead of propagating absurd values. All percentage results use
// fixed-point decimal arithmetic rounded to two places.
package kpi

import (
	"github.com/shopspring/decimal"
)

// Metric identifies one of the standardized manufacturing KPIs.
type Metric string

const (
	MetricEfficiency   Metric = "efficiency"
	MetricPerformance  Metric = "performance"
	MetricQualityRate  Metric = "quality_rate"
	MetricAvailability Metric = "availability"
	MetricOEE          Metric = "oee"
	MetricPPM          Metric = "ppm"
	MetricDPMO         Metric = "dpmo"
	MetricFPY          Metric = "fpy"
	MetricRTY          Metric = "rty"
	MetricOTD          Metric = "otd"
	MetricTrueOTD      Metric = "true_otd"
	MetricAbsenteeism  Metric = "absenteeism"
	MetricBradford     Metric = "bradford_factor"
	MetricWIPAging     Metric = "wip_aging"
)

// AllMetrics lists every metric in dashboard order.
func AllMetrics() []Metric {
	return []Metric{
		MetricEfficiency, MetricPerformance, MetricQualityRate,
		MetricAvailability, MetricOEE, MetricPPM, MetricDPMO,
		MetricFPY, MetricRTY, MetricOTD, MetricTrueOTD,
		MetricAbsenteeism, MetricBradford, MetricWIPAging,
	}
}

// HigherIsBetter reports the improvement direction of a metric. PPM, DPMO,
// absenteeism, and WIP aging improve downward; everything else upward.
func (m Metric) HigherIsBetter() bool {
	switch m {
	case MetricPPM, MetricDPMO, MetricAbsenteeism, MetricBradford, MetricWIPAging:
		return false
	}
	return true
}

// Value is a computed KPI value with inference metadata. Defined is false
// only for metrics whose formula is undefined for the inputs (RTY with a
// zero-throughput stage); everything else follows the zero-denominator →
// zero policy. Confidence is non-nil whenever WasInferred is true.
type Value struct {
	Metric      Metric           `json:"metric"`
	Value       decimal.Decimal  `json:"value"`
	Defined     bool             `json:"defined"`
	WasInferred bool             `json:"was_inferred"`
	Confidence  *float64         `json:"confidence_score,omitempty"`
}

// NewValue wraps a plain computed value with no inference involvement.
func NewValue(metric Metric, v decimal.Decimal) Value {
	return Value{Metric: metric, Value: v, Defined: true}
}

// NewInferredValue wraps a computed value that consumed inferred inputs.
func NewInferredValue(metric Metric, v decimal.Decimal, confidence float64) Value {
	c := confidence
	return Value{Metric: metric, Value: v, Defined: true, WasInferred: true, Confidence: &c}
}

// Undefined returns the undefined value for a metric.
func Undefined(metric Metric) Value {
	return Value{Metric: metric}
}

// percentPlaces is the fixed rounding for reported dashboard values.
const percentPlaces = 2

// EfficiencyCapPercent bounds Efficiency and Performance. Results above the
// cap flag a data anomaly; the cap is reported instead of the raw value.
var EfficiencyCapPercent = decimal.NewFromInt(150)

var (
	hundred     = decimal.NewFromInt(100)
	million     = decimal.NewFromInt(1_000_000)
	tenThousand = decimal.NewFromInt(10_000)
)

func round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(percentPlaces)
}

// cappedPercent rounds and applies the anomaly cap.
func cappedPercent(v decimal.Decimal) decimal.Decimal {
	r := round2(v)
	if r.GreaterThan(EfficiencyCapPercent) {
		return EfficiencyCapPercent
	}
	return r
}
