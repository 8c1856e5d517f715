package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend labels the movement of a metric between two periods.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// DefaultTrendDeadbandPercent is the change threshold below which a metric
// is reported stable.
var DefaultTrendDeadbandPercent = decimal.NewFromInt(2)

// Summary is one KPI's dashboard cell: current and prior period values,
// relative change, trend label, and inference metadata rolled up from the
// constituent entries.
type Summary struct {
	Metric        Metric          `json:"metric"`
	Current       decimal.Decimal `json:"current_value"`
	Previous      decimal.Decimal `json:"previous_value"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Trend         Trend           `json:"trend"`
	Defined       bool            `json:"defined"`
	WasInferred   bool            `json:"was_inferred"`
	Confidence    *float64        `json:"confidence_score,omitempty"`
}

// SeriesPoint is one daily point of a trend chart, tagged with whether any
// constituent entry used inference.
type SeriesPoint struct {
	Date        time.Time       `json:"date"`
	Value       decimal.Decimal `json:"value"`
	IsEstimated bool            `json:"is_estimated"`
}

// Summarize rolls a current- and prior-period value into a Summary. The
// trend label compares the percent change against the deadband, oriented by
// the metric's improvement direction. A zero prior value with a nonzero
// current one reports a 100% change in the direction of the movement.
func Summarize(current, previous Value, deadbandPercent decimal.Decimal) Summary {
	s := Summary{
		Metric:      current.Metric,
		Current:     current.Value,
		Previous:    previous.Value,
		Defined:     current.Defined,
		WasInferred: current.WasInferred || previous.WasInferred,
	}
	s.Confidence = mergeConfidence(current, previous)

	if !current.Defined || !previous.Defined {
		s.Trend = TrendStable
		return s
	}

	switch {
	case previous.Value.IsZero() && current.Value.IsZero():
		s.ChangePercent = decimal.Zero
	case previous.Value.IsZero():
		s.ChangePercent = hundred
		if current.Value.IsNegative() {
			s.ChangePercent = hundred.Neg()
		}
	default:
		s.ChangePercent = round2(current.Value.Sub(previous.Value).Div(previous.Value.Abs()).Mul(hundred))
	}

	if !deadbandPercent.IsPositive() {
		deadbandPercent = DefaultTrendDeadbandPercent
	}

	switch {
	case s.ChangePercent.Abs().LessThanOrEqual(deadbandPercent):
		s.Trend = TrendStable
	case s.ChangePercent.IsPositive() == current.Metric.HigherIsBetter():
		s.Trend = TrendImproving
	default:
		s.Trend = TrendDeclining
	}
	return s
}

// mergeConfidence takes the lowest confidence among inferred inputs, or nil
// when neither period used inference.
func mergeConfidence(current, previous Value) *float64 {
	var merged *float64
	for _, v := range []Value{current, previous} {
		if !v.WasInferred || v.Confidence == nil {
			continue
		}
		if merged == nil || *v.Confidence < *merged {
			c := *v.Confidence
			merged = &c
		}
	}
	return merged
}
