package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FactKey identifies a fact the inference resolver can estimate.
type FactKey string

const (
	FactIdealCycleTime FactKey = "ideal_cycle_time"
	FactEmployeeCount  FactKey = "employee_count"
	FactPromisedDate   FactKey = "promised_date"
)

// InferenceLevel is the position in a fallback chain that produced a value.
// Lower levels are more trustworthy; confidence strictly decreases as the
// level number increases.
type InferenceLevel int

const (
	// LevelExplicit is a value declared on the governing entity.
	LevelExplicit InferenceLevel = 1
	// LevelGroupStandard is a shift/line-configured standard.
	LevelGroupStandard InferenceLevel = 2
	// LevelIndustryDefault is a domain defaults-table lookup.
	LevelIndustryDefault InferenceLevel = 3
	// LevelHistoricalAverage is a rolling average over the tenant's own history.
	LevelHistoricalAverage InferenceLevel = 4
	// LevelGlobalDefault is a cross-tenant average or hard-coded terminal default.
	LevelGlobalDefault InferenceLevel = 5
)

// Confidence maps a level to its fixed confidence score.
func (l InferenceLevel) Confidence() float64 {
	switch l {
	case LevelExplicit:
		return 1.0
	case LevelGroupStandard:
		return 0.9
	case LevelIndustryDefault:
		return 0.7
	case LevelHistoricalAverage:
		return 0.6
	case LevelGlobalDefault:
		return 0.5
	}
	return 0
}

// InferenceResult is the transient outcome of resolving one fact. It is
// never persisted; only the flags and confidence derived from it are stored
// alongside recomputed KPI fields.
type InferenceResult struct {
	FactKey    FactKey
	Value      decimal.Decimal
	Date       time.Time // set for date-valued facts
	Confidence float64
	Level      InferenceLevel
	ResolvedAt time.Time
}

// WasInferred reports whether the value came from anywhere other than an
// explicitly supplied field.
func (r InferenceResult) WasInferred() bool {
	return r.Level != LevelExplicit
}
