// Package inference implements the multi-level fallback chains that
// estimate missing KPI inputs. Each chain is evaluated in fixed priority
// order; the first level that produces a value wins and carries that level's
// confidence score. Level 5 is a guaranteed terminal default, so resolution
// never fails for missing data.
package inference

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// TrailingEntries is the rolling-average window, in entries, for cycle-time
// and employee-count history lookups.
const TrailingEntries = 10

// HistoryStore supplies the read-only historical scans the chains consult.
// Scans must exclude the entry currently being computed (self-reference) via
// an explicit exclusion predicate in the query, not post-hoc filtering.
type HistoryStore interface {
	// TrailingCycleTimeAvg averages effective cycle time (run hours / units)
	// over the trailing n entries for tenant+product, excluding excludeEntryID.
	// The int result is the number of entries that contributed.
	TrailingCycleTimeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error)
	// GlobalCycleTimeAvg averages effective cycle time across all tenants for
	// a product family. Aggregate only; no row-level data crosses tenants.
	GlobalCycleTimeAvg(ctx context.Context, family string) (decimal.Decimal, int, error)
	// TrailingEmployeeAvg averages employees assigned over the trailing n
	// entries for tenant+product, excluding excludeEntryID.
	TrailingEmployeeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error)
	// PresentCount counts employees recorded present for a shift on a date.
	PresentCount(ctx context.Context, tenantID, shiftID uuid.UUID, date time.Time) (int, error)
}

// Resolver evaluates the inference chains. It holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	history  HistoryStore
	defaults *IndustryDefaults
	logger   *zap.Logger
}

// NewResolver creates a resolver over the given history store and defaults
// table.
func NewResolver(history HistoryStore, defaults *IndustryDefaults, logger *zap.Logger) *Resolver {
	if defaults == nil {
		defaults = BuiltinDefaults()
	}
	return &Resolver{history: history, defaults: defaults, logger: logger}
}

// CycleTimeInput is the context for an ideal-cycle-time resolution.
type CycleTimeInput struct {
	TenantID      uuid.UUID
	ProductID     uuid.UUID
	ProductFamily string
	// DeclaredCycleTime is the product's declared ideal cycle time (level 1).
	DeclaredCycleTime *decimal.Decimal
	// ShiftStandard is the shift/line-configured standard for this product
	// (level 2).
	ShiftStandard *decimal.Decimal
	// ExcludeEntryID is the entry being computed, excluded from history
	// scans to avoid self-reference.
	ExcludeEntryID uuid.UUID
}

// InferCycleTime resolves ideal cycle time in hours per unit.
//
// Chain: declared value (1) → shift standard (2) → industry default for the
// product family (3) → trailing-10 tenant history (4) → global average or
// hard-coded fallback (5).
func (r *Resolver) InferCycleTime(ctx context.Context, in CycleTimeInput) (models.InferenceResult, error) {
	if in.DeclaredCycleTime != nil && in.DeclaredCycleTime.IsPositive() {
		return r.result(models.FactIdealCycleTime, *in.DeclaredCycleTime, models.LevelExplicit), nil
	}
	if in.ShiftStandard != nil && in.ShiftStandard.IsPositive() {
		return r.result(models.FactIdealCycleTime, *in.ShiftStandard, models.LevelGroupStandard), nil
	}
	if ct, ok := r.defaults.CycleTimeForFamily(in.ProductFamily); ok {
		return r.result(models.FactIdealCycleTime, ct, models.LevelIndustryDefault), nil
	}

	avg, n, err := r.history.TrailingCycleTimeAvg(ctx, in.TenantID, in.ProductID, in.ExcludeEntryID, TrailingEntries)
	if err != nil {
		if ctx.Err() != nil {
			return models.InferenceResult{}, ctx.Err()
		}
		r.logger.Warn("cycle time history scan failed, continuing chain",
			zap.String("tenant_id", in.TenantID.String()),
			zap.String("product_id", in.ProductID.String()),
			zap.Error(err))
	} else if n > 0 && avg.IsPositive() {
		return r.result(models.FactIdealCycleTime, avg, models.LevelHistoricalAverage), nil
	}

	global, n, err := r.history.GlobalCycleTimeAvg(ctx, in.ProductFamily)
	if err != nil {
		if ctx.Err() != nil {
			return models.InferenceResult{}, ctx.Err()
		}
		r.logger.Warn("global cycle time scan failed, using terminal default",
			zap.String("product_family", in.ProductFamily),
			zap.Error(err))
	} else if n > 0 && global.IsPositive() {
		return r.result(models.FactIdealCycleTime, global, models.LevelGlobalDefault), nil
	}

	return r.result(models.FactIdealCycleTime, r.defaults.FallbackCycleTime(), models.LevelGlobalDefault), nil
}

// EmployeeCountInput is the context for an employee-count resolution.
type EmployeeCountInput struct {
	TenantID  uuid.UUID
	ProductID uuid.UUID
	ShiftID   uuid.UUID
	Date      time.Time
	// Assigned is the operator-entered headcount (level 1); nil or
	// non-positive means unsupplied.
	Assigned       *int
	ExcludeEntryID uuid.UUID
}

// InferEmployeeCount resolves the headcount for an entry.
//
// Chain: assigned value (1) → attendance-derived present count (2) →
// trailing-10 historical average (4) → fixed default (5).
func (r *Resolver) InferEmployeeCount(ctx context.Context, in EmployeeCountInput) (models.InferenceResult, error) {
	if in.Assigned != nil && *in.Assigned > 0 {
		return r.result(models.FactEmployeeCount, decimal.NewFromInt(int64(*in.Assigned)), models.LevelExplicit), nil
	}

	present, err := r.history.PresentCount(ctx, in.TenantID, in.ShiftID, in.Date)
	if err != nil {
		if ctx.Err() != nil {
			return models.InferenceResult{}, ctx.Err()
		}
		r.logger.Warn("attendance present-count scan failed, continuing chain",
			zap.String("tenant_id", in.TenantID.String()),
			zap.String("shift_id", in.ShiftID.String()),
			zap.Error(err))
	} else if present > 0 {
		return r.result(models.FactEmployeeCount, decimal.NewFromInt(int64(present)), models.LevelGroupStandard), nil
	}

	avg, n, err := r.history.TrailingEmployeeAvg(ctx, in.TenantID, in.ProductID, in.ExcludeEntryID, TrailingEntries)
	if err != nil {
		if ctx.Err() != nil {
			return models.InferenceResult{}, ctx.Err()
		}
		r.logger.Warn("employee history scan failed, using terminal default",
			zap.String("tenant_id", in.TenantID.String()),
			zap.Error(err))
	} else if n > 0 && avg.IsPositive() {
		return r.result(models.FactEmployeeCount, avg, models.LevelHistoricalAverage), nil
	}

	return r.result(models.FactEmployeeCount, decimal.NewFromInt(int64(r.defaults.DefaultEmployees())), models.LevelGlobalDefault), nil
}

// PromisedDateInput is the context for a promised-ship-date resolution.
type PromisedDateInput struct {
	TenantID      uuid.UUID
	ProductID     uuid.UUID
	ProductFamily string
	Units         int64
	StartDate     time.Time
	// PlannedShipDate is the order's planned ship date (level 1).
	PlannedShipDate *time.Time
	// ContractRequiredDate is the contractual required date (level 2).
	ContractRequiredDate *time.Time
	// Cycle-time sources for the computed fallback.
	DeclaredCycleTime *decimal.Decimal
	ShiftStandard     *decimal.Decimal
	// ShiftHours is the shift capacity in hours per day; zero means use the
	// defaults-table shift hours.
	ShiftHours     decimal.Decimal
	ExcludeEntryID uuid.UUID
}

// InferPromisedDate resolves the promised ship date for an order.
//
// Chain: planned ship date (1) → contractual required date (2) → start date
// plus ceil(units × inferred cycle time / shift capacity) days (3). The
// computed level inherits the lower of its own confidence and the cycle-time
// inference's confidence, since it builds on that estimate.
func (r *Resolver) InferPromisedDate(ctx context.Context, in PromisedDateInput) (models.InferenceResult, error) {
	if in.PlannedShipDate != nil && !in.PlannedShipDate.IsZero() {
		return r.dateResult(*in.PlannedShipDate, models.LevelExplicit, models.LevelExplicit.Confidence()), nil
	}
	if in.ContractRequiredDate != nil && !in.ContractRequiredDate.IsZero() {
		return r.dateResult(*in.ContractRequiredDate, models.LevelGroupStandard, models.LevelGroupStandard.Confidence()), nil
	}

	ct, err := r.InferCycleTime(ctx, CycleTimeInput{
		TenantID:          in.TenantID,
		ProductID:         in.ProductID,
		ProductFamily:     in.ProductFamily,
		DeclaredCycleTime: in.DeclaredCycleTime,
		ShiftStandard:     in.ShiftStandard,
		ExcludeEntryID:    in.ExcludeEntryID,
	})
	if err != nil {
		return models.InferenceResult{}, fmt.Errorf("failed to infer cycle time for promised date: %w", err)
	}

	capacity := in.ShiftHours
	if !capacity.IsPositive() {
		capacity = r.defaults.DefaultShiftHours()
	}

	totalHours := ct.Value.Mul(decimal.NewFromInt(in.Units))
	days := totalHours.Div(capacity).Ceil().IntPart()
	if days < 1 {
		days = 1
	}

	confidence := models.LevelIndustryDefault.Confidence()
	if ct.Confidence < confidence {
		confidence = ct.Confidence
	}
	return r.dateResult(in.StartDate.AddDate(0, 0, int(days)), models.LevelIndustryDefault, confidence), nil
}

func (r *Resolver) result(key models.FactKey, value decimal.Decimal, level models.InferenceLevel) models.InferenceResult {
	return models.InferenceResult{
		FactKey:    key,
		Value:      value,
		Confidence: level.Confidence(),
		Level:      level,
		ResolvedAt: time.Now().UTC(),
	}
}

func (r *Resolver) dateResult(date time.Time, level models.InferenceLevel, confidence float64) models.InferenceResult {
	return models.InferenceResult{
		FactKey:    models.FactPromisedDate,
		Date:       date,
		Confidence: confidence,
		Level:      level,
		ResolvedAt: time.Now().UTC(),
	}
}
