package inference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// fixtureHistory is a configurable in-memory HistoryStore.
type fixtureHistory struct {
	cycleAvg       decimal.Decimal
	cycleCount     int
	cycleErr       error
	globalAvg      decimal.Decimal
	globalCount    int
	globalErr      error
	employeeAvg    decimal.Decimal
	employeeCount  int
	employeeErr    error
	presentCount   int
	presentErr     error
	capturedN      int
	capturedExclID uuid.UUID
}

func (f *fixtureHistory) TrailingCycleTimeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	f.capturedN = n
	f.capturedExclID = excludeEntryID
	return f.cycleAvg, f.cycleCount, f.cycleErr
}

func (f *fixtureHistory) GlobalCycleTimeAvg(ctx context.Context, family string) (decimal.Decimal, int, error) {
	return f.globalAvg, f.globalCount, f.globalErr
}

func (f *fixtureHistory) TrailingEmployeeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	return f.employeeAvg, f.employeeCount, f.employeeErr
}

func (f *fixtureHistory) PresentCount(ctx context.Context, tenantID, shiftID uuid.UUID, date time.Time) (int, error) {
	return f.presentCount, f.presentErr
}

func testResolver(history HistoryStore) *Resolver {
	return NewResolver(history, BuiltinDefaults(), zap.NewNop())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestInferCycleTime_Chain(t *testing.T) {
	ctx := context.Background()

	t.Run("level 1 declared value wins", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{DeclaredCycleTime: decPtr("0.25")})
		require.NoError(t, err)
		assert.Equal(t, models.LevelExplicit, res.Level)
		assert.Equal(t, 1.0, res.Confidence)
		assert.True(t, res.Value.Equal(dec("0.25")))
		assert.False(t, res.WasInferred())
	})

	t.Run("level 2 shift standard", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{ShiftStandard: decPtr("0.40")})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGroupStandard, res.Level)
		assert.Equal(t, 0.9, res.Confidence)
		assert.True(t, res.WasInferred())
	})

	t.Run("level 3 industry default by family", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{ProductFamily: "machining"})
		require.NoError(t, err)
		assert.Equal(t, models.LevelIndustryDefault, res.Level)
		assert.Equal(t, 0.7, res.Confidence)
		assert.True(t, res.Value.Equal(dec("0.5")))
	})

	t.Run("level 4 trailing tenant average", func(t *testing.T) {
		history := &fixtureHistory{cycleAvg: dec("0.20"), cycleCount: 10}
		r := testResolver(history)
		exclude := uuid.New()
		res, err := r.InferCycleTime(ctx, CycleTimeInput{
			ProductFamily:  "unknown-family",
			ExcludeEntryID: exclude,
		})
		require.NoError(t, err)
		assert.Equal(t, models.LevelHistoricalAverage, res.Level)
		assert.Equal(t, 0.6, res.Confidence)
		assert.True(t, res.Value.Equal(dec("0.20")))
		assert.Equal(t, TrailingEntries, history.capturedN)
		assert.Equal(t, exclude, history.capturedExclID, "history scan must exclude the entry being computed")
	})

	t.Run("level 5 global average", func(t *testing.T) {
		r := testResolver(&fixtureHistory{globalAvg: dec("0.33"), globalCount: 42})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{ProductFamily: "unknown-family"})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGlobalDefault, res.Level)
		assert.Equal(t, 0.5, res.Confidence)
		assert.True(t, res.Value.Equal(dec("0.33")))
	})

	t.Run("level 5 terminal default when no history anywhere", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{ProductFamily: "unknown-family"})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGlobalDefault, res.Level)
		assert.True(t, res.Value.Equal(dec("0.30")))
	})

	t.Run("history scan failure degrades to later level", func(t *testing.T) {
		r := testResolver(&fixtureHistory{
			cycleErr:    errors.New("scan failed"),
			globalAvg:   dec("0.15"),
			globalCount: 3,
		})
		res, err := r.InferCycleTime(ctx, CycleTimeInput{ProductFamily: "unknown-family"})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGlobalDefault, res.Level)
		assert.True(t, res.Value.Equal(dec("0.15")))
	})
}

// Given identical context, the resolver must return the same triple.
func TestInferCycleTime_Deterministic(t *testing.T) {
	ctx := context.Background()
	history := &fixtureHistory{cycleAvg: dec("0.20"), cycleCount: 5}
	r := testResolver(history)
	in := CycleTimeInput{ProductFamily: "unknown-family", TenantID: uuid.New(), ProductID: uuid.New()}

	first, err := r.InferCycleTime(ctx, in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.InferCycleTime(ctx, in)
		require.NoError(t, err)
		assert.True(t, first.Value.Equal(again.Value))
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Level, again.Level)
	}
}

// Confidence must strictly decrease as the resolved level number increases.
func TestConfidenceStrictlyDecreasing(t *testing.T) {
	levels := []models.InferenceLevel{
		models.LevelExplicit,
		models.LevelGroupStandard,
		models.LevelIndustryDefault,
		models.LevelHistoricalAverage,
		models.LevelGlobalDefault,
	}
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i-1].Confidence(), levels[i].Confidence(),
			"confidence at level %d must exceed level %d", levels[i-1], levels[i])
	}
}

func TestInferEmployeeCount_Chain(t *testing.T) {
	ctx := context.Background()

	t.Run("assigned value wins", func(t *testing.T) {
		assigned := 3
		r := testResolver(&fixtureHistory{presentCount: 7})
		res, err := r.InferEmployeeCount(ctx, EmployeeCountInput{Assigned: &assigned})
		require.NoError(t, err)
		assert.Equal(t, models.LevelExplicit, res.Level)
		assert.True(t, res.Value.Equal(dec("3")))
		assert.False(t, res.WasInferred())
	})

	t.Run("attendance-derived present count", func(t *testing.T) {
		r := testResolver(&fixtureHistory{presentCount: 5})
		res, err := r.InferEmployeeCount(ctx, EmployeeCountInput{})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGroupStandard, res.Level)
		assert.Equal(t, 0.9, res.Confidence)
		assert.True(t, res.Value.Equal(dec("5")))
	})

	t.Run("historical average", func(t *testing.T) {
		r := testResolver(&fixtureHistory{employeeAvg: dec("3.5"), employeeCount: 8})
		res, err := r.InferEmployeeCount(ctx, EmployeeCountInput{})
		require.NoError(t, err)
		assert.Equal(t, models.LevelHistoricalAverage, res.Level)
		assert.True(t, res.Value.Equal(dec("3.5")))
	})

	t.Run("fixed default terminates", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		res, err := r.InferEmployeeCount(ctx, EmployeeCountInput{})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGlobalDefault, res.Level)
		assert.True(t, res.Value.Equal(dec("4")))
	})

	t.Run("zero assigned treated as unsupplied", func(t *testing.T) {
		assigned := 0
		r := testResolver(&fixtureHistory{presentCount: 2})
		res, err := r.InferEmployeeCount(ctx, EmployeeCountInput{Assigned: &assigned})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGroupStandard, res.Level)
	})
}

func TestInferPromisedDate_Chain(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("planned ship date wins", func(t *testing.T) {
		planned := start.AddDate(0, 0, 14)
		r := testResolver(&fixtureHistory{})
		res, err := r.InferPromisedDate(ctx, PromisedDateInput{StartDate: start, PlannedShipDate: &planned})
		require.NoError(t, err)
		assert.Equal(t, models.LevelExplicit, res.Level)
		assert.Equal(t, planned, res.Date)
		assert.False(t, res.WasInferred())
	})

	t.Run("contractual required date is second", func(t *testing.T) {
		contract := start.AddDate(0, 0, 21)
		r := testResolver(&fixtureHistory{})
		res, err := r.InferPromisedDate(ctx, PromisedDateInput{StartDate: start, ContractRequiredDate: &contract})
		require.NoError(t, err)
		assert.Equal(t, models.LevelGroupStandard, res.Level)
		assert.Equal(t, 0.9, res.Confidence)
	})

	t.Run("computed from cycle time and shift capacity", func(t *testing.T) {
		r := testResolver(&fixtureHistory{})
		// 400 units x 0.25h declared cycle time = 100h; 8h shift -> 13 days.
		res, err := r.InferPromisedDate(ctx, PromisedDateInput{
			StartDate:         start,
			Units:             400,
			DeclaredCycleTime: decPtr("0.25"),
			ShiftHours:        dec("8"),
		})
		require.NoError(t, err)
		assert.Equal(t, models.LevelIndustryDefault, res.Level)
		assert.Equal(t, start.AddDate(0, 0, 13), res.Date)
		assert.Equal(t, 0.7, res.Confidence)
		assert.True(t, res.WasInferred())
	})

	t.Run("computed confidence never exceeds its cycle time source", func(t *testing.T) {
		// Cycle time comes from the terminal default (0.5); the computed
		// date cannot claim 0.7.
		r := testResolver(&fixtureHistory{})
		res, err := r.InferPromisedDate(ctx, PromisedDateInput{
			StartDate:     start,
			Units:         100,
			ProductFamily: "unknown-family",
		})
		require.NoError(t, err)
		assert.Equal(t, 0.5, res.Confidence)
	})
}

func TestLoadDefaults_Validation(t *testing.T) {
	t.Run("builtin table is well formed", func(t *testing.T) {
		d := BuiltinDefaults()
		require.NotNil(t, d)
		assert.True(t, d.FallbackCycleTime().IsPositive())
		assert.Positive(t, d.DefaultEmployees())
		ct, ok := d.CycleTimeForFamily("assembly")
		assert.True(t, ok)
		assert.True(t, ct.IsPositive())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDefaults("/nonexistent/defaults.yaml")
		assert.Error(t, err)
	})
}
