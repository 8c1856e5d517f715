package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/inference"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/kpi"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/repositories"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// Snapshot is the full dashboard payload for one reporting period: every
// metric's current value, prior-period value, change, and trend.
type Snapshot struct {
	From      time.Time     `json:"from"`
	To        time.Time     `json:"to"`
	Summaries []kpi.Summary `json:"summaries"`
}

// GroupSummary is one group's row in a dashboard breakdown: the entry-level
// metrics recomputed over just that group's production entries.
type GroupSummary struct {
	Key    uuid.UUID   `json:"key"`
	Label  string      `json:"label"`
	Values []kpi.Value `json:"values"`
}

// Breakdown dimensions.
const (
	BreakdownByShift   = "shift"
	BreakdownByProduct = "product"
)

// DashboardService computes the aggregated KPI views. All reads compose the
// caller's tenancy predicate; aggregation runs over whatever survives the
// filter and the integrity checks.
type DashboardService interface {
	// Snapshot compares [from, to] against the equal-length period
	// immediately before it.
	Snapshot(ctx context.Context, from, to time.Time) (*Snapshot, error)
	// Series returns one daily point per day of [from, to] for a metric.
	Series(ctx context.Context, metric kpi.Metric, from, to time.Time) ([]kpi.SeriesPoint, error)
	// Breakdown splits the entry-level metrics over one grouping
	// dimension, BreakdownByShift or BreakdownByProduct.
	Breakdown(ctx context.Context, dimension string, from, to time.Time) ([]GroupSummary, error)
}

type dashboardService struct {
	entries    repositories.ProductionEntryRepository
	downtime   repositories.DowntimeRepository
	attendance repositories.AttendanceRepository
	quality    repositories.QualityRepository
	orders     repositories.WorkOrderRepository
	products   repositories.ProductRepository
	shifts     repositories.ShiftRepository
	resolver   *inference.Resolver
	deadband   decimal.Decimal
	logger     *zap.Logger
	now        func() time.Time
}

// NewDashboardService creates a dashboard service. deadbandPercent controls
// the stable band of trend labels; non-positive values use the default.
func NewDashboardService(
	entries repositories.ProductionEntryRepository,
	downtime repositories.DowntimeRepository,
	attendance repositories.AttendanceRepository,
	quality repositories.QualityRepository,
	orders repositories.WorkOrderRepository,
	products repositories.ProductRepository,
	shifts repositories.ShiftRepository,
	resolver *inference.Resolver,
	deadbandPercent decimal.Decimal,
	logger *zap.Logger,
) DashboardService {
	return &dashboardService{
		entries:    entries,
		downtime:   downtime,
		attendance: attendance,
		quality:    quality,
		orders:     orders,
		products:   products,
		shifts:     shifts,
		resolver:   resolver,
		deadband:   deadbandPercent,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *dashboardService) Snapshot(ctx context.Context, from, to time.Time) (*Snapshot, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}

	current, err := s.periodValues(ctx, pred, from, to)
	if err != nil {
		return nil, err
	}

	// Prior period of equal length, ending where this one starts.
	length := to.Sub(from)
	previous, err := s.periodValues(ctx, pred, from.Add(-length), from)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{From: from, To: to}
	for _, metric := range kpi.AllMetrics() {
		snapshot.Summaries = append(snapshot.Summaries,
			kpi.Summarize(current[metric], previous[metric], s.deadband))
	}
	return snapshot, nil
}

func (s *dashboardService) Series(ctx context.Context, metric kpi.Metric, from, to time.Time) ([]kpi.SeriesPoint, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}

	var points []kpi.SeriesPoint
	for day := dayOf(from); !day.After(dayOf(to)); day = day.AddDate(0, 0, 1) {
		values, err := s.periodValues(ctx, pred, day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
		if err != nil {
			return nil, err
		}
		v := values[metric]
		points = append(points, kpi.SeriesPoint{
			Date:        day,
			Value:       v.Value,
			IsEstimated: v.WasInferred,
		})
	}
	return points, nil
}

func (s *dashboardService) Breakdown(ctx context.Context, dimension string, from, to time.Time) ([]GroupSummary, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := tenancy.ResolveFilter(caller)
	if err != nil {
		return nil, err
	}

	var keyFn func(*models.ProductionEntry) uuid.UUID
	switch dimension {
	case BreakdownByShift:
		keyFn = func(e *models.ProductionEntry) uuid.UUID { return e.ShiftID }
	case BreakdownByProduct:
		keyFn = func(e *models.ProductionEntry) uuid.UUID { return e.ProductID }
	default:
		return nil, fmt.Errorf("%w: unknown breakdown dimension %q", apperrors.ErrValidation, dimension)
	}

	entries, err := s.entries.ListRange(ctx, pred, from, to)
	if err != nil {
		return nil, err
	}

	groups := make(map[uuid.UUID][]*models.ProductionEntry)
	for _, e := range entries {
		key := keyFn(e)
		groups[key] = append(groups[key], e)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for key, groupEntries := range groups {
		values := make(map[kpi.Metric]kpi.Value)
		s.throughputValues(values, groupEntries)

		summary := GroupSummary{Key: key, Label: s.groupLabel(ctx, dimension, key)}
		for _, metric := range []kpi.Metric{kpi.MetricEfficiency, kpi.MetricPerformance, kpi.MetricQualityRate, kpi.MetricPPM} {
			summary.Values = append(summary.Values, values[metric])
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Label < summaries[j].Label })
	return summaries, nil
}

// groupLabel resolves a display name for a breakdown key. A lookup failure
// falls back to the raw id rather than failing the whole breakdown.
func (s *dashboardService) groupLabel(ctx context.Context, dimension string, key uuid.UUID) string {
	switch dimension {
	case BreakdownByShift:
		if shift, err := s.shifts.Get(ctx, key); err == nil {
			return shift.Name
		}
	case BreakdownByProduct:
		if product, err := s.products.Get(ctx, key); err == nil {
			return product.Code
		}
	}
	return key.String()
}

// periodValues computes every metric over one period. Metrics whose inputs
// are absent come back as zero values per the zero-denominator policy, with
// RTY the one metric allowed to be undefined.
func (s *dashboardService) periodValues(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) (map[kpi.Metric]kpi.Value, error) {
	values := make(map[kpi.Metric]kpi.Value, len(kpi.AllMetrics()))

	entries, err := s.entries.ListRange(ctx, pred, from, to)
	if err != nil {
		return nil, err
	}
	s.throughputValues(values, entries)

	products, err := s.productMap(ctx, pred)
	if err != nil {
		return nil, err
	}
	values[kpi.MetricDPMO] = dpmoValue(entries, products)

	availability, err := s.availabilityValue(ctx, pred, from, to)
	if err != nil {
		return nil, err
	}
	values[kpi.MetricAvailability] = availability
	values[kpi.MetricOEE] = kpi.NewValue(kpi.MetricOEE, kpi.OEE(
		values[kpi.MetricAvailability].Value,
		values[kpi.MetricPerformance].Value,
		values[kpi.MetricQualityRate].Value,
	))

	if err := s.qualityValues(ctx, values, pred, from, to); err != nil {
		return nil, err
	}
	if err := s.deliveryValues(ctx, values, pred, products, from, to); err != nil {
		return nil, err
	}
	if err := s.workforceValues(ctx, values, pred, from, to); err != nil {
		return nil, err
	}
	if err := s.wipValue(ctx, values, pred); err != nil {
		return nil, err
	}
	return values, nil
}

// throughputValues aggregates efficiency, performance, quality rate, and
// PPM from production entries. Efficiency and performance average the
// per-entry persisted percentages; the count metrics recompute from summed
// counts.
func (s *dashboardService) throughputValues(values map[kpi.Metric]kpi.Value, entries []*models.ProductionEntry) {
	var (
		effSum, perfSum decimal.Decimal
		units, defects  int64
		scrap           int64
		anyInferred     bool
		minConfidence   = 1.0
	)
	for _, e := range entries {
		effSum = effSum.Add(e.EfficiencyPct)
		perfSum = perfSum.Add(e.PerformancePct)
		units += e.UnitsProduced
		defects += e.DefectCount
		scrap += e.ScrapCount
		if e.WasInferred() {
			anyInferred = true
			if e.ConfidenceScore != nil && *e.ConfidenceScore < minConfidence {
				minConfidence = *e.ConfidenceScore
			}
		}
	}

	wrap := func(metric kpi.Metric, v decimal.Decimal) kpi.Value {
		if anyInferred {
			return kpi.NewInferredValue(metric, v, minConfidence)
		}
		return kpi.NewValue(metric, v)
	}

	n := int64(len(entries))
	if n == 0 {
		values[kpi.MetricEfficiency] = kpi.NewValue(kpi.MetricEfficiency, decimal.Zero)
		values[kpi.MetricPerformance] = kpi.NewValue(kpi.MetricPerformance, decimal.Zero)
	} else {
		values[kpi.MetricEfficiency] = wrap(kpi.MetricEfficiency, effSum.Div(decimal.NewFromInt(n)).Round(2))
		values[kpi.MetricPerformance] = wrap(kpi.MetricPerformance, perfSum.Div(decimal.NewFromInt(n)).Round(2))
	}
	values[kpi.MetricQualityRate] = kpi.NewValue(kpi.MetricQualityRate, kpi.QualityRate(units, defects, scrap))
	// Scrap counts against quality rate only; PPM and DPMO track defects.
	values[kpi.MetricPPM] = kpi.NewValue(kpi.MetricPPM, kpi.PPM(defects, units))
}

func dpmoValue(entries []*models.ProductionEntry, products map[uuid.UUID]*models.Product) kpi.Value {
	var defects, opportunities int64
	for _, e := range entries {
		opp := 1
		if p, ok := products[e.ProductID]; ok && p.OpportunitiesPerUnit > 0 {
			opp = p.OpportunitiesPerUnit
		}
		defects += e.DefectCount
		opportunities += e.UnitsProduced * int64(opp)
	}
	if opportunities <= 0 {
		return kpi.NewValue(kpi.MetricDPMO, decimal.Zero)
	}
	return kpi.NewValue(kpi.MetricDPMO, kpi.DPMO(defects, opportunities, 1))
}

func (s *dashboardService) availabilityValue(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) (kpi.Value, error) {
	downtimes, err := s.downtime.ListRange(ctx, pred, from, to)
	if err != nil {
		return kpi.Value{}, err
	}
	var downtimeHours, plannedHours decimal.Decimal
	for _, d := range downtimes {
		downtimeHours = downtimeHours.Add(d.DowntimeHours())
		plannedHours = plannedHours.Add(d.PlannedHours)
	}
	return kpi.NewValue(kpi.MetricAvailability, kpi.Availability(downtimeHours, plannedHours)), nil
}

// qualityValues aggregates FPY and RTY from inspection entries. RTY groups
// entries into ordered stages and multiplies stage yields; when stage data
// is unusable it falls back to order-level completed over ordered.
func (s *dashboardService) qualityValues(ctx context.Context, values map[kpi.Metric]kpi.Value, pred *tenancy.Predicate, from, to time.Time) error {
	inspections, err := s.quality.ListRange(ctx, pred, from, to)
	if err != nil {
		return err
	}

	var firstPass, inspected int64
	type stageAgg struct {
		sequence  int
		stage     string
		firstPass int64
		processed int64
	}
	stages := make(map[int]*stageAgg)
	for _, q := range inspections {
		firstPass += q.UnitsFirstPass
		inspected += q.UnitsInspected
		agg, ok := stages[q.StageSequence]
		if !ok {
			agg = &stageAgg{sequence: q.StageSequence, stage: q.Stage}
			stages[q.StageSequence] = agg
		}
		agg.firstPass += q.UnitsFirstPass
		agg.processed += q.UnitsInspected
	}
	values[kpi.MetricFPY] = kpi.NewValue(kpi.MetricFPY, kpi.FPY(firstPass, inspected))

	ordered := make([]*stageAgg, 0, len(stages))
	for _, agg := range stages {
		ordered = append(ordered, agg)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].sequence < ordered[j].sequence })

	yields := make([]kpi.StageYield, len(ordered))
	for i, agg := range ordered {
		yields[i] = kpi.StageYield{Stage: agg.stage, FirstPass: agg.firstPass, Processed: agg.processed}
	}

	if rty, ok := kpi.RTY(yields); ok {
		values[kpi.MetricRTY] = kpi.NewValue(kpi.MetricRTY, rty)
		return nil
	}

	// Stage data absent or has a zero-throughput stage. Fall back to order
	// granularity over the period's delivered orders.
	delivered, err := s.orders.ListDeliveredRange(ctx, pred, from, to)
	if err != nil {
		return err
	}
	var completed, orderedQty int64
	for _, o := range delivered {
		completed += o.QtyCompleted
		orderedQty += o.QtyOrdered
	}
	if rty, ok := kpi.RTYFromOrder(completed, orderedQty); ok {
		values[kpi.MetricRTY] = kpi.NewValue(kpi.MetricRTY, rty)
	} else {
		values[kpi.MetricRTY] = kpi.Undefined(kpi.MetricRTY)
	}
	return nil
}

func (s *dashboardService) deliveryValues(ctx context.Context, values map[kpi.Metric]kpi.Value, pred *tenancy.Predicate, products map[uuid.UUID]*models.Product, from, to time.Time) error {
	delivered, err := s.orders.ListDeliveredRange(ctx, pred, from, to)
	if err != nil {
		return err
	}
	// Undelivered orders falling due in the window count as missed
	// deliveries for the standard variant; the true variant drops them
	// again since they are non-terminal.
	open, err := s.orders.ListOpen(ctx, pred)
	if err != nil {
		return err
	}

	shiftHours := make(map[uuid.UUID]decimal.Decimal)
	deliveries := make([]kpi.OrderDelivery, 0, len(delivered)+len(open))
	for _, order := range append(delivered, open...) {
		hours, ok := shiftHours[order.ShiftID]
		if !ok {
			shift, err := s.shifts.Get(ctx, order.ShiftID)
			if err == nil {
				hours = shift.ScheduledHours
			}
			shiftHours[order.ShiftID] = hours
		}
		delivery, err := deliveryForOrder(ctx, s.resolver, order, products[order.ProductID], hours)
		if err != nil {
			return err
		}
		if order.DeliveredAt == nil && (delivery.Promised.Before(from) || delivery.Promised.After(to)) {
			continue
		}
		deliveries = append(deliveries, delivery)
	}

	values[kpi.MetricOTD] = kpi.OTD(deliveries, false)
	values[kpi.MetricTrueOTD] = kpi.OTD(deliveries, true)
	return nil
}

func (s *dashboardService) workforceValues(ctx context.Context, values map[kpi.Metric]kpi.Value, pred *tenancy.Predicate, from, to time.Time) error {
	attendance, err := s.attendance.ListRange(ctx, pred, from, to)
	if err != nil {
		return err
	}
	var absence, scheduled decimal.Decimal
	byEmployee := make(map[uuid.UUID]uuid.UUID)
	for _, a := range attendance {
		absence = absence.Add(a.AbsenceHours)
		scheduled = scheduled.Add(a.ScheduledHours)
		byEmployee[a.EmployeeID] = a.TenantID
	}
	values[kpi.MetricAbsenteeism] = kpi.NewValue(kpi.MetricAbsenteeism, kpi.Absenteeism(absence, scheduled))

	// Bradford is scored per employee, then averaged over everyone seen in
	// the window. Employees without absences score zero and stay in the
	// denominator.
	var bradford decimal.Decimal
	for employeeID, tenantID := range byEmployee {
		dates, err := s.attendance.AbsenceDates(ctx, tenantID, employeeID, from, to)
		if err != nil {
			return err
		}
		score := kpi.BradfordFactor(kpi.CountSpells(dates), len(dates))
		bradford = bradford.Add(decimal.NewFromInt(score))
	}
	if len(byEmployee) > 0 {
		bradford = bradford.Div(decimal.NewFromInt(int64(len(byEmployee)))).Round(2)
	}
	values[kpi.MetricBradford] = kpi.NewValue(kpi.MetricBradford, bradford)
	return nil
}

// wipValue reports the mean current age of open orders. WIP aging is a
// point-in-time measure, so both comparison periods see the same value.
func (s *dashboardService) wipValue(ctx context.Context, values map[kpi.Metric]kpi.Value, pred *tenancy.Predicate) error {
	open, err := s.orders.ListOpen(ctx, pred)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		values[kpi.MetricWIPAging] = kpi.NewValue(kpi.MetricWIPAging, decimal.Zero)
		return nil
	}

	now := s.now()
	var total decimal.Decimal
	for _, order := range open {
		holds, err := s.orders.ListHolds(ctx, order.ID)
		if err != nil {
			return err
		}
		total = total.Add(kpi.WIPAge(now, order.StartDate, holds))
	}
	values[kpi.MetricWIPAging] = kpi.NewValue(kpi.MetricWIPAging,
		total.Div(decimal.NewFromInt(int64(len(open)))).Round(2))
	return nil
}

func (s *dashboardService) productMap(ctx context.Context, pred *tenancy.Predicate) (map[uuid.UUID]*models.Product, error) {
	products, err := s.products.List(ctx, pred)
	if err != nil {
		return nil, err
	}
	m := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var _ DashboardService = (*dashboardService)(nil)
