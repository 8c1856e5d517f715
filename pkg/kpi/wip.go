package kpi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// WIPAge computes a job's age in hours: now − start_date − cumulative hold
// duration. Aging is frozen, not reset, while a job is on hold: each hold
// interval (resume − hold) is subtracted from the elapsed window. An open
// hold (no resume yet) freezes the job from its hold time through now.
func WIPAge(now, startDate time.Time, holds []models.HoldEntry) decimal.Decimal {
	if now.Before(startDate) {
		return decimal.Zero
	}
	elapsed := now.Sub(startDate)

	var held time.Duration
	for _, h := range holds {
		from := h.HeldAt
		if from.Before(startDate) {
			from = startDate
		}
		to := now
		if h.ResumedAt != nil && h.ResumedAt.Before(now) {
			to = *h.ResumedAt
		}
		if to.After(from) {
			held += to.Sub(from)
		}
	}

	age := elapsed - held
	if age < 0 {
		age = 0
	}
	return round2(decimal.NewFromFloat(age.Hours()))
}
