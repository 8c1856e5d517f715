package kpi

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Absenteeism computes (absence_hours / scheduled_hours) × 100.
// Zero scheduled hours yields 0. Callers compute this per employee and then
// aggregate.
func Absenteeism(absenceHours, scheduledHours decimal.Decimal) decimal.Decimal {
	if !scheduledHours.IsPositive() {
		return decimal.Zero
	}
	return round2(absenceHours.Div(scheduledHours).Mul(hundred))
}

// BradfordFactor computes S² × D where S is the number of distinct absence
// spells and D the total days absent. A single continuous absence scores far
// lower than repeated short absences totalling the same days, which is the
// point of the score.
func BradfordFactor(spells int, daysAbsent int) int64 {
	if spells < 0 || daysAbsent < 0 {
		return 0
	}
	s := int64(spells)
	return s * s * int64(daysAbsent)
}

// CountSpells groups a set of absence dates into distinct spells: runs of
// consecutive calendar days count as one spell. Duplicate dates are ignored.
func CountSpells(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	days := make([]time.Time, 0, len(dates))
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	spells := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) > 24*time.Hour {
			spells++
		}
	}
	return spells
}
