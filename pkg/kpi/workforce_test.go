package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAbsenteeism(t *testing.T) {
	tests := []struct {
		name           string
		absenceHours   string
		scheduledHours string
		expected       string
	}{
		{"no absence", "0", "160", "0"},
		{"eight of one-sixty hours", "8", "160", "5"},
		{"zero scheduled hours yields zero", "8", "0", "0"},
		{"rounded to two places", "5", "120", "4.17"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Absenteeism(dec(tt.absenceHours), dec(tt.scheduledHours))
			assert.True(t, got.Equal(dec(tt.expected)), "Absenteeism = %s, expected %s", got, tt.expected)
		})
	}
}

func TestBradfordFactor(t *testing.T) {
	t.Run("three spells of nine days scores 81", func(t *testing.T) {
		assert.Equal(t, int64(81), BradfordFactor(3, 9))
	})

	t.Run("single nine-day spell scores 9", func(t *testing.T) {
		assert.Equal(t, int64(9), BradfordFactor(1, 9))
	})

	t.Run("repeated short absences dominate one long one", func(t *testing.T) {
		// Same total days absent; frequency drives the score.
		assert.Greater(t, BradfordFactor(5, 10), BradfordFactor(1, 10))
	})

	t.Run("no absence scores zero", func(t *testing.T) {
		assert.Equal(t, int64(0), BradfordFactor(0, 0))
	})
}

func TestCountSpells(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		dates    []time.Time
		expected int
	}{
		{"no dates", nil, 0},
		{"single day", []time.Time{day(4)}, 1},
		{"consecutive days are one spell", []time.Time{day(4), day(5), day(6)}, 1},
		{"gaps split spells", []time.Time{day(4), day(5), day(11), day(18), day(19)}, 3},
		{"unsorted input", []time.Time{day(19), day(4), day(18), day(5), day(11)}, 3},
		{"duplicate dates ignored", []time.Time{day(4), day(4), day(5)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountSpells(tt.dates))
		})
	}
}
