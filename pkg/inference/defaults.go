package inference

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// IndustryDefaults is the versioned domain-defaults table consulted at
// inference level 3 and as the level-5 terminal fallback. It is immutable
// after construction and injected into the resolver, so tests can substitute
// fixtures instead of patching global state.
type IndustryDefaults struct {
	version                string
	cycleTimeByFamily      map[string]decimal.Decimal
	fallbackCycleTimeHours decimal.Decimal
	defaultEmployees       int
	defaultShiftHours      decimal.Decimal
}

// defaultsFile is the YAML wire form of the defaults table.
type defaultsFile struct {
	Version           string             `yaml:"version"`
	CycleTimeByFamily map[string]float64 `yaml:"cycle_time_hours_by_family"`
	FallbackCycleTime float64            `yaml:"fallback_cycle_time_hours"`
	DefaultEmployees  int                `yaml:"default_employees_per_shift"`
	DefaultShiftHours float64            `yaml:"default_shift_hours"`
}

// LoadDefaults reads a defaults table from a YAML file.
func LoadDefaults(path string) (*IndustryDefaults, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read defaults table: %w", err)
	}

	var file defaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse defaults table: %w", err)
	}
	return newDefaults(file)
}

// BuiltinDefaults returns the hard-coded defaults table used when no file is
// configured. These values terminate every inference chain.
func BuiltinDefaults() *IndustryDefaults {
	d, _ := newDefaults(defaultsFile{
		Version: "builtin-1",
		CycleTimeByFamily: map[string]float64{
			"assembly":    0.25,
			"machining":   0.50,
			"packaging":   0.05,
			"fabrication": 0.75,
		},
		FallbackCycleTime: 0.30,
		DefaultEmployees:  4,
		DefaultShiftHours: 8,
	})
	return d
}

func newDefaults(file defaultsFile) (*IndustryDefaults, error) {
	if file.FallbackCycleTime <= 0 {
		return nil, fmt.Errorf("defaults table %q: fallback_cycle_time_hours must be positive", file.Version)
	}
	if file.DefaultEmployees <= 0 {
		return nil, fmt.Errorf("defaults table %q: default_employees_per_shift must be positive", file.Version)
	}
	if file.DefaultShiftHours <= 0 {
		return nil, fmt.Errorf("defaults table %q: default_shift_hours must be positive", file.Version)
	}

	byFamily := make(map[string]decimal.Decimal, len(file.CycleTimeByFamily))
	for family, hours := range file.CycleTimeByFamily {
		if hours <= 0 {
			return nil, fmt.Errorf("defaults table %q: cycle time for family %q must be positive", file.Version, family)
		}
		byFamily[family] = decimal.NewFromFloat(hours)
	}

	return &IndustryDefaults{
		version:                file.Version,
		cycleTimeByFamily:      byFamily,
		fallbackCycleTimeHours: decimal.NewFromFloat(file.FallbackCycleTime),
		defaultEmployees:       file.DefaultEmployees,
		defaultShiftHours:      decimal.NewFromFloat(file.DefaultShiftHours),
	}, nil
}

// Version identifies the loaded defaults table revision.
func (d *IndustryDefaults) Version() string { return d.version }

// CycleTimeForFamily looks up the industry-standard cycle time for a product
// family. Returns false when the family has no entry.
func (d *IndustryDefaults) CycleTimeForFamily(family string) (decimal.Decimal, bool) {
	ct, ok := d.cycleTimeByFamily[family]
	return ct, ok
}

// FallbackCycleTime is the terminal cycle-time default.
func (d *IndustryDefaults) FallbackCycleTime() decimal.Decimal {
	return d.fallbackCycleTimeHours
}

// DefaultEmployees is the terminal employee-count default.
func (d *IndustryDefaults) DefaultEmployees() int { return d.defaultEmployees }

// DefaultShiftHours is the shift capacity used when an order's shift has no
// scheduled hours on record.
func (d *IndustryDefaults) DefaultShiftHours() decimal.Decimal { return d.defaultShiftHours }
