package calibration

import (
	"errors"
	"fmt"
	"math"
	"time"

	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/optimizer"
)

// ErrInvalidCalibration reports a calibration table that breaks an engine invariant.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Window is the inclusive range of days searched for the harvest peak.
type Window struct {
	MinDays float64 `json:"min_days"`
	MaxDays float64 `json:"max_days"`
}

// StageConstants are the empirical volume and yield factors of one stage.
type StageConstants struct {
	FruitsPerLiter float64 `json:"fruits_per_liter"` // fruits in one liter of fruit at this stage
	YieldPerLiter  float64 `json:"yield_per_liter"`  // liters of this stage per yield-unit (sack)
}

// CorrectionBand blends a baseline into the raw estimate when the fruit total is at most UpTo.
type CorrectionBand struct {
	UpTo     float64 `json:"up_to"`
	Baseline float64 `json:"baseline"`
}

// AgeBand scales yield for plots at most UpToMonths old.
type AgeBand struct {
	UpToMonths int     `json:"up_to_months"`
	Multiplier float64 `json:"multiplier"`
}

// Tables holds every calibration constant the engine reads. A Tables value is built
// once at startup and treated as read-only afterwards.
type Tables struct {
	Rates       map[HarvestMonth]maturation.Rates
	Windows     map[time.Month]Window
	Stages      [maturation.NumStages]StageConstants
	Corrections []CorrectionBand
	AgeBands    []AgeBand
	// AgeTail applies to plots older than the last AgeBand.
	AgeTail float64
}

// Default returns the field-calibrated tables.
func Default() *Tables {
	return &Tables{
		Rates: map[HarvestMonth]maturation.Rates{
			January:  {K1: 0.010, K2: 0.005, K3: 0.002, K4: 0.001},
			February: {K1: 0.011, K2: 0.1, K3: 0.0014, K4: 0.000},
			March:    {K1: 0.015, K2: 0.01, K3: 0.005, K4: 0.003},
			April:    {K1: 0.010, K2: 0.02, K3: 0.0047, K4: 0.002},
			May:      {K1: 0.020, K2: 0.015, K3: 0.010, K4: 0.005},
			June:     {K1: 0.018, K2: 0.013, K3: 0.007, K4: 0.004},
			July:     {K1: 0.015, K2: 0.010, K3: 0.005, K4: 0.003},
			August:   {K1: 0.010, K2: 0.007, K3: 0.003, K4: 0.002},
		},
		// September to December have windows but no rates; they stay unreachable
		// until the rate table is calibrated for them.
		Windows: map[time.Month]Window{
			time.January:   {90, 210},
			time.February:  {75, 195},
			time.March:     {60, 180},
			time.April:     {45, 150},
			time.May:       {30, 120},
			time.June:      {15, 90},
			time.July:      {0, 60},
			time.August:    {0, 45},
			time.September: {0, 30},
			time.October:   {180, 270},
			time.November:  {150, 240},
			time.December:  {120, 210},
		},
		Stages: [maturation.NumStages]StageConstants{
			maturation.Green:       {FruitsPerLiter: 612, YieldPerLiter: 493},
			maturation.GreenYellow: {FruitsPerLiter: 551, YieldPerLiter: 548},
			maturation.Cherry:      {FruitsPerLiter: 500, YieldPerLiter: 604},
			maturation.Raisin:      {FruitsPerLiter: 683, YieldPerLiter: 442},
			maturation.Dry:         {FruitsPerLiter: 926, YieldPerLiter: 326},
		},
		Corrections: []CorrectionBand{
			{UpTo: 50, Baseline: 15},
			{UpTo: 75, Baseline: 22.5},
			{UpTo: 100, Baseline: 30},
			{UpTo: 125, Baseline: 37.5},
			{UpTo: 150, Baseline: 45},
			{UpTo: 175, Baseline: 52.5},
			{UpTo: 200, Baseline: 60},
			{UpTo: 225, Baseline: 67.5},
			{UpTo: 250, Baseline: 75},
			{UpTo: 275, Baseline: 82.5},
			{UpTo: 300, Baseline: 90},
		},
		AgeBands: []AgeBand{
			{UpToMonths: 12, Multiplier: 0},
			{UpToMonths: 24, Multiplier: 0.3},
			{UpToMonths: 36, Multiplier: 0.6},
			{UpToMonths: 48, Multiplier: 0.85},
			{UpToMonths: 120, Multiplier: 1},
			{UpToMonths: 180, Multiplier: 0.9},
			{UpToMonths: 240, Multiplier: 0.8},
		},
		AgeTail: 0.8,
	}
}

// RatesFor returns the transition constants of a month.
func (t *Tables) RatesFor(m HarvestMonth) (maturation.Rates, error) {
	r, ok := t.Rates[m]
	if !ok {
		return maturation.Rates{}, fmt.Errorf("%w: no transition rates for %s", ErrInvalidMonth, m)
	}
	return r, nil
}

// WindowFor returns the harvest search window of a month.
func (t *Tables) WindowFor(m HarvestMonth) (Window, error) {
	w, ok := t.Windows[m.Month()]
	if !ok {
		return Window{}, fmt.Errorf("%w: no harvest window for %s", optimizer.ErrInvalidSearchBounds, m)
	}
	if w.MinDays < 0 || w.MinDays > w.MaxDays {
		return Window{}, fmt.Errorf("%w: window [%v, %v] for %s", optimizer.ErrInvalidSearchBounds, w.MinDays, w.MaxDays, m)
	}
	return w, nil
}

// Validate checks the invariants the estimator divides and branches on.
func (t *Tables) Validate() error {
	for _, s := range maturation.Stages {
		c := t.Stages[s]
		if !(c.FruitsPerLiter > 0) || !(c.YieldPerLiter > 0) {
			return fmt.Errorf("%w: stage %s needs positive per-liter constants, got %+v", ErrInvalidCalibration, s, c)
		}
	}
	for m, r := range t.Rates {
		for _, k := range []float64{r.K1, r.K2, r.K3, r.K4} {
			if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
				return fmt.Errorf("%w: rates for %s must be finite and non-negative, got %+v", ErrInvalidCalibration, m, r)
			}
		}
	}
	for i := 1; i < len(t.Corrections); i++ {
		if t.Corrections[i].UpTo <= t.Corrections[i-1].UpTo {
			return fmt.Errorf("%w: correction bands must be strictly ascending", ErrInvalidCalibration)
		}
	}
	for i := 1; i < len(t.AgeBands); i++ {
		if t.AgeBands[i].UpToMonths <= t.AgeBands[i-1].UpToMonths {
			return fmt.Errorf("%w: age bands must be strictly ascending", ErrInvalidCalibration)
		}
	}
	return nil
}

// Clone returns a deep copy, so overrides never touch the defaults.
func (t *Tables) Clone() *Tables {
	c := *t
	c.Rates = make(map[HarvestMonth]maturation.Rates, len(t.Rates))
	for k, v := range t.Rates {
		c.Rates[k] = v
	}
	c.Windows = make(map[time.Month]Window, len(t.Windows))
	for k, v := range t.Windows {
		c.Windows[k] = v
	}
	c.Corrections = append([]CorrectionBand(nil), t.Corrections...)
	c.AgeBands = append([]AgeBand(nil), t.AgeBands...)
	return &c
}
