package yield

import (
	"strconv"
	"strings"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/maturation"

	"github.com/shopspring/decimal"
)

// BandWidth is the relative half-width of the reported yield range (±5%).
const BandWidth = 0.05

// Range is a projected yield interval in yield-units (sacks) per hectare.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// String renders the range the way the field app displays it, e.g. "28.5 a 31.5".
func (r Range) String() string {
	return formatSacks(r.Low) + " a " + formatSacks(r.High)
}

// Breakdown exposes every intermediate value of an estimate.
type Breakdown struct {
	TotalFruits   float64           `json:"total_fruits_per_plant"`
	HarvestCounts maturation.Counts `json:"harvest_counts"`
	Raw           float64           `json:"raw_sacks"`
	Corrected     float64           `json:"corrected_sacks"`
	AgeMultiplier float64           `json:"age_multiplier"`
	Final         float64           `json:"final_sacks"`
	Range         Range             `json:"range"`
}

// Estimator converts a projected stage distribution into sacks per hectare.
type Estimator struct {
	tables *calibration.Tables
}

// NewEstimator binds an estimator to calibration tables. The tables must satisfy
// Validate: per-liter constants are divided by without checks.
func NewEstimator(tables *calibration.Tables) *Estimator {
	return &Estimator{tables: tables}
}

// Estimate projects yield at the harvest day. measured gives the fruit total per
// plant; final gives the stage proportions that total is redistributed into.
func (e *Estimator) Estimate(plantsPerHectare int, measured maturation.Counts, final maturation.Distribution, ageMonths int) Breakdown {
	total := measured.Total()
	harvest := maturation.Redistribute(total, final)

	raw := e.RawEstimate(plantsPerHectare, harvest)
	corrected := e.CorrectForSampleSize(total, raw)
	multiplier := e.AgeMultiplier(ageMonths)
	finalSacks := corrected * multiplier

	return Breakdown{
		TotalFruits:   total,
		HarvestCounts: harvest,
		Raw:           raw,
		Corrected:     corrected,
		AgeMultiplier: multiplier,
		Final:         finalSacks,
		Range: Range{
			Low:  Round2(finalSacks * (1 - BandWidth)),
			High: Round2(finalSacks * (1 + BandWidth)),
		},
	}
}

// RawEstimate sums, over stages, fruits per hectare converted to liters and then sacks.
func (e *Estimator) RawEstimate(plantsPerHectare int, perPlant maturation.Counts) float64 {
	sacks := 0.0
	for _, s := range maturation.Stages {
		c := e.tables.Stages[s]
		fruits := perPlant[s] * float64(plantsPerHectare)
		liters := fruits / c.FruitsPerLiter
		sacks += liters / c.YieldPerLiter
	}
	return sacks
}

// CorrectForSampleSize blends a band baseline with half the raw estimate for samples
// of at most the last band's fruit total. Larger samples keep the raw estimate.
func (e *Estimator) CorrectForSampleSize(totalFruits, raw float64) float64 {
	for _, band := range e.tables.Corrections {
		if totalFruits <= band.UpTo {
			return band.Baseline + Round2(raw/2)
		}
	}
	return raw
}

// AgeMultiplier scales yield by plantation maturity.
func (e *Estimator) AgeMultiplier(ageMonths int) float64 {
	for _, band := range e.tables.AgeBands {
		if ageMonths <= band.UpToMonths {
			return band.Multiplier
		}
	}
	return e.tables.AgeTail
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func formatSacks(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
