package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/optimizer"
	"harvest-mcp/internal/yield"

	"github.com/rs/zerolog/log"
)

// ErrInvalidGeometry reports row or plant spacing that cannot produce a plant density.
var ErrInvalidGeometry = errors.New("invalid plot geometry")

const squareMetersPerHectare = 10000

// Observer receives the outcome of every prediction.
type Observer interface {
	ObservePrediction(r Result, elapsed time.Duration)
	ObserveFailure(err error)
}

// Predictor turns a plot sample into a harvest forecast. It holds no mutable state
// and is safe for concurrent use.
type Predictor struct {
	tables    *calibration.Tables
	minimizer optimizer.Minimizer
	estimator *yield.Estimator
	now       func() time.Time
	observer  Observer
}

// Option customises a Predictor.
type Option func(*Predictor)

// WithClock fixes "today" for age and harvest-date arithmetic.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// WithMinimizer replaces the default grid search.
func WithMinimizer(m optimizer.Minimizer) Option {
	return func(p *Predictor) { p.minimizer = m }
}

// WithObserver attaches an outcome observer (metrics).
func WithObserver(o Observer) Option {
	return func(p *Predictor) { p.observer = o }
}

// NewPredictor builds a predictor over validated calibration tables.
func NewPredictor(tables *calibration.Tables, opts ...Option) *Predictor {
	p := &Predictor{
		tables:    tables,
		minimizer: optimizer.NewGridSearch(optimizer.DefaultSteps),
		estimator: yield.NewEstimator(tables),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tables exposes the calibration the predictor runs on.
func (p *Predictor) Tables() *calibration.Tables {
	return p.tables
}

// PlantsPerHectare returns how many plants fit in a hectare at the given spacing.
func PlantsPerHectare(rowSpacingM, plantSpacingM float64) (int, error) {
	area := rowSpacingM * plantSpacingM
	if !(rowSpacingM > 0) || !(plantSpacingM > 0) || math.IsInf(area, 0) {
		return 0, fmt.Errorf("%w: spacing %vm x %vm", ErrInvalidGeometry, rowSpacingM, plantSpacingM)
	}
	return int(math.Floor(squareMetersPerHectare / area)), nil
}

// AgeInMonths counts whole calendar months from planting to now. The planting date
// is a calendar date and is read as-is, never shifted into now's zone. A missing or
// future planting date counts as zero.
func AgeInMonths(planting *time.Time, now time.Time) int {
	if planting == nil || planting.IsZero() {
		return 0
	}
	py, pm, pd := planting.Date()
	ny, nm, nd := now.Date()
	months := (ny-py)*12 + int(nm) - int(pm)
	if nd < pd {
		months--
	}
	return max(months, 0)
}

// Predict runs the full pipeline: density and age, harvest-day search, projection
// of the stage distribution to that day, and yield estimation.
func (p *Predictor) Predict(in Input) (Result, error) {
	start := time.Now()
	res, err := p.predict(in)
	if p.observer != nil {
		if err != nil {
			p.observer.ObserveFailure(err)
		} else {
			p.observer.ObservePrediction(res, time.Since(start))
		}
	}
	return res, err
}

func (p *Predictor) predict(in Input) (Result, error) {
	plants, err := PlantsPerHectare(in.RowSpacingM, in.PlantSpacingM)
	if err != nil {
		return Result{}, err
	}

	rates, err := p.tables.RatesFor(in.Month)
	if err != nil {
		return Result{}, err
	}
	window, err := p.tables.WindowFor(in.Month)
	if err != nil {
		return Result{}, err
	}

	now := p.now()
	age := AgeInMonths(in.PlantingDate, now)

	initial := in.Fractions
	cherryShortfall := func(t float64) float64 {
		return -maturation.Evolve(t, initial, rates)[maturation.Cherry]
	}
	optimal, err := p.minimizer.Minimize(cherryShortfall, window.MinDays, window.MaxDays)
	if err != nil {
		return Result{}, fmt.Errorf("harvest day search for %s: %w", in.Month, err)
	}

	days := int(math.Round(optimal))
	final := maturation.Evolve(float64(days), initial, rates)
	breakdown := p.estimator.Estimate(plants, in.Counts, final, age)

	log.Debug().
		Str("month", in.Month.String()).
		Int("plantsPerHectare", plants).
		Int("ageMonths", age).
		Float64("optimalDay", optimal).
		Interface("final", final).
		Float64("rawSacks", breakdown.Raw).
		Float64("finalSacks", breakdown.Final).
		Msg("Harvest prediction computed")

	return Result{
		YieldLow:         breakdown.Range.Low,
		YieldHigh:        breakdown.Range.High,
		YieldRange:       breakdown.Range.String(),
		DaysToHarvest:    days,
		IdealHarvestDate: calendarDate(now).AddDate(0, 0, days),
		SourceSampleDate: in.SampleDate.UTC(),
		Month:            in.Month,
		PlantsPerHectare: plants,
		PlotAgeMonths:    age,
		OptimalDay:       optimal,
		Final:            final,
		Yield:            breakdown,
		Warnings:         inputWarnings(in),
	}, nil
}

// PredictPlot predicts from a stored plot and sample. The harvest month is the month
// the sample was taken in.
func (p *Predictor) PredictPlot(plot Plot, sample Sample) (Result, error) {
	month, err := calibration.FromTime(sample.TakenAt.Month())
	if err != nil {
		if p.observer != nil {
			p.observer.ObserveFailure(err)
		}
		return Result{}, err
	}

	return p.Predict(Input{
		PlantingDate:  plot.PlantingDate,
		RowSpacingM:   plot.RowSpacingM,
		PlantSpacingM: plot.PlantSpacingM,
		Counts:        sample.Counts,
		Fractions:     sample.Counts.Fractions(),
		Month:         month,
		SampleDate:    sample.TakenAt,
	})
}

func inputWarnings(in Input) []string {
	var warnings []string
	if in.Counts.Degenerate() {
		warnings = append(warnings, "Sample has no counted fruit; the yield is the low-sample baseline only.")
	} else if sum := in.Fractions.Sum(); math.Abs(sum-1) > 1e-6 {
		warnings = append(warnings, fmt.Sprintf("Stage fractions sum to %.4f instead of 1.", sum))
	}
	if in.PlantingDate == nil {
		warnings = append(warnings, "Planting date unknown; plot age taken as 0 months, so the age multiplier zeroes the yield.")
	}
	return warnings
}

// calendarDate is today's date in t's zone, as midnight UTC, the form dates are stored in.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
