package forecast

import (
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/yield"
)

// Plot is the physical description of a coffee plot.
type Plot struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	FarmName      string     `json:"farm_name,omitempty"`
	RowSpacingM   float64    `json:"row_spacing_m"`
	PlantSpacingM float64    `json:"plant_spacing_m"`
	PlantingDate  *time.Time `json:"planting_date,omitempty"`
}

// Sample is a ripeness measurement taken on a plot.
type Sample struct {
	ID      string            `json:"id,omitempty"`
	PlotID  string            `json:"plot_id,omitempty"`
	Counts  maturation.Counts `json:"counts"`
	TakenAt time.Time         `json:"taken_at"`
}

// Input carries everything a single prediction reads.
type Input struct {
	PlantingDate  *time.Time
	RowSpacingM   float64
	PlantSpacingM float64
	Counts        maturation.Counts
	Fractions     maturation.Distribution
	Month         calibration.HarvestMonth
	SampleDate    time.Time
}

// Result is the prediction for one plot sample. It is built once and never mutated.
type Result struct {
	YieldLow         float64                  `json:"yield_low"`
	YieldHigh        float64                  `json:"yield_high"`
	YieldRange       string                   `json:"yield_range"`
	DaysToHarvest    int                      `json:"days_to_harvest"`
	// IdealHarvestDate is a calendar date (local to the clock) at midnight UTC;
	// SourceSampleDate is the sample instant in UTC.
	IdealHarvestDate time.Time                `json:"ideal_harvest_date"`
	SourceSampleDate time.Time                `json:"source_sample_date"`
	Month            calibration.HarvestMonth `json:"month"`
	PlantsPerHectare int                      `json:"plants_per_hectare"`
	PlotAgeMonths    int                      `json:"plot_age_months"`
	OptimalDay       float64                  `json:"optimal_day"`
	Final            maturation.Distribution  `json:"final_distribution"`
	Yield            yield.Breakdown          `json:"yield_breakdown"`
	Warnings         []string                 `json:"warnings,omitempty"`
}

// Snapshot pairs a plot with its latest sample.
type Snapshot struct {
	Plot   Plot
	Sample Sample
}

// PlotForecast is a successful prediction within a batch.
type PlotForecast struct {
	PlotID   string `json:"plot_id"`
	PlotName string `json:"plot_name"`
	FarmName string `json:"farm_name,omitempty"`
	Result
}

// PlotFailure records a plot that could not be predicted.
type PlotFailure struct {
	PlotID   string `json:"plot_id"`
	PlotName string `json:"plot_name"`
	Error    string `json:"error"`
}

// BatchResult holds every plot forecast, ordered by days to harvest.
type BatchResult struct {
	Forecasts []PlotForecast `json:"forecasts"`
	Failures  []PlotFailure  `json:"failures,omitempty"`
}
