package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/store"
)

type GeneratorConfig struct {
	Scenario       string // "early", "late" or "mixed"
	Farms          int
	PlotsPerFarm   int
	SamplesPerPlot int
	FruitsPerCount int // fruit counted per sample
	Now            time.Time
	Seed           int64
}

// PlotSeed is a generated plot and its samples, oldest first.
type PlotSeed struct {
	Plot    forecast.Plot
	Samples []forecast.Sample
}

var farmNames = []string{"Boa Vista", "Santa Rita", "São João", "Bela Aurora", "Recanto", "Cachoeira"}

// Common spacings in meters (row x plant).
var spacings = [][2]float64{{2.5, 0.7}, {3.0, 0.5}, {3.5, 0.8}, {2.8, 0.6}, {3.8, 1.0}}

func Generate(cfg GeneratorConfig) []PlotSeed {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.FruitsPerCount <= 0 {
		cfg.FruitsPerCount = 100
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	var seeds []PlotSeed
	for f := 0; f < cfg.Farms; f++ {
		farm := farmNames[f%len(farmNames)]
		if f >= len(farmNames) {
			farm = fmt.Sprintf("%s %d", farm, f/len(farmNames)+1)
		}

		for p := 0; p < cfg.PlotsPerFarm; p++ {
			spacing := spacings[rng.Intn(len(spacings))]
			// Plots between 6 months and 15 years old
			planted := cfg.Now.AddDate(0, -(6 + rng.Intn(174)), -rng.Intn(28))
			planted = time.Date(planted.Year(), planted.Month(), planted.Day(), 0, 0, 0, 0, time.UTC)

			seed := PlotSeed{Plot: forecast.Plot{
				Name:          fmt.Sprintf("Talhão %d", p+1),
				FarmName:      farm,
				RowSpacingM:   spacing[0],
				PlantSpacingM: spacing[1],
				PlantingDate:  &planted,
			}}

			ripeness := startingRipeness(cfg.Scenario, rng)
			for s := cfg.SamplesPerPlot - 1; s >= 0; s-- {
				// Samples every two weeks; ripeness advances as time moves towards Now.
				progress := math.Min(1, ripeness+0.08*float64(cfg.SamplesPerPlot-1-s))
				seed.Samples = append(seed.Samples, forecast.Sample{
					Counts:  sampleCounts(progress, cfg.FruitsPerCount, rng),
					TakenAt: cfg.Now.AddDate(0, 0, -14*s),
				})
			}
			seeds = append(seeds, seed)
		}
	}
	return seeds
}

func startingRipeness(scenario string, rng *rand.Rand) float64 {
	switch scenario {
	case "early":
		return 0.05 + rng.Float64()*0.2
	case "late":
		return 0.5 + rng.Float64()*0.3
	default:
		return rng.Float64() * 0.7
	}
}

// sampleCounts spreads n fruits over the stages around a ripeness position in [0, 1].
func sampleCounts(progress float64, n int, rng *rand.Rand) maturation.Counts {
	center := progress * float64(maturation.NumStages-1)

	var weights maturation.Distribution
	for _, stage := range maturation.Stages {
		d := float64(stage) - center
		weights[stage] = math.Exp(-d * d / 1.2)
	}
	total := weights.Sum()

	var counts maturation.Counts
	remaining := n
	for _, stage := range maturation.Stages[:maturation.NumStages-1] {
		c := int(math.Round(weights[stage] / total * float64(n) * (0.85 + rng.Float64()*0.3)))
		c = min(c, remaining)
		counts[stage] = float64(c)
		remaining -= c
	}
	counts[maturation.Dry] = float64(remaining)
	return counts
}

// Save writes the generated plots and samples into the store.
func Save(ctx context.Context, st *store.Store, seeds []PlotSeed) error {
	for _, seed := range seeds {
		plot, err := st.CreatePlot(ctx, seed.Plot)
		if err != nil {
			return fmt.Errorf("create plot %s/%s: %w", seed.Plot.FarmName, seed.Plot.Name, err)
		}
		for _, sample := range seed.Samples {
			if _, err := st.RecordSample(ctx, plot.ID, sample.Counts, sample.TakenAt); err != nil {
				return fmt.Errorf("record sample for %s: %w", plot.ID, err)
			}
		}
	}
	return nil
}
