package forecast

import (
	"cmp"
	"context"
	"slices"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel predictions when the caller gives no limit.
const DefaultConcurrency = 4

// Batch predicts every snapshot. Plots that fail are reported in Failures and do
// not stop the others; cancelling ctx abandons the whole batch.
func (p *Predictor) Batch(ctx context.Context, snapshots []Snapshot, concurrency int) (BatchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	forecasts := make([]*PlotForecast, len(snapshots))
	failures := make([]*PlotFailure, len(snapshots))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, snap := range snapshots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := p.PredictPlot(snap.Plot, snap.Sample)
			if err != nil {
				log.Warn().Err(err).Str("plot", snap.Plot.ID).Msg("Skipping plot in batch forecast")
				failures[i] = &PlotFailure{PlotID: snap.Plot.ID, PlotName: snap.Plot.Name, Error: err.Error()}
				return nil
			}
			forecasts[i] = &PlotForecast{
				PlotID:   snap.Plot.ID,
				PlotName: snap.Plot.Name,
				FarmName: snap.Plot.FarmName,
				Result:   res,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BatchResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, err
	}

	var out BatchResult
	for i := range snapshots {
		if forecasts[i] != nil {
			out.Forecasts = append(out.Forecasts, *forecasts[i])
		}
		if failures[i] != nil {
			out.Failures = append(out.Failures, *failures[i])
		}
	}

	slices.SortStableFunc(out.Forecasts, func(a, b PlotForecast) int {
		if c := cmp.Compare(a.DaysToHarvest, b.DaysToHarvest); c != 0 {
			return c
		}
		return cmp.Compare(a.PlotName, b.PlotName)
	})

	log.Info().
		Int("forecasts", len(out.Forecasts)).
		Int("failures", len(out.Failures)).
		Msg("Batch forecast finished")
	return out, nil
}
