package mcp

import (
	"context"
	"fmt"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/report"
	"harvest-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
)

const defaultCurvePoints = 31

func (s *Server) handlePredictHarvest(_ context.Context, args PredictHarvestArgs) (any, error) {
	planting, err := parseOptionalDate(args.PlantingDate)
	if err != nil {
		return nil, fmt.Errorf("planting_date: %w", err)
	}

	sampleDate := s.now()
	if args.SampleDate != "" {
		d, err := parseTimestamp(args.SampleDate)
		if err != nil {
			return nil, fmt.Errorf("sample_date: %w", err)
		}
		sampleDate = d
	}

	var month calibration.HarvestMonth
	if args.Month != "" {
		month, err = calibration.ParseMonth(args.Month)
	} else {
		month, err = calibration.FromTime(sampleDate.Month())
	}
	if err != nil {
		return nil, err
	}

	counts := args.Counts.counts()
	fractions := counts.Fractions()
	if args.Fractions != nil {
		fractions = args.Fractions.distribution()
	}

	res, err := s.predictor.Predict(forecast.Input{
		PlantingDate:  planting,
		RowSpacingM:   args.RowSpacingM,
		PlantSpacingM: args.PlantSpacingM,
		Counts:        counts,
		Fractions:     fractions,
		Month:         month,
		SampleDate:    sampleDate,
	})
	if err != nil {
		return nil, err
	}

	chart := ""
	if s.cfg.EnableMermaidCharts {
		chart = visuals.GenerateStagePie("Stages at harvest", res.Final)
	}
	return wrapResponse(res, chart, predictionGuidance(res)), nil
}

func (s *Server) handleEvolveStages(_ context.Context, args EvolveStagesArgs) (any, error) {
	month, err := calibration.ParseMonth(args.Month)
	if err != nil {
		return nil, err
	}
	tables := s.predictor.Tables()
	rates, err := tables.RatesFor(month)
	if err != nil {
		return nil, err
	}

	horizon := args.Days
	if horizon <= 0 {
		window, err := tables.WindowFor(month)
		if err != nil {
			return nil, err
		}
		horizon = window.MaxDays
	}
	points := args.Points
	if points <= 0 {
		points = defaultCurvePoints
	}

	initial := args.Fractions.distribution()
	if sum := initial.Sum(); sum > 0 {
		for i := range initial {
			initial[i] /= sum
		}
	}

	curve := maturation.Curve(initial, rates, 0, horizon, points)
	res := map[string]interface{}{
		"month":   month,
		"rates":   rates,
		"initial": initial,
		"curve":   curve,
	}

	chart := ""
	if s.cfg.EnableMermaidCharts {
		chart = visuals.GenerateStageEvolutionChart(curve)
	}
	return wrapResponse(res, chart, nil), nil
}

func (s *Server) handleRegisterPlot(ctx context.Context, args RegisterPlotArgs) (any, error) {
	planting, err := parseOptionalDate(args.PlantingDate)
	if err != nil {
		return nil, fmt.Errorf("planting_date: %w", err)
	}

	plot, err := s.store.CreatePlot(ctx, forecast.Plot{
		Name:          args.Name,
		FarmName:      args.FarmName,
		RowSpacingM:   args.RowSpacingM,
		PlantSpacingM: args.PlantSpacingM,
		PlantingDate:  planting,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("plot", plot.ID).Str("name", plot.Name).Msg("Plot registered")
	return wrapResponse(plot, "", []string{"Record a ripeness sample with 'record_sample' before forecasting this plot."}), nil
}

func (s *Server) handleRecordSample(ctx context.Context, args RecordSampleArgs) (any, error) {
	takenAt := s.now()
	if args.TakenAt != "" {
		d, err := parseTimestamp(args.TakenAt)
		if err != nil {
			return nil, fmt.Errorf("taken_at: %w", err)
		}
		takenAt = d
	}

	sample, err := s.store.RecordSample(ctx, args.PlotID, args.Counts.counts(), takenAt)
	if err != nil {
		return nil, err
	}

	var guidance []string
	if _, err := calibration.FromTime(sample.TakenAt.Month()); err != nil {
		guidance = append(guidance, "This sample was taken outside January to August; forecasting it will fail until a sample from a calibrated month is recorded.")
	}
	return wrapResponse(sample, "", guidance), nil
}

func (s *Server) handleListPlots(ctx context.Context, _ ListPlotsArgs) (any, error) {
	plots, err := s.store.ListPlots(ctx)
	if err != nil {
		return nil, err
	}
	return wrapResponse(map[string]interface{}{"plots": plots, "count": len(plots)}, "", nil), nil
}

func (s *Server) handleForecastPlot(ctx context.Context, args ForecastPlotArgs) (any, error) {
	plot, err := s.store.GetPlot(ctx, args.PlotID)
	if err != nil {
		return nil, err
	}
	sample, err := s.store.LatestSample(ctx, plot.ID)
	if err != nil {
		return nil, err
	}

	res, err := s.predictor.PredictPlot(plot, sample)
	if err != nil {
		return nil, err
	}

	pf := forecast.PlotForecast{PlotID: plot.ID, PlotName: plot.Name, FarmName: plot.FarmName, Result: res}
	chart := ""
	if s.cfg.EnableMermaidCharts {
		chart = visuals.GenerateStagePie("Stages at harvest", res.Final)
	}
	return wrapResponse(pf, chart, predictionGuidance(res)), nil
}

func (s *Server) handleForecastAllPlots(ctx context.Context, _ ForecastAllPlotsArgs) (any, error) {
	batch, err := s.forecastAll(ctx)
	if err != nil {
		return nil, err
	}

	chart := ""
	if s.cfg.EnableMermaidCharts {
		chart = visuals.GenerateHarvestTimelineChart(batch.Forecasts)
	}
	var guidance []string
	if len(batch.Failures) > 0 {
		guidance = append(guidance, "Some plots could not be forecast; see 'failures'. Do not estimate their harvest yourself.")
	}
	return wrapResponse(batch, chart, guidance), nil
}

func (s *Server) handleHarvestReport(ctx context.Context, args HarvestReportArgs) (any, error) {
	batch, err := s.forecastAll(ctx)
	if err != nil {
		return nil, err
	}

	path, err := report.Write(s.cfg.ReportDir, batch, report.Options{
		GeneratedAt: s.now(),
		Charts:      s.cfg.EnableMermaidCharts,
	})
	if err != nil {
		return nil, err
	}

	opened := false
	if args.Open {
		open := s.openBrowser
		if open == nil {
			open = report.Open
		}
		if err := open(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not open report")
		} else {
			opened = true
		}
	}

	return wrapResponse(map[string]interface{}{
		"path":      path,
		"opened":    opened,
		"forecasts": len(batch.Forecasts),
		"failures":  len(batch.Failures),
	}, "", nil), nil
}

func (s *Server) forecastAll(ctx context.Context) (forecast.BatchResult, error) {
	snaps, err := s.store.Snapshots(ctx)
	if err != nil {
		return forecast.BatchResult{}, err
	}
	return s.predictor.Batch(ctx, snaps, s.cfg.BatchConcurrency)
}
