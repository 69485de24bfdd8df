package commands

import (
	"fmt"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/report"

	"github.com/spf13/cobra"
)

var plotFlags struct {
	name         string
	farm         string
	rowSpacing   float64
	plantSpacing float64
	plantingDate string
}

var sampleFlags struct {
	plotID  string
	counts  []float64
	takenAt string
}

var (
	forecastPlotID string
	reportOpen     bool
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Manage registered plots",
}

var plotAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a plot",
	RunE: func(cmd *cobra.Command, args []string) error {
		planting, err := optionalDate(plotFlags.plantingDate)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		plot, err := st.CreatePlot(cmd.Context(), forecast.Plot{
			Name:          plotFlags.name,
			FarmName:      plotFlags.farm,
			RowSpacingM:   plotFlags.rowSpacing,
			PlantSpacingM: plotFlags.plantSpacing,
			PlantingDate:  planting,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), plot)
	},
}

var plotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered plots",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		plots, err := st.ListPlots(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), plots)
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Manage ripeness samples",
}

var sampleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a ripeness sample for a plot",
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := countsFromFlag(sampleFlags.counts)
		if err != nil {
			return err
		}
		var takenAt time.Time
		if sampleFlags.takenAt != "" {
			if takenAt, err = time.Parse(dateLayout, sampleFlags.takenAt); err != nil {
				return fmt.Errorf("--taken-at: %w", err)
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		sample, err := st.RecordSample(cmd.Context(), sampleFlags.plotID, counts, takenAt)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sample)
	},
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast every sampled plot, or a single one with --plot",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if forecastPlotID != "" {
			plot, err := st.GetPlot(ctx, forecastPlotID)
			if err != nil {
				return err
			}
			sample, err := st.LatestSample(ctx, plot.ID)
			if err != nil {
				return err
			}
			res, err := predictor.PredictPlot(plot, sample)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), forecast.PlotForecast{
				PlotID: plot.ID, PlotName: plot.Name, FarmName: plot.FarmName, Result: res,
			})
		}

		snaps, err := st.Snapshots(ctx)
		if err != nil {
			return err
		}
		batch, err := predictor.Batch(ctx, snaps, cfg.BatchConcurrency)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), batch)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write an HTML harvest report for every sampled plot",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		snaps, err := st.Snapshots(cmd.Context())
		if err != nil {
			return err
		}
		batch, err := predictor.Batch(cmd.Context(), snaps, cfg.BatchConcurrency)
		if err != nil {
			return err
		}

		path, err := report.Write(cfg.ReportDir, batch, report.Options{
			GeneratedAt: time.Now(),
			Charts:      cfg.EnableMermaidCharts,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if reportOpen {
			return report.Open(path)
		}
		return nil
	},
}

func init() {
	f := plotAddCmd.Flags()
	f.StringVar(&plotFlags.name, "name", "", "plot name")
	f.StringVar(&plotFlags.farm, "farm", "", "farm name")
	f.Float64Var(&plotFlags.rowSpacing, "row", 0, "row spacing in meters")
	f.Float64Var(&plotFlags.plantSpacing, "plant", 0, "plant spacing in meters")
	f.StringVar(&plotFlags.plantingDate, "planting-date", "", "planting date (YYYY-MM-DD)")
	_ = plotAddCmd.MarkFlagRequired("name")
	plotCmd.AddCommand(plotAddCmd, plotListCmd)

	sf := sampleAddCmd.Flags()
	sf.StringVar(&sampleFlags.plotID, "plot", "", "plot ID")
	sf.Float64SliceVar(&sampleFlags.counts, "counts", nil, "fruit counted per stage: green,green_yellow,cherry,raisin,dry")
	sf.StringVar(&sampleFlags.takenAt, "taken-at", "", "sample date (YYYY-MM-DD); defaults to now")
	_ = sampleAddCmd.MarkFlagRequired("plot")
	_ = sampleAddCmd.MarkFlagRequired("counts")
	sampleCmd.AddCommand(sampleAddCmd)

	forecastCmd.Flags().StringVar(&forecastPlotID, "plot", "", "forecast only this plot")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")

	rootCmd.AddCommand(plotCmd, sampleCmd, forecastCmd, reportCmd)
}
