package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

var predictFlags struct {
	rowSpacing   float64
	plantSpacing float64
	plantingDate string
	counts       []float64
	month        string
	sampleDate   string
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict one plot sample and print the result as JSON",
	Example: `  harvest-mcp predict --row 2.5 --plant 0.7 --planting-date 2019-07-06 \
    --counts 53,20,18,8,0 --month maio`,
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := countsFromFlag(predictFlags.counts)
		if err != nil {
			return err
		}
		planting, err := optionalDate(predictFlags.plantingDate)
		if err != nil {
			return err
		}

		sampleDate := time.Now()
		if predictFlags.sampleDate != "" {
			if sampleDate, err = time.Parse(dateLayout, predictFlags.sampleDate); err != nil {
				return fmt.Errorf("--sample-date: %w", err)
			}
		}

		var month calibration.HarvestMonth
		if predictFlags.month != "" {
			month, err = calibration.ParseMonth(predictFlags.month)
		} else {
			month, err = calibration.FromTime(sampleDate.Month())
		}
		if err != nil {
			return err
		}

		res, err := predictor.Predict(forecast.Input{
			PlantingDate:  planting,
			RowSpacingM:   predictFlags.rowSpacing,
			PlantSpacingM: predictFlags.plantSpacing,
			Counts:        counts,
			Fractions:     counts.Fractions(),
			Month:         month,
			SampleDate:    sampleDate,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func countsFromFlag(values []float64) (maturation.Counts, error) {
	var counts maturation.Counts
	if len(values) != maturation.NumStages {
		return counts, fmt.Errorf("--counts needs %d values (green, green_yellow, cherry, raisin, dry), got %d", maturation.NumStages, len(values))
	}
	copy(counts[:], values)
	return counts, nil
}

func optionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &d, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	f := predictCmd.Flags()
	f.Float64Var(&predictFlags.rowSpacing, "row", 0, "row spacing in meters")
	f.Float64Var(&predictFlags.plantSpacing, "plant", 0, "plant spacing in meters")
	f.StringVar(&predictFlags.plantingDate, "planting-date", "", "planting date (YYYY-MM-DD)")
	f.Float64SliceVar(&predictFlags.counts, "counts", nil, "fruit counted per stage: green,green_yellow,cherry,raisin,dry")
	f.StringVar(&predictFlags.month, "month", "", "harvest month (January to August); defaults to the sample month")
	f.StringVar(&predictFlags.sampleDate, "sample-date", "", "sample date (YYYY-MM-DD); defaults to today")
	_ = predictCmd.MarkFlagRequired("row")
	_ = predictCmd.MarkFlagRequired("plant")
	_ = predictCmd.MarkFlagRequired("counts")

	rootCmd.AddCommand(predictCmd)
}
