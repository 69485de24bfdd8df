package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// StageValues carries one number per ripeness stage.
type StageValues struct {
	Green       float64 `json:"green,omitempty" jsonschema:"green fruit"`
	GreenYellow float64 `json:"green_yellow,omitempty" jsonschema:"green-yellow fruit"`
	Cherry      float64 `json:"cherry,omitempty" jsonschema:"ripe cherry fruit"`
	Raisin      float64 `json:"raisin,omitempty" jsonschema:"raisin (overripe) fruit"`
	Dry         float64 `json:"dry,omitempty" jsonschema:"dry fruit"`
}

type PredictHarvestArgs struct {
	RowSpacingM   float64      `json:"row_spacing_m" jsonschema:"distance between rows in meters"`
	PlantSpacingM float64      `json:"plant_spacing_m" jsonschema:"distance between plants within a row in meters"`
	PlantingDate  string       `json:"planting_date,omitempty" jsonschema:"planting date (YYYY-MM-DD). Without it the plot age is 0 and the yield is 0"`
	Counts        StageValues  `json:"counts" jsonschema:"fruit counted per stage in the sample"`
	Fractions     *StageValues `json:"fractions,omitempty" jsonschema:"optional stage fractions (0-1). Defaults to the counts divided by their total"`
	Month         string       `json:"month,omitempty" jsonschema:"harvest month January to August (English or Portuguese). Defaults to the month of sample_date"`
	SampleDate    string       `json:"sample_date,omitempty" jsonschema:"date the sample was taken (YYYY-MM-DD). Defaults to today"`
}

type EvolveStagesArgs struct {
	Fractions StageValues `json:"fractions" jsonschema:"starting stage fractions or counts (normalised when they do not sum to 1)"`
	Month     string      `json:"month" jsonschema:"harvest month whose transition rates apply (January to August)"`
	Days      float64     `json:"days,omitempty" jsonschema:"horizon in days. Defaults to the end of the month's harvest window"`
	Points    int         `json:"points,omitempty" jsonschema:"number of curve points (default 31)"`
}

type RegisterPlotArgs struct {
	Name          string  `json:"name" jsonschema:"plot name"`
	FarmName      string  `json:"farm_name,omitempty" jsonschema:"farm the plot belongs to"`
	RowSpacingM   float64 `json:"row_spacing_m" jsonschema:"distance between rows in meters"`
	PlantSpacingM float64 `json:"plant_spacing_m" jsonschema:"distance between plants within a row in meters"`
	PlantingDate  string  `json:"planting_date,omitempty" jsonschema:"planting date (YYYY-MM-DD)"`
}

type RecordSampleArgs struct {
	PlotID  string      `json:"plot_id" jsonschema:"plot the sample was taken on"`
	Counts  StageValues `json:"counts" jsonschema:"fruit counted per stage"`
	TakenAt string      `json:"taken_at,omitempty" jsonschema:"sample date (YYYY-MM-DD or RFC3339). Defaults to now"`
}

type ListPlotsArgs struct{}

type ForecastPlotArgs struct {
	PlotID string `json:"plot_id" jsonschema:"plot to forecast from its latest sample"`
}

type ForecastAllPlotsArgs struct{}

type HarvestReportArgs struct {
	Open bool `json:"open,omitempty" jsonschema:"open the written report in the default browser"`
}

func (s *Server) registerTools(srv *sdk.Server) {
	addTool(srv, "predict_harvest",
		"Predict the ideal harvest day and the yield range (60 kg sacks per hectare) for one coffee plot sample. "+
			"The ripeness distribution is projected forward with the month's stage transition rates and the day with the most cherry fruit "+
			"inside the month's harvest window is chosen. Only January to August are calibrated.",
		s.handlePredictHarvest)

	addTool(srv, "evolve_stages",
		"Project a ripeness stage distribution forward in time and return the curve. Useful to explain a prediction.",
		s.handleEvolveStages)

	addTool(srv, "register_plot",
		"Register a coffee plot (name, farm, row and plant spacing, planting date). Returns the plot with its ID.",
		s.handleRegisterPlot)

	addTool(srv, "record_sample",
		"Record a ripeness sample (fruit counted per stage) for a registered plot.",
		s.handleRecordSample)

	addTool(srv, "list_plots",
		"List every registered plot.",
		s.handleListPlots)

	addTool(srv, "forecast_plot",
		"Forecast a registered plot from its latest sample. The harvest month is the month the sample was taken.",
		s.handleForecastPlot)

	addTool(srv, "forecast_all_plots",
		"Forecast every plot that has a sample, ordered by days until harvest. Plots that cannot be forecast are listed under failures.",
		s.handleForecastAllPlots)

	addTool(srv, "harvest_report",
		"Write an HTML harvest report for every plot and return its path.",
		s.handleHarvestReport)
}
