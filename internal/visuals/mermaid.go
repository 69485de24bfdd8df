package visuals

import (
	"fmt"
	"math"
	"strings"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"
)

// maxLinePoints is roughly where xychart labels start to overlap.
const maxLinePoints = 60

// GenerateStageEvolutionChart creates a Mermaid xychart-beta with one line per ripeness stage (percent of fruit).
func GenerateStageEvolutionChart(curve []maturation.Point) string {
	if len(curve) == 0 {
		return ""
	}

	subsampleRate := 1
	if len(curve) > maxLinePoints {
		subsampleRate = int(math.Ceil(float64(len(curve)) / maxLinePoints))
	}

	var labels []string
	series := make([][]string, maturation.NumStages)
	for i, point := range curve {
		if i%subsampleRate != 0 && i != len(curve)-1 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%.0f\"", point.Day))
		for _, stage := range maturation.Stages {
			series[stage] = append(series[stage], fmt.Sprintf("%.1f", point.Distribution[stage]*100))
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Ripeness Stages Over Time (green, green_yellow, cherry, raisin, dry)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis \"Days\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Fruit (%)\" 0 --> 100\n")
	for _, stage := range maturation.Stages {
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(series[stage], ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateHarvestTimelineChart creates a Mermaid bar chart of days until harvest per plot.
func GenerateHarvestTimelineChart(forecasts []forecast.PlotForecast) string {
	if len(forecasts) == 0 {
		return ""
	}

	// Limit to 20 plots to keep the chart readable
	limit := min(len(forecasts), 20)

	var labels []string
	var values []string
	maxVal := 0
	for _, f := range forecasts[:limit] {
		safeName := strings.ReplaceAll(f.PlotName, "\"", "'")
		labels = append(labels, fmt.Sprintf("\"%s\"", safeName))
		values = append(values, fmt.Sprintf("%d", f.DaysToHarvest))
		maxVal = max(maxVal, f.DaysToHarvest)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Days Until Ideal Harvest\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Days\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateStagePie creates a Mermaid pie chart of a stage distribution.
func GenerateStagePie(title string, d maturation.Distribution) string {
	if d.Sum() <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title %s\n", title))
	for _, stage := range maturation.Stages {
		sb.WriteString(fmt.Sprintf("    \"%s\" : %.1f\n", stage, d[stage]*100))
	}
	sb.WriteString("```")
	return sb.String()
}
