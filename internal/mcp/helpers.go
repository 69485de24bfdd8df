package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"
)

const dateLayout = "2006-01-02"

// wrapResponse is the envelope every tool answers with.
func wrapResponse(data interface{}, chart string, guidance []string) map[string]interface{} {
	res := map[string]interface{}{"data": data}
	if chart != "" {
		res["chart"] = chart
	}
	if len(guidance) > 0 {
		res["guidance"] = guidance
	}
	return res
}

func formatResult(data interface{}) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}

func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return &d, nil
}

// parseTimestamp accepts a plain date or a full RFC3339 timestamp.
func parseTimestamp(value string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, value); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return d, nil
}

func (v StageValues) counts() maturation.Counts {
	return maturation.Counts{v.Green, v.GreenYellow, v.Cherry, v.Raisin, v.Dry}
}

func (v StageValues) distribution() maturation.Distribution {
	return maturation.Distribution(v.counts())
}

func predictionGuidance(res forecast.Result) []string {
	guidance := append([]string(nil), res.Warnings...)
	if res.YieldHigh == 0 && res.PlotAgeMonths <= 12 {
		guidance = append(guidance, "Plots up to 12 months old are not expected to produce; a zero yield is the model's answer, not a failure.")
	}
	return guidance
}
