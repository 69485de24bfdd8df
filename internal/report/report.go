package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/visuals"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Options controls what goes into a harvest report.
type Options struct {
	GeneratedAt time.Time
	Charts      bool
}

// Markdown renders a batch forecast as a Markdown document.
func Markdown(res forecast.BatchResult, opts Options) string {
	var sb strings.Builder
	sb.WriteString("# Harvest Forecast\n\n")
	sb.WriteString(fmt.Sprintf("Generated %s. %d plot(s) forecast, %d failed.\n\n",
		opts.GeneratedAt.Format("2006-01-02 15:04"), len(res.Forecasts), len(res.Failures)))

	if len(res.Forecasts) > 0 {
		sb.WriteString("## Plots by harvest date\n\n")
		sb.WriteString("| Plot | Farm | Sample | Days | Ideal harvest | Yield (sacks/ha) | Notes |\n")
		sb.WriteString("|---|---|---|---:|---|---|---|\n")
		for _, f := range res.Forecasts {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %s | %s |\n",
				cell(f.PlotName),
				cell(f.FarmName),
				f.SourceSampleDate.Format("2006-01-02"),
				f.DaysToHarvest,
				f.IdealHarvestDate.Format("2006-01-02"),
				f.YieldRange,
				cell(strings.Join(f.Warnings, " "))))
		}
		sb.WriteString("\n")

		if opts.Charts {
			sb.WriteString("## Timeline\n\n")
			sb.WriteString(visuals.GenerateHarvestTimelineChart(res.Forecasts))
			sb.WriteString("\n\n")
		}
	}

	if len(res.Failures) > 0 {
		sb.WriteString("## Plots without a forecast\n\n")
		for _, f := range res.Failures {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", f.PlotName, f.Error))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

// HTML converts the Markdown report into a standalone page.
func HTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Harvest Forecast</title>" +
		"<style>" +
		"body{font-family:system-ui,sans-serif;max-width:1000px;margin:0 auto;padding:1rem;color:#1c1917;} " +
		"table{width:100%;border-collapse:collapse;font-size:0.9rem;} " +
		"th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;text-align:left;} " +
		"thead th{background:#f1f5f9;} " +
		"</style></head><body>" + content.String() +
		"<script type='module'>" +
		"import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs';" +
		"document.querySelectorAll('code.language-mermaid').forEach(c=>{const d=document.createElement('div');" +
		"d.className='mermaid';d.textContent=c.textContent;c.parentElement.replaceWith(d);});" +
		"mermaid.run();" +
		"</script></body></html>", nil
}

// Write renders the report into dir and returns the file path.
func Write(dir string, res forecast.BatchResult, opts Options) (string, error) {
	page, err := HTML(Markdown(res, opts))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("harvest-report-%s.html", opts.GeneratedAt.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	log.Info().Str("path", path).Int("plots", len(res.Forecasts)).Msg("Harvest report written")
	return path, nil
}

// Open shows a written report in the default browser.
func Open(path string) error {
	return browser.OpenFile(path)
}
