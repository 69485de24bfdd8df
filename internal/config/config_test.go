package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	for _, key := range []string{"HARVEST_DB", "CALIBRATION_FILE", "GRID_STEPS", "BATCH_CONCURRENCY", "METRICS_ADDR", "ENABLE_MERMAID_CHARTS", "REPORTS_FOLDER"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DatabasePath != filepath.Join(dir, "harvest.db") {
		t.Errorf("DatabasePath = %s", cfg.DatabasePath)
	}
	if cfg.ReportDir != filepath.Join(dir, "reports") {
		t.Errorf("ReportDir = %s", cfg.ReportDir)
	}
	if cfg.GridSteps != 1000 || cfg.BatchConcurrency != 4 {
		t.Errorf("GridSteps %d BatchConcurrency %d, want 1000 and 4", cfg.GridSteps, cfg.BatchConcurrency)
	}
	if cfg.EnableMermaidCharts || cfg.MetricsAddr != "" || cfg.CalibrationFile != "" {
		t.Errorf("unexpected optional settings: %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("HARVEST_DB", filepath.Join(dir, "other.db"))
	t.Setenv("GRID_STEPS", "250")
	t.Setenv("BATCH_CONCURRENCY", "-3")
	t.Setenv("METRICS_ADDR", ":9464")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabasePath != filepath.Join(dir, "other.db") || cfg.GridSteps != 250 || cfg.MetricsAddr != ":9464" || !cfg.EnableMermaidCharts {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.BatchConcurrency != 4 {
		t.Errorf("negative concurrency should fall back to the default, got %d", cfg.BatchConcurrency)
	}
}

func TestLoad_DotEnvInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	for _, key := range []string{"CALIBRATION_FILE", "METRICS_ADDR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("GRID_STEPS", "500")

	content := "CALIBRATION_FILE='calibration \"v2\".json'\nMETRICS_ADDR=:9464\nGRID_STEPS=50\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CalibrationFile != `calibration "v2".json` {
		t.Errorf("single-quoted value not preserved: %q", cfg.CalibrationFile)
	}
	if cfg.MetricsAddr != ":9464" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.GridSteps != 500 {
		t.Errorf(".env must not override the process environment, GridSteps = %d", cfg.GridSteps)
	}
}
