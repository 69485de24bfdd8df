package engine

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/store"
)

var now = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestGenerate_Shape(t *testing.T) {
	seeds := Generate(GeneratorConfig{Scenario: "mixed", Farms: 2, PlotsPerFarm: 3, SamplesPerPlot: 4, Now: now, Seed: 7})

	if len(seeds) != 6 {
		t.Fatalf("expected 6 plots, got %d", len(seeds))
	}
	for _, s := range seeds {
		if len(s.Samples) != 4 {
			t.Fatalf("expected 4 samples, got %d", len(s.Samples))
		}
		if !s.Samples[3].TakenAt.Equal(now) || !s.Samples[0].TakenAt.Before(s.Samples[3].TakenAt) {
			t.Errorf("samples should run oldest first and end today: %v .. %v", s.Samples[0].TakenAt, s.Samples[3].TakenAt)
		}
		for _, sample := range s.Samples {
			if sample.Counts.Total() != 100 {
				t.Errorf("expected 100 fruits per sample, got %v", sample.Counts.Total())
			}
			for _, stage := range maturation.Stages {
				if sample.Counts[stage] < 0 {
					t.Errorf("negative count %v", sample.Counts)
				}
			}
		}
		if s.Plot.PlantingDate == nil || !s.Plot.PlantingDate.Before(now) {
			t.Errorf("planting date must be in the past: %v", s.Plot.PlantingDate)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "late", Farms: 1, PlotsPerFarm: 5, SamplesPerPlot: 2, Now: now, Seed: 42}
	if !reflect.DeepEqual(Generate(cfg), Generate(cfg)) {
		t.Error("the same seed must produce the same data")
	}
}

func TestGenerate_ScenarioShiftsRipeness(t *testing.T) {
	green := func(scenario string) float64 {
		total := 0.0
		for _, s := range Generate(GeneratorConfig{Scenario: scenario, Farms: 2, PlotsPerFarm: 10, SamplesPerPlot: 1, Now: now, Seed: 1}) {
			total += s.Samples[0].Counts[maturation.Green]
		}
		return total
	}
	if early, late := green("early"), green("late"); early <= late {
		t.Errorf("early scenario should carry more green fruit (%v) than late (%v)", early, late)
	}
}

func TestSave(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "mock.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	seeds := Generate(GeneratorConfig{Farms: 1, PlotsPerFarm: 3, SamplesPerPlot: 2, Now: now, Seed: 3})
	if err := Save(ctx, st, seeds); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	snaps, err := st.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snaps))
	}
	for _, s := range snaps {
		if !s.Sample.TakenAt.Equal(now) {
			t.Errorf("snapshot should use the latest sample, got %v", s.Sample.TakenAt)
		}
	}
}
