package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PlotLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	planted := time.Date(2019, time.July, 6, 0, 0, 0, 0, time.UTC)
	created, err := s.CreatePlot(ctx, forecast.Plot{
		Name:          "Talhão 2",
		FarmName:      "Boa Vista",
		RowSpacingM:   2.5,
		PlantSpacingM: 0.7,
		PlantingDate:  &planted,
	})
	if err != nil {
		t.Fatalf("CreatePlot() error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned ID")
	}

	got, err := s.GetPlot(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPlot() error: %v", err)
	}
	if got.Name != "Talhão 2" || got.FarmName != "Boa Vista" || got.RowSpacingM != 2.5 || got.PlantSpacingM != 0.7 {
		t.Errorf("unexpected plot: %+v", got)
	}
	if got.PlantingDate == nil || !got.PlantingDate.Equal(planted) {
		t.Errorf("planting date not round-tripped: %v", got.PlantingDate)
	}

	noDate, err := s.CreatePlot(ctx, forecast.Plot{Name: "Talhão 1", FarmName: "Boa Vista", RowSpacingM: 3, PlantSpacingM: 0.6})
	if err != nil {
		t.Fatal(err)
	}
	loaded, _ := s.GetPlot(ctx, noDate.ID)
	if loaded.PlantingDate != nil {
		t.Errorf("expected nil planting date, got %v", loaded.PlantingDate)
	}

	plots, err := s.ListPlots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(plots) != 2 || plots[0].Name != "Talhão 1" {
		t.Errorf("ListPlots() should order by farm then name, got %+v", plots)
	}
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.CreatePlot(ctx, forecast.Plot{RowSpacingM: 2.5, PlantSpacingM: 0.7}); !errors.Is(err, ErrInvalidPlot) {
		t.Errorf("missing name: expected ErrInvalidPlot, got %v", err)
	}
	if _, err := s.CreatePlot(ctx, forecast.Plot{Name: "x", RowSpacingM: 0, PlantSpacingM: 0.7}); !errors.Is(err, ErrInvalidPlot) {
		t.Errorf("zero spacing: expected ErrInvalidPlot, got %v", err)
	}
	if _, err := s.GetPlot(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.RecordSample(ctx, "missing", maturation.Counts{1, 1, 1, 1, 1}, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("sample for missing plot: expected ErrNotFound, got %v", err)
	}

	p, _ := s.CreatePlot(ctx, forecast.Plot{Name: "ok", RowSpacingM: 2.5, PlantSpacingM: 0.7})
	if _, err := s.RecordSample(ctx, p.ID, maturation.Counts{-1, 0, 0, 0, 0}, time.Now()); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("negative count: expected ErrInvalidSample, got %v", err)
	}
}

func TestStore_LatestSampleAndSnapshots(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, _ := s.CreatePlot(ctx, forecast.Plot{Name: "A", RowSpacingM: 2.5, PlantSpacingM: 0.7})
	b, _ := s.CreatePlot(ctx, forecast.Plot{Name: "B", RowSpacingM: 2.5, PlantSpacingM: 0.7})
	_, _ = s.CreatePlot(ctx, forecast.Plot{Name: "C (never sampled)", RowSpacingM: 2.5, PlantSpacingM: 0.7})

	older := time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2025, time.May, 6, 10, 0, 0, 500, time.UTC)
	if _, err := s.RecordSample(ctx, a.ID, maturation.Counts{90, 10, 0, 0, 0}, older); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordSample(ctx, a.ID, maturation.Counts{53, 20, 18, 8, 0}, newer); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordSample(ctx, b.ID, maturation.Counts{0, 0, 100, 0, 0}, older); err != nil {
		t.Fatal(err)
	}

	latest, err := s.LatestSample(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Counts != (maturation.Counts{53, 20, 18, 8, 0}) || !latest.TakenAt.Equal(newer) {
		t.Errorf("unexpected latest sample: %+v", latest)
	}

	snaps, err := s.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots (unsampled plot skipped), got %d", len(snaps))
	}
	if snaps[0].Plot.ID != a.ID || snaps[0].Sample.Counts[maturation.Green] != 53 {
		t.Errorf("snapshot for A should carry the newest sample: %+v", snaps[0])
	}
}
