package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"harvest-mcp/internal/calibration"
	"harvest-mcp/internal/forecast"
	"harvest-mcp/internal/maturation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder() error: %v", err)
	}

	r.ObservePrediction(forecast.Result{DaysToHarvest: 62, YieldHigh: 32.49}, 2*time.Millisecond)
	r.ObserveFailure(fmt.Errorf("sample: %w", calibration.ErrInvalidMonth))
	r.ObserveFailure(forecast.ErrInvalidGeometry)
	r.ObserveFailure(fmt.Errorf("boom"))

	tests := []struct {
		outcome  string
		expected float64
	}{
		{OutcomeSuccess, 1},
		{OutcomeInvalidMonth, 1},
		{OutcomeInvalidGeometry, 1},
		{OutcomeInvalidWindow, 0},
		{OutcomeError, 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(r.predictions.WithLabelValues(tt.outcome)); got != tt.expected {
			t.Errorf("outcome %s = %v, want %v", tt.outcome, got, tt.expected)
		}
	}

	if n := testutil.CollectAndCount(r.days); n != 1 {
		t.Errorf("expected one days histogram, got %d", n)
	}
}

func TestRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Error("expected an error registering the collectors twice")
	}
}

func TestRecorder_WiredIntoPredictor(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Date(2025, time.May, 20, 12, 0, 0, 0, time.UTC)
	p := forecast.NewPredictor(calibration.Default(),
		forecast.WithClock(func() time.Time { return now }),
		forecast.WithObserver(r))

	counts := maturation.Counts{53, 20, 18, 8, 0}
	if _, err := p.Predict(forecast.Input{
		RowSpacingM:   2.5,
		PlantSpacingM: 0.7,
		Counts:        counts,
		Fractions:     counts.Fractions(),
		Month:         calibration.May,
	}); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`harvest_predictions_total{outcome="success"} 1`,
		"harvest_days_to_harvest_sum 62",
		"harvest_prediction_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
