package calibration

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"harvest-mcp/internal/maturation"
	"harvest-mcp/internal/optimizer"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    HarvestMonth
		wantErr bool
	}{
		{"Portuguese", "maio", May, false},
		{"UpperCase", "MAIO", May, false},
		{"Diacritic", "março", March, false},
		{"DiacriticUpper", "MARÇO", March, false},
		{"Stripped", "marco", March, false},
		{"English", "August", August, false},
		{"Padded", "  janeiro ", January, false},
		{"Uncalibrated", "setembro", 0, true},
		{"UncalibratedEnglish", "December", 0, true},
		{"Unknown", "smarch", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonth(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMonth) {
					t.Fatalf("expected ErrInvalidMonth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromTime(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		h, err := FromTime(m)
		if m <= time.August {
			if err != nil || h.Month() != m {
				t.Errorf("FromTime(%s) = %v, %v", m, h, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("FromTime(%s) should fail with ErrInvalidMonth, got %v", m, err)
		}
	}
}

func TestHarvestMonth_Text(t *testing.T) {
	b, err := March.MarshalText()
	if err != nil || string(b) != "março" {
		t.Fatalf("MarshalText() = %q, %v", b, err)
	}
	var m HarvestMonth
	if err := m.UnmarshalText([]byte("Marco")); err != nil || m != March {
		t.Errorf("UnmarshalText() = %v, %v", m, err)
	}
	if err := m.UnmarshalText([]byte("outubro")); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestDefault_Coverage(t *testing.T) {
	tables := Default()
	if err := tables.Validate(); err != nil {
		t.Fatalf("default tables invalid: %v", err)
	}

	for _, m := range HarvestMonths {
		if _, err := tables.RatesFor(m); err != nil {
			t.Errorf("RatesFor(%s): %v", m, err)
		}
		if _, err := tables.WindowFor(m); err != nil {
			t.Errorf("WindowFor(%s): %v", m, err)
		}
	}
	if len(tables.Windows) != 12 {
		t.Errorf("expected windows for all 12 months, got %d", len(tables.Windows))
	}
	if len(tables.Corrections) != 11 {
		t.Errorf("expected 11 correction bands, got %d", len(tables.Corrections))
	}

	may, _ := tables.RatesFor(May)
	if may != (maturation.Rates{K1: 0.020, K2: 0.015, K3: 0.010, K4: 0.005}) {
		t.Errorf("unexpected May rates: %+v", may)
	}
	w, _ := tables.WindowFor(May)
	if w.MinDays != 30 || w.MaxDays != 120 {
		t.Errorf("unexpected May window: %+v", w)
	}
}

func TestTables_MissingEntries(t *testing.T) {
	tables := Default()
	delete(tables.Rates, June)
	delete(tables.Windows, time.July)
	tables.Windows[time.August] = Window{MinDays: 50, MaxDays: 10}

	if _, err := tables.RatesFor(June); !errors.Is(err, ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := tables.WindowFor(July); !errors.Is(err, optimizer.ErrInvalidSearchBounds) {
		t.Errorf("expected ErrInvalidSearchBounds for missing window, got %v", err)
	}
	if _, err := tables.WindowFor(August); !errors.Is(err, optimizer.ErrInvalidSearchBounds) {
		t.Errorf("expected ErrInvalidSearchBounds for inverted window, got %v", err)
	}
}

func TestTables_ValidateRejectsZeroConstants(t *testing.T) {
	tables := Default()
	tables.Stages[maturation.Cherry].YieldPerLiter = 0
	if err := tables.Validate(); !errors.Is(err, ErrInvalidCalibration) {
		t.Errorf("expected ErrInvalidCalibration, got %v", err)
	}
}

func TestApply(t *testing.T) {
	base := Default()
	data := []byte(`{
		"rates": {"Maio": [0.03, 0.02, 0.01, 0.004]},
		"windows": {"setembro": [5, 40]},
		"fruits_per_liter": {"cherry": 480}
	}`)

	tables, err := Apply(base, data)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if tables.Rates[May].K1 != 0.03 {
		t.Errorf("May K1 not overridden: %+v", tables.Rates[May])
	}
	if tables.Windows[time.September] != (Window{MinDays: 5, MaxDays: 40}) {
		t.Errorf("September window not overridden: %+v", tables.Windows[time.September])
	}
	if tables.Stages[maturation.Cherry].FruitsPerLiter != 480 {
		t.Errorf("cherry fruits/liter not overridden")
	}
	if base.Rates[May].K1 != 0.020 || base.Stages[maturation.Cherry].FruitsPerLiter != 500 {
		t.Errorf("Apply mutated the base tables")
	}
}

func TestApply_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"Malformed", `{"rates":`, ErrInvalidCalibration},
		{"UnknownSection", `{"moon_phase": {}}`, ErrInvalidCalibration},
		{"ShortRateVector", `{"rates": {"maio": [0.1, 0.2]}}`, ErrInvalidCalibration},
		{"NegativeRate", `{"rates": {"maio": [-0.1, 0.2, 0.1, 0.1]}}`, ErrInvalidCalibration},
		{"ZeroDensity", `{"yield_per_liter": {"dry": 0}}`, ErrInvalidCalibration},
		{"UnknownStage", `{"fruits_per_liter": {"overripe": 10}}`, ErrInvalidCalibration},
		{"UncalibratedMonthRates", `{"rates": {"outubro": [0.1, 0.1, 0.1, 0.1]}}`, ErrInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(Default(), []byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tables, err := Load("")
	if err != nil || tables.Rates[May].K1 != 0.020 {
		t.Fatalf("Load(\"\") should return defaults, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte(`{"rates": {"junho": [0.02, 0.02, 0.02, 0.02]}}`), 0644); err != nil {
		t.Fatal(err)
	}
	tables, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tables.Rates[June].K3 != 0.02 {
		t.Errorf("June rates not loaded: %+v", tables.Rates[June])
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
