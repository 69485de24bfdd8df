package maturation

import (
	"math"
	"testing"
)

var mayRates = Rates{K1: 0.020, K2: 0.015, K3: 0.010, K4: 0.005}

func TestEvolve_Conservation(t *testing.T) {
	initials := []Distribution{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0.5336538461538461, 0.20192307692307693, 0.18269230769230768, 0.08173076923076923, 0},
		{0.25, 0.25, 0.25, 0.25, 0},
		{0.1, 0.1, 0.1, 0.1, 0.6},
	}
	rates := []Rates{
		mayRates,
		{K1: 0.011, K2: 0.1, K3: 0.0014, K4: 0},
		{},
		{K1: 5, K2: 3, K3: 1, K4: 0.5},
	}

	for _, initial := range initials {
		for _, r := range rates {
			for _, day := range []float64{0, 0.5, 1, 30, 120, 365, 5000} {
				got := Evolve(day, initial, r)
				if math.Abs(got.Sum()-1) > 1e-9 {
					t.Errorf("Evolve(%v, %v, %+v) sums to %v", day, initial, r, got.Sum())
				}
				for _, s := range Stages {
					if got[s] < -1e-12 || got[s] > 1+1e-12 {
						t.Errorf("Evolve(%v, %v, %+v)[%s] = %v out of [0,1]", day, initial, r, s, got[s])
					}
				}
			}
		}
	}
}

func TestEvolve_Boundary(t *testing.T) {
	initial := Distribution{0.4, 0.3, 0.2, 0.05, 0.05}
	got := Evolve(0, initial, mayRates)

	want := Distribution{0.4, 0.3, 0.2, 0.05, 1 - 0.4 - 0.3 - 0.2 - 0.05}
	for _, s := range Stages {
		if math.Abs(got[s]-want[s]) > 1e-12 {
			t.Errorf("stage %s: got %v, want %v", s, got[s], want[s])
		}
	}
}

func TestEvolve_IgnoresInitialDry(t *testing.T) {
	a := Evolve(40, Distribution{0.5, 0.2, 0.1, 0.1, 0.1}, mayRates)
	b := Evolve(40, Distribution{0.5, 0.2, 0.1, 0.1, 0.0}, mayRates)
	if a != b {
		t.Errorf("initial Dry fraction changed the projection: %v vs %v", a, b)
	}
}

func TestEvolve_Monotonic(t *testing.T) {
	initial := Distribution{0.6, 0.2, 0.1, 0.1, 0}
	prev := Evolve(0, initial, mayRates)
	for day := 1.0; day <= 400; day++ {
		cur := Evolve(day, initial, mayRates)
		if cur[Green] > prev[Green]+1e-15 {
			t.Fatalf("green increased at day %v: %v -> %v", day, prev[Green], cur[Green])
		}
		if cur[Dry] < prev[Dry]-1e-12 {
			t.Fatalf("dry decreased at day %v: %v -> %v", day, prev[Dry], cur[Dry])
		}
		prev = cur
	}
}

func TestEvolve_AllCherryOnlyDecays(t *testing.T) {
	initial := Distribution{0, 0, 1, 0, 0}
	got := Evolve(30, initial, mayRates)
	want := math.Exp(-0.010 * 30)
	if math.Abs(got[Cherry]-want) > 1e-12 {
		t.Errorf("cherry after 30 days = %v, want %v", got[Cherry], want)
	}
	if got[Green] != 0 || got[GreenYellow] != 0 {
		t.Errorf("mass moved backwards: %v", got)
	}
}

func TestCurve(t *testing.T) {
	curve := Curve(Distribution{1, 0, 0, 0, 0}, mayRates, 0, 100, 11)
	if len(curve) != 11 {
		t.Fatalf("expected 11 points, got %d", len(curve))
	}
	if curve[0].Day != 0 || curve[10].Day != 100 {
		t.Errorf("curve should span [0,100], got [%v,%v]", curve[0].Day, curve[10].Day)
	}
	if curve[5].Distribution != Evolve(50, Distribution{1, 0, 0, 0, 0}, mayRates) {
		t.Errorf("curve midpoint does not match Evolve(50)")
	}

	single := Curve(Distribution{1, 0, 0, 0, 0}, mayRates, 10, 10, 20)
	if len(single) != 1 || single[0].Day != 10 {
		t.Errorf("degenerate span should produce a single point, got %+v", single)
	}
}

func TestStageNames(t *testing.T) {
	for _, s := range Stages {
		got, err := ParseStage(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStage(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseStage("ripe"); err == nil {
		t.Error("expected error for unknown stage name")
	}
	if Stage(9).String() != "stage(9)" {
		t.Errorf("unexpected name for out-of-range stage: %s", Stage(9))
	}
}
