package maturation

import "fmt"

// Stage is one of the five irreversible ripeness stages a coffee cherry passes through.
// The numeric order is the order of transition.
type Stage int

const (
	Green Stage = iota
	GreenYellow
	Cherry
	Raisin
	Dry
)

// NumStages is the number of maturation stages.
const NumStages = 5

// Stages lists every stage in transition order.
var Stages = [NumStages]Stage{Green, GreenYellow, Cherry, Raisin, Dry}

var stageNames = [NumStages]string{"green", "green_yellow", "cherry", "raisin", "dry"}

func (s Stage) String() string {
	if s < 0 || int(s) >= NumStages {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// ParseStage resolves a stage from its String() form.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown maturation stage %q", name)
}

// Distribution holds the fraction of fruit in each stage, indexed by Stage.
type Distribution [NumStages]float64

// At returns the fraction for a stage.
func (d Distribution) At(s Stage) float64 {
	return d[s]
}

// Sum returns the total mass across all stages.
func (d Distribution) Sum() float64 {
	total := 0.0
	for _, v := range d {
		total += v
	}
	return total
}

// Map renders the distribution keyed by stage name, the shape the JSON surfaces use.
func (d Distribution) Map() map[string]float64 {
	out := make(map[string]float64, NumStages)
	for _, s := range Stages {
		out[s.String()] = d[s]
	}
	return out
}
