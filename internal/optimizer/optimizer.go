package optimizer

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSteps is the number of intervals the grid search divides a window into.
const DefaultSteps = 1000

// ErrInvalidSearchBounds reports a search window that cannot be searched.
var ErrInvalidSearchBounds = errors.New("invalid search bounds")

// Objective is a black-box function of elapsed days to be minimized.
type Objective func(t float64) float64

// Minimizer finds the t in [lower, upper] that minimizes an objective.
type Minimizer interface {
	Minimize(obj Objective, lower, upper float64) (float64, error)
}

// GridSearch evaluates the objective on Steps+1 evenly spaced points spanning the
// window and returns the first point holding the lowest value. It needs no
// derivative and tolerates objectives with interior optima.
type GridSearch struct {
	Steps int
}

// NewGridSearch returns a grid search with the given resolution, or DefaultSteps
// when steps is not positive.
func NewGridSearch(steps int) GridSearch {
	if steps <= 0 {
		steps = DefaultSteps
	}
	return GridSearch{Steps: steps}
}

// Minimize implements Minimizer.
func (g GridSearch) Minimize(obj Objective, lower, upper float64) (float64, error) {
	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return 0, fmt.Errorf("%w: [%v, %v] is not finite", ErrInvalidSearchBounds, lower, upper)
	}
	if lower > upper {
		return 0, fmt.Errorf("%w: lower %v exceeds upper %v", ErrInvalidSearchBounds, lower, upper)
	}
	if lower == upper {
		return lower, nil
	}

	steps := g.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}
	width := (upper - lower) / float64(steps)

	bestT := lower
	bestValue := obj(lower)
	for i := 1; i <= steps; i++ {
		t := lower + float64(i)*width
		if i == steps {
			t = upper
		}
		// Strict comparison keeps the earliest point on ties.
		if v := obj(t); v < bestValue {
			bestValue = v
			bestT = t
		}
	}
	return bestT, nil
}
