package maturation

import "math"

// Rates are the first-order transition constants (per day) of the stage cascade:
// K1 Green->GreenYellow, K2 GreenYellow->Cherry, K3 Cherry->Raisin, K4 Raisin->Dry.
type Rates struct {
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
	K4 float64 `json:"k4"`
}

// Evolve projects the initial distribution t days forward through the sequential
// decay chain. The Dry fraction of initial is ignored: Dry only accumulates, and is
// closed as whatever mass has left the other four stages.
func Evolve(t float64, initial Distribution, r Rates) Distribution {
	v0 := initial[Green]
	vc0 := initial[GreenYellow]
	c0 := initial[Cherry]
	p0 := initial[Raisin]

	e1 := math.Exp(-r.K1 * t)
	e2 := math.Exp(-r.K2 * t)
	e3 := math.Exp(-r.K3 * t)
	e4 := math.Exp(-r.K4 * t)

	// Share of each source compartment that has crossed the given transition by t.
	g1, g2, g3 := 1-e1, 1-e2, 1-e3

	var out Distribution
	out[Green] = v0 * e1
	out[GreenYellow] = (vc0 + v0*g1) * e2
	out[Cherry] = (c0+vc0*g2)*e3 + v0*g1*g2*e3
	out[Raisin] = (p0+c0*g3)*e4 + vc0*g2*g3*e4 + v0*g1*g2*g3*e4
	out[Dry] = 1 - (out[Green] + out[GreenYellow] + out[Cherry] + out[Raisin])
	return out
}

// Point is a single sample of an evolution curve.
type Point struct {
	Day          float64      `json:"day"`
	Distribution Distribution `json:"distribution"`
}

// Curve samples Evolve at points evenly spaced days between from and to, inclusive.
func Curve(initial Distribution, r Rates, from, to float64, points int) []Point {
	if points < 2 || to <= from {
		return []Point{{Day: from, Distribution: Evolve(from, initial, r)}}
	}

	step := (to - from) / float64(points-1)
	curve := make([]Point, 0, points)
	for i := 0; i < points; i++ {
		day := from + float64(i)*step
		curve = append(curve, Point{Day: day, Distribution: Evolve(day, initial, r)})
	}
	return curve
}
