package maturation

// Counts holds the number of fruits observed in each stage of a sample, usually
// against a reference of 100 fruits per plant.
type Counts [NumStages]float64

// Total returns the number of fruits counted.
func (c Counts) Total() float64 {
	total := 0.0
	for _, v := range c {
		total += v
	}
	return total
}

// Degenerate reports a sample with nothing counted.
func (c Counts) Degenerate() bool {
	return c.Total() == 0
}

// Fractions converts counts into a distribution. An empty sample divides by 1 and
// so yields all-zero fractions instead of failing.
func (c Counts) Fractions() Distribution {
	total := c.Total()
	if total == 0 {
		total = 1
	}
	var d Distribution
	for i, v := range c {
		d[i] = v / total
	}
	return d
}

// Redistribute spreads total fruits across stages in the proportions of d.
func Redistribute(total float64, d Distribution) Counts {
	var out Counts
	for i, p := range d {
		out[i] = total * p
	}
	return out
}
