package layer

import "math"

// Weights is how much of a fresh estimate to blend into the prior one.
// Fresh + Prior is always 1.
type Weights struct {
	Fresh float64
	Prior float64
}

// WeightSchedule picks the weights for a pass given the round depth.
type WeightSchedule func(depth int) Weights

func (w Weights) Sum() float64 {
	return w.Fresh + w.Prior
}

// Blend mixes a fresh score into a prior uptake and rounds half away from
// zero.
func (w Weights) Blend(fresh float64, prior int) int {
	return int(math.Round(fresh*w.Fresh + float64(prior)*w.Prior))
}

// FixedWeights returns a schedule that ignores depth.
func FixedWeights(fresh float64) WeightSchedule {
	w := Weights{Fresh: fresh, Prior: 1 - fresh}
	return func(int) Weights {
		return w
	}
}

// DecayingWeights trusts the fresh estimate completely on the first round,
// since there is no prior yet. After that the fresh share is
// 1/(2*(depth+6)), shrinking every round.
func DecayingWeights(depth int) Weights {
	if depth == 0 {
		return Weights{Fresh: 1, Prior: 0}
	}
	f := 1.0 / float64((depth+6)*2)
	return Weights{Fresh: f, Prior: 1 - f}
}
