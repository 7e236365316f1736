package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Drift summarizes how far a set of estimates moved in one round.
type Drift struct {
	MeanAbs float64 `json:"mean_abs" yaml:"mean_abs"`
	MaxAbs  float64 `json:"max_abs" yaml:"max_abs"`
	Stdev   float64 `json:"stdev" yaml:"stdev"`
}

// Settled is true if nothing moved.
func (d Drift) Settled() bool {
	return d.MaxAbs == 0
}

// NewDrift compares two equally sized vectors of estimates, element by
// element.
func NewDrift(before, after []float64) Drift {
	if len(before) != len(after) {
		panic("drift: length mismatch")
	}
	if len(before) == 0 {
		return Drift{}
	}
	deltas := make([]float64, len(after))
	floats.SubTo(deltas, after, before)
	for i := range deltas {
		deltas[i] = math.Abs(deltas[i])
	}
	d := Drift{
		MeanAbs: stat.Mean(deltas, nil),
		MaxAbs:  floats.Max(deltas),
	}
	if len(deltas) > 1 {
		d.Stdev = stat.StdDev(deltas, nil)
	}
	return d
}
