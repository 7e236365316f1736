package stats

import (
	"errors"
	"math"
)

var ErrInvalidStddev = errors.New("invalid parameter: stddev must be positive")

// NormalCDF returns P(X <= x) for X ~ N(mean, stddev).
func NormalCDF(x, mean, stddev float64) float64 {
	return 0.5 * (1 + math.Erf((x-mean)/(stddev*math.Sqrt2)))
}

// Curve is a normal distribution discretized over integer ranks. The score
// for a rank is the probability mass between rank and rank+1, rounded to a
// whole percentage and doubled.
type Curve struct {
	mean   float64
	stddev float64
}

func NewCurve(stddev, mean float64) (Curve, error) {
	// NaN fails this comparison too.
	if !(stddev > 0) || math.IsInf(stddev, 0) {
		return Curve{}, ErrInvalidStddev
	}
	return Curve{mean: mean, stddev: stddev}, nil
}

func (c Curve) Stddev() float64 {
	return c.stddev
}

func (c Curve) Mean() float64 {
	return c.mean
}

// Score always returns a whole number.
func (c Curve) Score(rank int) float64 {
	if rank < 0 {
		panic("negative rank")
	}
	lo := NormalCDF(float64(rank), c.mean, c.stddev)
	hi := NormalCDF(float64(rank+1), c.mean, c.stddev)
	return math.Round((hi-lo)*100) * 2
}

// DiscreteNormalScore is a one-off version of Curve.Score.
func DiscreteNormalScore(rank int, stddev, mean float64) (float64, error) {
	c, err := NewCurve(stddev, mean)
	if err != nil {
		return 0, err
	}
	return c.Score(rank), nil
}
