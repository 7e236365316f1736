package stats

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestNormalCDFAgreesWithGonum(t *testing.T) {
	for _, sigma := range []float64{0.5, 1, 2, 4, 6} {
		dist := distuv.Normal{Mu: 0, Sigma: sigma}
		for x := -10.0; x <= 25; x += 0.5 {
			assert.InDelta(t, dist.CDF(x), NormalCDF(x, 0, sigma), 1e-12)
		}
	}
	assert.Equal(t, 0.5, NormalCDF(3, 3, 1))
}

func TestCurveScores(t *testing.T) {
	type tc struct {
		stddev float64
		scores []float64
	}
	cases := []tc{
		{2.0, []float64{38, 30, 18, 8, 4, 0, 0, 0, 0, 0, 0, 0}},
		{4.0, []float64{20, 18, 16, 14, 10, 8, 6, 4, 2, 2, 0, 0}},
	}
	for _, c := range cases {
		curve, err := NewCurve(c.stddev, 0)
		assert.Nil(t, err)
		for rank, expected := range c.scores {
			assert.Equal(t, expected, curve.Score(rank), "stddev %v rank %v", c.stddev, rank)
		}
	}
}

func TestDiscreteNormalScore(t *testing.T) {
	is := is.New(t)
	s, err := DiscreteNormalScore(0, 2.0, 0)
	is.NoErr(err)
	is.Equal(s, 38.0)

	// Shifting the mean moves the peak.
	s, err = DiscreteNormalScore(3, 1.0, 3.5)
	is.NoErr(err)
	is.Equal(s, 76.0)
}

func TestCurveRejectsBadStddev(t *testing.T) {
	is := is.New(t)
	for _, sd := range []float64{0, -1, -0.0001} {
		_, err := NewCurve(sd, 0)
		is.Equal(err, ErrInvalidStddev)
		_, err = DiscreteNormalScore(0, sd, 0)
		is.Equal(err, ErrInvalidStddev)
	}
}

func TestCurveNegativeRankPanics(t *testing.T) {
	curve, err := NewCurve(2, 0)
	assert.Nil(t, err)
	assert.Panics(t, func() { curve.Score(-1) })
}

func TestDrift(t *testing.T) {
	is := is.New(t)
	d := NewDrift([]float64{0, 10, 5, 3}, []float64{4, 8, 5, 3})
	is.True(FuzzyEqual(d.MeanAbs, 1.5))
	is.Equal(d.MaxAbs, 4.0)
	is.True(FuzzyEqual(d.Stdev, 1.9148542155126762))
	is.True(!d.Settled())

	d = NewDrift([]float64{1, 2}, []float64{1, 2})
	is.True(d.Settled())

	is.Equal(NewDrift(nil, nil), Drift{})
}
