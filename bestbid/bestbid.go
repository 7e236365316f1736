// Package bestbid finds the bid with the highest expected profit when the
// other bidders' average bid is modeled as a normal distribution.
//
// A bid x in [Floor, Ceiling) earns (Ceiling-x)*(x-Floor)/(Ceiling-Floor).
// If x is below the crowd's average bid, that profit is scaled down by
// ((Ceiling-avg)/(Ceiling-x))^3. The average is unknown, so it is weighed
// with the probability that the average is at or below x.
package bestbid

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrEmptyRange     = errors.New("invalid parameter: floor must be below ceiling")
	ErrInvalidStddev  = errors.New("invalid parameter: stddev must be positive")
	ErrMeanOutOfRange = errors.New("invalid parameter: mean must be below ceiling")
)

type Params struct {
	Floor   int     `json:"floor" yaml:"floor"`
	Ceiling int     `json:"ceiling" yaml:"ceiling"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Stddev  float64 `json:"stddev" yaml:"stddev"`
}

// DefaultParams is the game the model was written for.
var DefaultParams = Params{Floor: 250, Ceiling: 320, Mean: 285, Stddev: 2}

func (p Params) Validate() error {
	if p.Floor >= p.Ceiling {
		return ErrEmptyRange
	}
	if !(p.Stddev > 0) {
		return ErrInvalidStddev
	}
	if p.Mean >= float64(p.Ceiling) {
		return ErrMeanOutOfRange
	}
	return nil
}

type Point struct {
	Price int     `json:"price" yaml:"price"`
	EV    float64 `json:"ev" yaml:"ev"`
}

type Model struct {
	params Params
	avg    distuv.Normal
}

func NewModel(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: p, avg: distuv.Normal{Mu: p.Mean, Sigma: p.Stddev}}, nil
}

func (m *Model) Params() Params {
	return m.params
}

// ExpectedValue of bidding x. Bids outside [Floor, Ceiling) are worth 0.
func (m *Model) ExpectedValue(x int) float64 {
	p := m.params
	if x < p.Floor || x >= p.Ceiling {
		return 0
	}
	ceil := float64(p.Ceiling)
	bid := float64(x)
	base := (ceil - bid) * (bid - float64(p.Floor)) / float64(p.Ceiling-p.Floor)
	above := m.avg.CDF(bid)
	penalty := math.Pow((ceil-p.Mean)/(ceil-bid), 3)
	return base * (above + (1-above)*penalty)
}

// Curve evaluates every integer bid in [Floor, Ceiling).
func (m *Model) Curve() []Point {
	pts := make([]Point, 0, m.params.Ceiling-m.params.Floor)
	for x := m.params.Floor; x < m.params.Ceiling; x++ {
		pts = append(pts, Point{Price: x, EV: m.ExpectedValue(x)})
	}
	return pts
}

// Best returns the bid with the highest expected value. On a tie the
// higher bid wins.
func (m *Model) Best() Point {
	best := Point{Price: -1, EV: math.Inf(-1)}
	for _, pt := range m.Curve() {
		if pt.EV >= best.EV {
			best = pt
		}
	}
	log.Debug().Int("price", best.Price).Float64("ev", best.EV).Msg("best-bid")
	return best
}

// Best is a shortcut for NewModel(p).Best().
func Best(p Params) (Point, error) {
	m, err := NewModel(p)
	if err != nil {
		return Point{}, err
	}
	return m.Best(), nil
}
