package scenario

import (
	"errors"
	"fmt"

	"lukechampine.com/frand"

	"github.com/domino14/crowdguess/layer"
)

var ErrBadRandomParams = errors.New("invalid parameter: random scenario needs n, maxMult and maxDiv of at least 1")

// Random generates n candidates with multipliers in [1, maxMult] and
// divisors in [1, maxDiv].
func Random(n, maxMult, maxDiv int, v layer.Variant) (*Scenario, error) {
	if n < 1 || maxMult < 1 || maxDiv < 1 {
		return nil, ErrBadRandomParams
	}
	s := &Scenario{
		Name:       fmt.Sprintf("random-%d", n),
		Variant:    v,
		Candidates: make([]Entry, n),
	}
	for i := range s.Candidates {
		s.Candidates[i] = Entry{
			Multiplier: 1 + frand.Intn(maxMult),
			Divisor:    1 + frand.Intn(maxDiv),
		}
	}
	s.applyDefaults()
	return s, nil
}
