package layer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/crowdguess/candidate"
	"github.com/domino14/crowdguess/stats"
)

var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrInvalidWeights = errors.New("invalid parameter: weights must be in [0, 1] and sum to 1")
	ErrNoWeights      = errors.New("invalid parameter: pass has no weight schedule")
)

// SortKey is what candidates are ranked by during a pass.
type SortKey int

const (
	ByValue SortKey = iota
	ByMultiplier
)

func (k SortKey) String() string {
	switch k {
	case ByValue:
		return "value"
	case ByMultiplier:
		return "multiplier"
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

func (k SortKey) of(c *candidate.Candidate) int {
	if k == ByMultiplier {
		return c.Multiplier()
	}
	return c.Value()
}

// A Pass ranks every candidate by Key (descending unless Ascending), scores
// each rank on a discretized normal curve with the given Stddev, and blends
// that score into the candidate's uptake.
type Pass struct {
	Name      string
	Key       SortKey
	Ascending bool
	Stddev    float64
	Weights   WeightSchedule
}

func (p Pass) validate() (stats.Curve, error) {
	curve, err := stats.NewCurve(p.Stddev, 0)
	if err != nil {
		return curve, fmt.Errorf("pass %q: %w", p.Name, err)
	}
	if p.Weights == nil {
		return curve, fmt.Errorf("pass %q: %w", p.Name, ErrNoWeights)
	}
	// Schedules only branch on the first round, so checking two depths
	// covers the built-in ones.
	for _, d := range []int{0, 1} {
		w := p.Weights(d)
		if w.Fresh < 0 || w.Fresh > 1 || w.Prior < 0 || w.Prior > 1 || !stats.FuzzyEqual(w.Sum(), 1) {
			return curve, fmt.Errorf("pass %q at depth %d: %w", p.Name, d, ErrInvalidWeights)
		}
	}
	return curve, nil
}

// ValuePass ranks by current value. Higher value is assumed to draw more
// competitors. Its influence decays with depth.
func ValuePass() Pass {
	return Pass{Name: "value", Key: ByValue, Stddev: 2.0, Weights: DecayingWeights}
}

// MultiplierPass ranks by raw multiplier, on a wider curve, with a fixed
// 40% weight.
func MultiplierPass() Pass {
	return Pass{Name: "multiplier", Key: ByMultiplier, Stddev: 4.0, Weights: FixedWeights(0.4)}
}

// InverseMultiplierPass ranks by smallest multiplier first with a fixed 10%
// weight. It encodes the bias observed in earlier games toward cheap,
// low-multiplier options.
func InverseMultiplierPass() Pass {
	return Pass{Name: "inverse-multiplier", Key: ByMultiplier, Ascending: true,
		Stddev: 2.0, Weights: FixedWeights(0.1)}
}

type Variant int

const (
	// VariantSinglePass runs only the value pass each round.
	VariantSinglePass Variant = iota
	// VariantBiased follows the value pass with the two multiplier passes.
	VariantBiased
)

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "a":
		return VariantSinglePass, nil
	case "biased", "b":
		return VariantBiased, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

func (v Variant) String() string {
	switch v {
	case VariantSinglePass:
		return "single"
	case VariantBiased:
		return "biased"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Passes returns the passes for this variant, in the order they run.
func (v Variant) Passes() []Pass {
	switch v {
	case VariantBiased:
		return []Pass{ValuePass(), MultiplierPass(), InverseMultiplierPass()}
	default:
		return []Pass{ValuePass()}
	}
}

func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
