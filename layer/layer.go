// Package layer implements the round-by-round uptake estimator.
//
// Every round, each configured pass ranks the candidates by some key, looks
// up how much of the crowd a candidate at that rank should draw (a
// discretized normal curve over rank), and blends that into the candidate's
// running uptake estimate. At the end of a round the candidates are
// re-ranked by value, which feeds the next round's value pass. After a few
// rounds the top of the ranking is the prediction of what to pick.
package layer

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/crowdguess/candidate"
	"github.com/domino14/crowdguess/stats"
)

const DefaultSelected = 2

var ErrNoCandidates = errors.New("no candidates")

// Observation is a read-only copy of one candidate's state.
type Observation struct {
	ID         int `json:"id" yaml:"id"`
	Multiplier int `json:"multiplier" yaml:"multiplier"`
	Divisor    int `json:"divisor" yaml:"divisor"`
	Uptake     int `json:"uptake" yaml:"uptake"`
	Value      int `json:"value" yaml:"value"`
}

func Observe(c *candidate.Candidate) Observation {
	return Observation{
		ID:         c.ID(),
		Multiplier: c.Multiplier(),
		Divisor:    c.Divisor(),
		Uptake:     c.Uptake(),
		Value:      c.Value(),
	}
}

type compiledPass struct {
	Pass
	curve stats.Curve
}

// Layer owns the candidates and the round counter. Between calls the
// candidates are always sorted by value, descending.
//
// A Layer is not safe for concurrent use.
type Layer struct {
	candidates []*candidate.Candidate
	// construction order, used by Reset
	initial []*candidate.Candidate
	passes  []compiledPass
	depth   int
}

// New builds a Layer over the given candidates. With no passes it runs the
// single value pass.
func New(cands []*candidate.Candidate, passes ...Pass) (*Layer, error) {
	if len(cands) == 0 {
		return nil, ErrNoCandidates
	}
	if len(passes) == 0 {
		passes = VariantSinglePass.Passes()
	}
	l := &Layer{
		candidates: make([]*candidate.Candidate, len(cands)),
		passes:     make([]compiledPass, len(passes)),
	}
	copy(l.candidates, cands)
	l.initial = l.Candidates()
	for i, p := range passes {
		curve, err := p.validate()
		if err != nil {
			return nil, err
		}
		l.passes[i] = compiledPass{Pass: p, curve: curve}
	}
	l.sortByValue()
	return l, nil
}

func NewVariant(v Variant, cands []*candidate.Candidate) (*Layer, error) {
	return New(cands, v.Passes()...)
}

// Depth is the number of rounds run so far.
func (l *Layer) Depth() int {
	return l.depth
}

// Passes returns a copy of the pass configuration.
func (l *Layer) Passes() []Pass {
	return lo.Map(l.passes, func(p compiledPass, _ int) Pass { return p.Pass })
}

// RunRound runs every pass in order, re-sorts by value, and increments the
// depth.
func (l *Layer) RunRound() {
	for _, p := range l.passes {
		l.runPass(p)
	}
	l.sortByValue()
	l.depth++
	if e := log.Debug(); e.Enabled() {
		top := l.candidates[0]
		e.Int("depth", l.depth).Int("top-id", top.ID()).Int("top-value", top.Value()).
			Msg("round-complete")
	}
}

func (l *Layer) runPass(p compiledPass) {
	w := p.Weights(l.depth)
	view := rankedView(l.candidates, p.Key, p.Ascending)
	for rank, c := range view {
		c.SetUptake(w.Blend(p.curve.Score(rank), c.Uptake()))
	}
	log.Debug().Str("pass", p.Name).Int("depth", l.depth).
		Float64("w-fresh", w.Fresh).Float64("w-prior", w.Prior).Msg("pass-complete")
}

// rankedView returns the candidates ordered by key without touching the
// input slice. Keys are read up front so the order is fixed before any
// uptake changes. Ties keep their input order.
func rankedView(cands []*candidate.Candidate, key SortKey, ascending bool) []*candidate.Candidate {
	type keyed struct {
		c *candidate.Candidate
		k int
	}
	view := lo.Map(cands, func(c *candidate.Candidate, _ int) keyed {
		return keyed{c: c, k: key.of(c)}
	})
	sort.SliceStable(view, func(i, j int) bool {
		if ascending {
			return view[i].k < view[j].k
		}
		return view[i].k > view[j].k
	})
	return lo.Map(view, func(v keyed, _ int) *candidate.Candidate { return v.c })
}

func (l *Layer) sortByValue() {
	l.candidates = rankedView(l.candidates, ByValue, false)
}

// Selected returns the top min(k, n) candidates by value. A negative k
// returns nothing.
func (l *Layer) Selected(k int) []*candidate.Candidate {
	if k < 0 {
		k = 0
	}
	k = min(k, len(l.candidates))
	out := make([]*candidate.Candidate, k)
	copy(out, l.candidates[:k])
	return out
}

// Candidates returns every candidate in value order.
func (l *Layer) Candidates() []*candidate.Candidate {
	return l.Selected(len(l.candidates))
}

// Snapshot observes every candidate, in value order.
func (l *Layer) Snapshot() []Observation {
	return lo.Map(l.candidates, func(c *candidate.Candidate, _ int) Observation {
		return Observe(c)
	})
}

// Fingerprint hashes the current snapshot. Two layers with the same
// candidates in the same state hash the same regardless of depth.
func (l *Layer) Fingerprint() uint64 {
	buf := make([]byte, 0, len(l.candidates)*5*8)
	for _, o := range l.Snapshot() {
		for _, v := range []int{o.ID, o.Multiplier, o.Divisor, o.Uptake, o.Value} {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		}
	}
	return xxhash.Sum64(buf)
}

// RunUntilStable runs rounds until one leaves the snapshot unchanged, or
// until maxRounds have run. It returns how many rounds ran and whether the
// estimates settled.
func (l *Layer) RunUntilStable(maxRounds int) (int, bool) {
	prev := l.Fingerprint()
	for i := 0; i < maxRounds; i++ {
		l.RunRound()
		fp := l.Fingerprint()
		if fp == prev {
			log.Debug().Int("depth", l.depth).Msg("layer-settled")
			return i + 1, true
		}
		prev = fp
	}
	return max(maxRounds, 0), false
}

// Reset zeroes all uptake estimates and the depth.
func (l *Layer) Reset() {
	for _, c := range l.initial {
		c.Reset()
	}
	l.depth = 0
	copy(l.candidates, l.initial)
	l.sortByValue()
}
