// Package runner drives a layer through a scenario and records what every
// candidate looked like after construction and after each round.
package runner

import (
	"context"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/crowdguess/candidate"
	"github.com/domino14/crowdguess/layer"
	"github.com/domino14/crowdguess/scenario"
	"github.com/domino14/crowdguess/stats"
)

// Record is the state of the layer at one depth. Depth 0 is the state
// right after construction.
type Record struct {
	Depth       int                 `json:"depth" yaml:"depth"`
	Candidates  []layer.Observation `json:"candidates" yaml:"candidates"`
	Drift       stats.Drift         `json:"drift" yaml:"drift"`
	Fingerprint uint64              `json:"fingerprint" yaml:"fingerprint"`
}

type Result struct {
	Scenario string              `json:"scenario" yaml:"scenario"`
	Variant  layer.Variant       `json:"variant" yaml:"variant"`
	Rounds   []Record            `json:"rounds" yaml:"rounds"`
	Selected []layer.Observation `json:"selected" yaml:"selected"`
	// Stable is set when running until stable and the estimates settled.
	Stable bool `json:"stable" yaml:"stable"`
}

// Final is the last record.
func (r *Result) Final() Record {
	return r.Rounds[len(r.Rounds)-1]
}

// Session pairs a layer with the history of its rounds. The shell keeps
// one around between commands.
type Session struct {
	Scenario *scenario.Scenario
	Variant  layer.Variant
	Layer    *layer.Layer
	Records  []Record
}

func NewSession(sc *scenario.Scenario, v layer.Variant) (*Session, error) {
	cands, err := sc.Build()
	if err != nil {
		return nil, err
	}
	l, err := layer.NewVariant(v, cands)
	if err != nil {
		return nil, err
	}
	s := &Session{Scenario: sc, Variant: v, Layer: l}
	s.record(nil)
	return s, nil
}

func uptakesByID(obs []layer.Observation) []float64 {
	out := make([]float64, len(obs))
	for _, o := range obs {
		out[o.ID] = float64(o.Uptake)
	}
	return out
}

func (s *Session) record(prev []layer.Observation) {
	snap := s.Layer.Snapshot()
	rec := Record{
		Depth:       s.Layer.Depth(),
		Candidates:  snap,
		Fingerprint: s.Layer.Fingerprint(),
	}
	if prev != nil {
		rec.Drift = stats.NewDrift(uptakesByID(prev), uptakesByID(snap))
	}
	s.Records = append(s.Records, rec)
}

// Round runs one round and records it.
func (s *Session) Round() Record {
	prev := s.Layer.Snapshot()
	s.Layer.RunRound()
	s.record(prev)
	rec := s.Records[len(s.Records)-1]
	log.Debug().Str("scenario", s.Scenario.Name).Int("depth", rec.Depth).
		Float64("max-drift", rec.Drift.MaxAbs).Msg("round-recorded")
	return rec
}

// Rounds runs n rounds, checking ctx between them.
func (s *Session) Rounds(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Round()
	}
	return nil
}

// UntilStable runs rounds until one leaves every estimate unchanged.
func (s *Session) UntilStable(ctx context.Context, maxRounds int) (bool, error) {
	for i := 0; i < maxRounds; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		before := s.Layer.Fingerprint()
		s.Round()
		if s.Layer.Fingerprint() == before {
			return true, nil
		}
	}
	return false, nil
}

// Reset puts the layer back to depth 0 and drops the history.
func (s *Session) Reset() {
	s.Layer.Reset()
	s.Records = nil
	s.record(nil)
}

// Top observes the current top k candidates.
func (s *Session) Top(k int) []layer.Observation {
	return lo.Map(s.Layer.Selected(k), func(c *candidate.Candidate, _ int) layer.Observation {
		return layer.Observe(c)
	})
}

// Run plays a scenario through and returns every record.
func Run(ctx context.Context, sc *scenario.Scenario, opts Options) (*Result, error) {
	rounds, topK, v := opts.resolve(sc)
	sess, err := NewSession(sc, v)
	if err != nil {
		return nil, err
	}
	res := &Result{Scenario: sc.Name, Variant: v}
	if opts.UntilStable {
		res.Stable, err = sess.UntilStable(ctx, opts.MaxRounds)
	} else {
		err = sess.Rounds(ctx, rounds)
	}
	if err != nil {
		return nil, err
	}
	res.Rounds = sess.Records
	res.Selected = sess.Top(topK)
	log.Info().Str("scenario", sc.Name).Str("variant", v.String()).
		Int("depth", sess.Layer.Depth()).
		Ints("selected", lo.Map(res.Selected, func(o layer.Observation, _ int) int { return o.ID })).
		Msg("scenario-complete")
	return res, nil
}

// RunBatch runs several scenarios at once, each on its own layer. Results
// are in the same order as scs.
func RunBatch(ctx context.Context, scs []*scenario.Scenario, opts Options, threads int) ([]*Result, error) {
	if threads <= 0 {
		threads = max(1, runtime.NumCPU())
	}
	results := make([]*Result, len(scs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, sc := range scs {
		i, sc := i, sc
		g.Go(func() error {
			res, err := Run(gctx, sc, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
