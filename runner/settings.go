package runner

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/crowdguess/config"
	"github.com/domino14/crowdguess/layer"
	"github.com/domino14/crowdguess/scenario"
)

// Options override what a scenario asks for. Zero values defer to the
// scenario.
type Options struct {
	Rounds  int
	TopK    int
	Variant *layer.Variant
	// UntilStable keeps running rounds until the estimates stop moving,
	// up to MaxRounds, instead of running a fixed number.
	UntilStable bool
	MaxRounds   int
}

// SetDefaults fills unset options from the config.
func (opts *Options) SetDefaults(cfg *config.Config) {
	if opts.MaxRounds == 0 {
		opts.MaxRounds = cfg.GetInt(config.ConfigMaxRounds)
	}
	if opts.Variant == nil {
		if vs := cfg.GetString(config.ConfigVariant); vs != "" {
			v, err := layer.ParseVariant(vs)
			if err != nil {
				log.Warn().Err(err).Msg("ignoring-configured-variant")
			} else {
				opts.Variant = &v
			}
		}
	}
}

// resolve returns the effective round count, top-k, and variant for sc.
func (opts Options) resolve(sc *scenario.Scenario) (int, int, layer.Variant) {
	rounds, topK, v := sc.Rounds, sc.TopK, sc.Variant
	if opts.Rounds > 0 {
		rounds = opts.Rounds
	}
	if opts.TopK > 0 {
		topK = opts.TopK
	}
	if opts.Variant != nil {
		v = *opts.Variant
	}
	return rounds, topK, v
}
