package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/domino14/crowdguess/bestbid"
	"github.com/domino14/crowdguess/report"
)

type output struct {
	Params bestbid.Params  `json:"params" yaml:"params"`
	Best   bestbid.Point   `json:"best" yaml:"best"`
	Curve  []bestbid.Point `json:"curve,omitempty" yaml:"curve,omitempty"`
}

func main() {
	d := bestbid.DefaultParams
	floor := pflag.Int("floor", d.Floor, "lowest bid considered")
	ceiling := pflag.Int("ceiling", d.Ceiling, "price at which a bid earns nothing")
	mean := pflag.Float64("mean", d.Mean, "expected average bid of everyone else")
	stddev := pflag.Float64("stddev", d.Stddev, "standard deviation of the average bid")
	curve := pflag.Bool("curve", false, "also print the expected value of every bid")
	format := pflag.String("output", "table", "table, yaml, or json")
	debug := pflag.Bool("debug", false, "debug logging on")
	pflag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	m, err := bestbid.NewModel(bestbid.Params{
		Floor: *floor, Ceiling: *ceiling, Mean: *mean, Stddev: *stddev,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("bad-parameters")
	}
	out := output{Params: m.Params(), Best: m.Best()}
	if *curve {
		out.Curve = m.Curve()
	}

	switch *format {
	case "yaml":
		err = report.WriteYAML(os.Stdout, out)
	case "json":
		err = report.WriteJSON(os.Stdout, out)
	default:
		for _, p := range out.Curve {
			fmt.Printf("%d %.6f\n", p.Price, p.EV)
		}
		fmt.Printf("Best bid: %d (expected value %.6f)\n", out.Best.Price, out.Best.EV)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("writing-output")
	}
}
