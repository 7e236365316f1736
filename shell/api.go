package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/crowdguess/bestbid"
	"github.com/domino14/crowdguess/config"
	"github.com/domino14/crowdguess/layer"
	"github.com/domino14/crowdguess/report"
	"github.com/domino14/crowdguess/runner"
	"github.com/domino14/crowdguess/scenario"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func intOption(options map[string]string, key string, defaultI int) (int, error) {
	v, ok := options[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func floatOption(options map[string]string, key string, defaultF float64) (float64, error) {
	v, ok := options[key]
	if !ok {
		return defaultF, nil
	}
	return strconv.ParseFloat(v, 64)
}

// intArg parses args[idx] if present.
func intArg(args []string, idx, defaultI int) (int, error) {
	if len(args) <= idx {
		return defaultI, nil
	}
	return strconv.Atoi(args[idx])
}

func (sc *ShellController) requireSession() error {
	if sc.session == nil {
		return errNoSession
	}
	return nil
}

func (sc *ShellController) startSession(s *scenario.Scenario) (*Response, error) {
	v := s.Variant
	if sc.variant != nil {
		v = *sc.variant
	}
	sess, err := runner.NewSession(s, v)
	if err != nil {
		return nil, err
	}
	sc.session = sess
	log.Info().Str("scenario", s.Name).Str("variant", v.String()).
		Int("candidates", len(s.Candidates)).Msg("loaded-scenario")
	return msg(report.Table(sess.Records[0])), nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	name := sc.config.GetString(config.ConfigScenario)
	if len(cmd.args) > 0 {
		name = cmd.args[0]
	}
	s, err := scenario.Find(name, sc.config.GetString(config.ConfigScenarioPath))
	if err != nil {
		return nil, err
	}
	return sc.startSession(s)
}

func (sc *ShellController) scenarios(cmd *shellcmd) (*Response, error) {
	var ss strings.Builder
	for _, name := range scenario.Names() {
		s, err := scenario.Builtin(name)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&ss, "%-10s%-8s%3d candidates  %s\n", name, s.Variant, len(s.Candidates), s.Description)
	}
	return msg(strings.TrimRight(ss.String(), "\n")), nil
}

func (sc *ShellController) random(cmd *shellcmd) (*Response, error) {
	n, err := intArg(cmd.args, 0, 10)
	if err != nil {
		return nil, err
	}
	maxMult, err := intOption(cmd.options, "maxmult", 100)
	if err != nil {
		return nil, err
	}
	maxDiv, err := intOption(cmd.options, "maxdiv", 10)
	if err != nil {
		return nil, err
	}
	v := layer.VariantSinglePass
	if sc.variant != nil {
		v = *sc.variant
	}
	s, err := scenario.Random(n, maxMult, maxDiv, v)
	if err != nil {
		return nil, err
	}
	return sc.startSession(s)
}

func (sc *ShellController) setVariant(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		if sc.session != nil {
			return msg("current variant: " + sc.session.Variant.String()), nil
		}
		return msg("no variant override"), nil
	}
	v, err := layer.ParseVariant(cmd.args[0])
	if err != nil {
		return nil, err
	}
	sc.variant = &v
	if sc.session == nil {
		return msg("variant set to " + v.String()), nil
	}
	// Restart the current scenario with the new passes.
	return sc.startSession(sc.session.Scenario)
}

func (sc *ShellController) round(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	n, err := intArg(cmd.args, 0, 1)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, errors.New("number of rounds must be positive")
	}
	if err := sc.session.Rounds(context.Background(), n); err != nil {
		return nil, err
	}
	recs := sc.session.Records
	return msg(report.Table(recs[len(recs)-1])), nil
}

func (sc *ShellController) stable(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	maxRounds, err := intArg(cmd.args, 0, sc.config.GetInt(config.ConfigMaxRounds))
	if err != nil {
		return nil, err
	}
	before := sc.session.Layer.Depth()
	settled, err := sc.session.UntilStable(context.Background(), maxRounds)
	if err != nil {
		return nil, err
	}
	ran := sc.session.Layer.Depth() - before
	recs := sc.session.Records
	out := report.Table(recs[len(recs)-1])
	if settled {
		return msg(fmt.Sprintf("%sSettled after %d rounds.", out, ran)), nil
	}
	return msg(fmt.Sprintf("%sStill moving after %d rounds.", out, ran)), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	recs := sc.session.Records
	return msg(report.Table(recs[len(recs)-1])), nil
}

func (sc *ShellController) history(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	var ss strings.Builder
	for _, rec := range sc.session.Records {
		ss.WriteString(report.Table(rec))
	}
	return msg(strings.TrimRight(ss.String(), "\n")), nil
}

func (sc *ShellController) top(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	k, err := intArg(cmd.args, 0, sc.config.GetInt(config.ConfigTopK))
	if err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(report.Selected(sc.session.Top(k)), "\n")), nil
}

func (sc *ShellController) hist(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	bins, err := intOption(cmd.options, "bins", sc.config.GetInt(config.ConfigHistogramBins))
	if err != nil {
		return nil, err
	}
	width, err := intOption(cmd.options, "width", 50)
	if err != nil {
		return nil, err
	}
	recs := sc.session.Records
	var buf bytes.Buffer
	if err := report.WriteHistogram(&buf, recs[len(recs)-1], bins, width); err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(buf.String(), "\n")), nil
}

// export writes the session so far as yaml or json, to -file or the
// response.
func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	format := "yaml"
	if len(cmd.args) > 0 {
		format = cmd.args[0]
	}
	if format == "table" {
		return nil, errors.New("export supports yaml and json")
	}
	res := &runner.Result{
		Scenario: sc.session.Scenario.Name,
		Variant:  sc.session.Variant,
		Rounds:   sc.session.Records,
		Selected: sc.session.Top(sc.config.GetInt(config.ConfigTopK)),
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, format, res); err != nil {
		return nil, err
	}
	if path := cmd.options["file"]; path != "" {
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
		return msg("wrote " + path), nil
	}
	return msg(strings.TrimRight(buf.String(), "\n")), nil
}

func (sc *ShellController) reset(cmd *shellcmd) (*Response, error) {
	if err := sc.requireSession(); err != nil {
		return nil, err
	}
	sc.session.Reset()
	return msg(report.Table(sc.session.Records[0])), nil
}

func (sc *ShellController) bestbid(cmd *shellcmd) (*Response, error) {
	p := bestbid.DefaultParams
	var err error
	if p.Floor, err = intOption(cmd.options, "floor", p.Floor); err != nil {
		return nil, err
	}
	if p.Ceiling, err = intOption(cmd.options, "ceiling", p.Ceiling); err != nil {
		return nil, err
	}
	if p.Mean, err = floatOption(cmd.options, "mean", p.Mean); err != nil {
		return nil, err
	}
	if p.Stddev, err = floatOption(cmd.options, "stddev", p.Stddev); err != nil {
		return nil, err
	}
	best, err := bestbid.Best(p)
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("best bid %d, expected value %.4f", best.Price, best.EV)), nil
}

func (sc *ShellController) setConfig(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: setconfig <key> <value>")
	}
	key, val := cmd.args[0], cmd.args[1]
	old := sc.config.Get(key)
	switch key {
	case config.ConfigRounds, config.ConfigTopK, config.ConfigMaxRounds,
		config.ConfigHistogramBins, config.ConfigThreads:
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		sc.config.Set(key, n)
	case config.ConfigScenario, config.ConfigScenarioPath, config.ConfigOutput:
		sc.config.Set(key, val)
	default:
		return nil, fmt.Errorf("%s is not a settable key", key)
	}
	if err := sc.config.Validate(); err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	return msg(key + " set to " + val), nil
}

// batch runs each named scenario to completion on its own layer, in
// parallel, and writes the results in the configured output format.
func (sc *ShellController) batch(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need at least one scenario for batch")
	}
	dir := sc.config.GetString(config.ConfigScenarioPath)
	scs := make([]*scenario.Scenario, len(cmd.args))
	for i, name := range cmd.args {
		s, err := scenario.Find(name, dir)
		if err != nil {
			return nil, err
		}
		scs[i] = s
	}
	opts := runner.Options{
		Rounds: sc.config.GetInt(config.ConfigRounds),
		TopK:   sc.config.GetInt(config.ConfigTopK),
	}
	if sc.variant != nil {
		v := *sc.variant
		opts.Variant = &v
	}
	opts.SetDefaults(sc.config)
	if _, ok := cmd.options["stable"]; ok {
		opts.UntilStable = true
		maxRounds, err := intOption(cmd.options, "stable", opts.MaxRounds)
		if err != nil {
			return nil, err
		}
		opts.MaxRounds = maxRounds
	}
	results, err := runner.RunBatch(context.Background(), scs, opts,
		sc.config.GetInt(config.ConfigThreads))
	if err != nil {
		return nil, err
	}
	format := sc.config.GetString(config.ConfigOutput)
	var buf bytes.Buffer
	for _, res := range results {
		if err := report.Write(&buf, format, res); err != nil {
			return nil, err
		}
		if format == "table" {
			buf.WriteString("\n")
		}
	}
	return msg(strings.TrimRight(buf.String(), "\n")), nil
}
