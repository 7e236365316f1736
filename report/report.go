// Package report renders runner results for people and for other tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/crowdguess/layer"
	"github.com/domino14/crowdguess/runner"
)

const rule = "****************************************"

var ErrBadHistogram = errors.New("histogram needs at least one bin and a positive width")

func TableHeader() string {
	return fmt.Sprintf("%-5s%-8s%-10s%-10s%-9s%s\n", "#", "ID", "Mult", "Divisor", "Uptake", "Value")
}

func TableRow(idx int, o layer.Observation) string {
	return fmt.Sprintf("%-5d%-8d%-10d%-10d%-9d%d\n", idx+1, o.ID, o.Multiplier, o.Divisor, o.Uptake, o.Value)
}

// Table renders one record.
func Table(rec runner.Record) string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "Layer %d %s\n", rec.Depth, rule[len("Layer 0 "):])
	ss.WriteString(TableHeader())
	for i, o := range rec.Candidates {
		ss.WriteString(TableRow(i, o))
	}
	if rec.Depth > 0 {
		fmt.Fprintf(&ss, "drift: mean %.3f  max %.0f  stdev %.3f\n",
			rec.Drift.MeanAbs, rec.Drift.MaxAbs, rec.Drift.Stdev)
	}
	ss.WriteString(rule)
	ss.WriteString("\n")
	return ss.String()
}

func Selected(obs []layer.Observation) string {
	var ss strings.Builder
	fmt.Fprintf(&ss, "Top %d:\n", len(obs))
	for i, o := range obs {
		fmt.Fprintf(&ss, "%3d: candidate %d (mult %d, divisor %d) value %d\n",
			i+1, o.ID, o.Multiplier, o.Divisor, o.Value)
	}
	return ss.String()
}

// WriteTable writes every record of the result, then the selection.
func WriteTable(w io.Writer, res *runner.Result) error {
	fmt.Fprintf(w, "Scenario %s (%s)\n\n", res.Scenario, res.Variant)
	for _, rec := range res.Rounds {
		if _, err := io.WriteString(w, Table(rec)+"\n"); err != nil {
			return err
		}
	}
	if res.Stable {
		fmt.Fprintf(w, "Estimates settled at depth %d.\n", res.Final().Depth)
	}
	_, err := io.WriteString(w, Selected(res.Selected))
	return err
}

func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Write picks a renderer by name: table, yaml or json.
func Write(w io.Writer, format string, res *runner.Result) error {
	switch format {
	case "yaml":
		return WriteYAML(w, res)
	case "json":
		return WriteJSON(w, res)
	case "table", "":
		return WriteTable(w, res)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// Histogram buckets the uptake estimates of one record.
func Histogram(rec runner.Record, bins int) histogram.Histogram {
	data := lo.Map(rec.Candidates, func(o layer.Observation, _ int) float64 {
		return float64(o.Uptake)
	})
	return histogram.Hist(bins, data)
}

func WriteHistogram(w io.Writer, rec runner.Record, bins, width int) error {
	if bins < 1 || width < 1 {
		return ErrBadHistogram
	}
	fmt.Fprintf(w, "Uptake at depth %d:\n", rec.Depth)
	return histogram.Fprint(w, Histogram(rec, bins), histogram.Linear(width))
}
