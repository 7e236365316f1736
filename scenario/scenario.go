// Package scenario describes a candidate set and how to run it: which
// variant, how many rounds, and how many picks to report.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/crowdguess/cache"
	"github.com/domino14/crowdguess/candidate"
	"github.com/domino14/crowdguess/layer"
)

const (
	DefaultRounds = 2
	DefaultTopK   = layer.DefaultSelected
)

var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrNoCandidates    = errors.New("scenario has no candidates")
)

// Entry describes one candidate before it is built.
type Entry struct {
	Multiplier int `json:"multiplier" yaml:"multiplier"`
	Divisor    int `json:"divisor" yaml:"divisor"`
}

type Scenario struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Variant     layer.Variant `json:"variant" yaml:"variant"`
	Rounds      int           `json:"rounds" yaml:"rounds"`
	TopK        int           `json:"top_k" yaml:"top_k"`
	Candidates  []Entry       `json:"candidates" yaml:"candidates"`
}

// Build creates fresh candidates, numbered in listing order.
func (s *Scenario) Build() ([]*candidate.Candidate, error) {
	if len(s.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	cands := make([]*candidate.Candidate, len(s.Candidates))
	for i, sp := range s.Candidates {
		c, err := candidate.New(i, sp.Multiplier, sp.Divisor)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		cands[i] = c
	}
	return cands, nil
}

// Layer builds the candidates and a layer for the scenario's variant.
func (s *Scenario) Layer() (*layer.Layer, error) {
	cands, err := s.Build()
	if err != nil {
		return nil, err
	}
	return layer.NewVariant(s.Variant, cands)
}

func (s *Scenario) Validate() error {
	_, err := s.Build()
	return err
}

func (s *Scenario) applyDefaults() {
	if s.Rounds <= 0 {
		s.Rounds = DefaultRounds
	}
	if s.TopK <= 0 {
		s.TopK = DefaultTopK
	}
}

func Parse(r io.Reader) (*Scenario, error) {
	s := &Scenario{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Write serializes the scenario as YAML.
func (s *Scenario) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Find resolves a name to a scenario. It tries, in order: a path to a file,
// a built-in scenario, and <name>.yaml inside dir. Files are parsed once per
// modification time.
func Find(name, dir string) (*Scenario, error) {
	if fi, err := os.Stat(name); err == nil {
		return loadCached(name, fi)
	}
	if s, err := Builtin(name); err == nil {
		return s, nil
	}
	if dir != "" {
		p := filepath.Join(dir, name+".yaml")
		if fi, err := os.Stat(p); err == nil {
			return loadCached(p, fi)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
}

func loadCached(path string, fi os.FileInfo) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("scenario:%s@%d", abs, fi.ModTime().UnixNano())
	obj, err := cache.Load(key, func(string) (any, error) {
		return Load(path)
	})
	if err != nil {
		return nil, err
	}
	return obj.(*Scenario).clone(), nil
}

func (s *Scenario) clone() *Scenario {
	cp := *s
	cp.Candidates = slices.Clone(s.Candidates)
	return &cp
}

func pairs(ps ...[2]int) []Entry {
	return lo.Map(ps, func(p [2]int, _ int) Entry {
		return Entry{Multiplier: p[0], Divisor: p[1]}
	})
}

var builtins = map[string]func() *Scenario{
	"round2": func() *Scenario {
		return &Scenario{
			Name:        "round2",
			Description: "ten containers, value ranking only",
			Variant:     layer.VariantSinglePass,
			Rounds:      2,
			TopK:        2,
			Candidates: pairs(
				[2]int{10, 1}, [2]int{80, 6}, [2]int{37, 3}, [2]int{17, 1}, [2]int{31, 2},
				[2]int{90, 10}, [2]int{50, 4}, [2]int{20, 2}, [2]int{73, 4}, [2]int{89, 8},
			),
		}
	},
	"round4": func() *Scenario {
		return &Scenario{
			Name:        "round4",
			Description: "twenty containers in four rows, with multiplier bias passes",
			Variant:     layer.VariantBiased,
			Rounds:      2,
			TopK:        2,
			Candidates: pairs(
				[2]int{80, 6}, [2]int{50, 4}, [2]int{83, 7}, [2]int{31, 2}, [2]int{60, 4},
				[2]int{89, 8}, [2]int{10, 1}, [2]int{37, 3}, [2]int{78, 4}, [2]int{98, 10},
				[2]int{17, 1}, [2]int{40, 3}, [2]int{73, 4}, [2]int{100, 15}, [2]int{20, 2},
				[2]int{41, 3}, [2]int{79, 5}, [2]int{23, 2}, [2]int{47, 3}, [2]int{30, 2},
			),
		}
	},
}

// Builtin returns a fresh copy of a built-in scenario.
func Builtin(name string) (*Scenario, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, name)
	}
	return f(), nil
}

func Names() []string {
	names := lo.Keys(builtins)
	sort.Strings(names)
	return names
}
