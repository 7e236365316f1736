package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigRounds), 2)
	is.Equal(cfg.GetInt(ConfigTopK), 2)
	is.Equal(cfg.GetString(ConfigScenario), "round2")
	is.Equal(cfg.GetString(ConfigOutput), "table")
	is.NoErr(cfg.Validate())
}

func TestLoadFlags(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--rounds=5", "--variant", "biased", "--output=yaml"})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigRounds), 5)
	is.Equal(cfg.GetString(ConfigVariant), "biased")
	is.Equal(cfg.GetString(ConfigOutput), "yaml")
	// untouched flags keep defaults
	is.Equal(cfg.GetInt(ConfigTopK), 2)
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("CROWDGUESS_TOP_K", "4")
	cfg := &Config{}
	is.NoErr(cfg.Load(nil))
	is.Equal(cfg.GetInt(ConfigTopK), 4)
}

func TestLoadConfigFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "crowdguess.yaml")
	is.NoErr(os.WriteFile(path, []byte("rounds: 7\nscenario: round4\n"), 0o644))

	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--config-file", path}))
	is.Equal(cfg.GetInt(ConfigRounds), 7)
	is.Equal(cfg.GetString(ConfigScenario), "round4")

	is.NoErr(cfg.Load([]string{"--config-file", path, "--rounds=3"}))
	is.Equal(cfg.GetInt(ConfigRounds), 3)
}

func TestLoadRejects(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.Equal(cfg.Load([]string{"--output=xml"}), ErrUnknownOutput)
	is.True(cfg.Load([]string{"--not-a-flag"}) != nil)
}

func TestAdjustRelativePaths(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.AdjustRelativePaths("/opt/crowdguess")
	is.Equal(cfg.GetString(ConfigScenarioPath), "/opt/crowdguess/data/scenarios")
	cfg.Set(ConfigScenarioPath, "/abs")
	cfg.AdjustRelativePaths("/opt/crowdguess")
	is.Equal(cfg.GetString(ConfigScenarioPath), "/abs")
}

func TestLoadKeepsPositionalArgs(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--debug", "load", "round4"}))
	is.True(cfg.GetBool(ConfigDebug))
	is.Equal(cfg.Args(), []string{"load", "round4"})

	is.NoErr(cfg.Load([]string{"--", "hist", "-bins", "5"}))
	is.Equal(cfg.Args(), []string{"hist", "-bins", "5"})
}
