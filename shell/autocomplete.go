package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/crowdguess/config"
	"github.com/domino14/crowdguess/scenario"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-bins")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"random": {
		Options: []string{"-maxmult", "-maxdiv"},
	},
	"variant": {
		Args: []string{"single", "biased"},
	},
	"batch": {
		Options: []string{"-stable"},
	},
	"hist": {
		Options: []string{"-bins", "-width"},
	},
	"export": {
		Args:    []string{"yaml", "json"},
		Options: []string{"-file"},
	},
	"bestbid": {
		Options: []string{"-floor", "-ceiling", "-mean", "-stddev"},
	},
	"setconfig": {
		Args: []string{
			config.ConfigRounds, config.ConfigTopK, config.ConfigMaxRounds,
			config.ConfigHistogramBins, config.ConfigThreads,
			config.ConfigScenario, config.ConfigScenarioPath, config.ConfigOutput,
		},
	},
	"help": {
		Args: helpTopics,
	},
}

var commandNames = []string{
	"help", "load", "scenarios", "random", "variant", "round", "stable",
	"show", "history", "top", "hist", "export", "batch", "reset", "bestbid",
	"setconfig", "script", "exit",
}

var outputValues = []string{"table", "yaml", "json"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unbalanced quotes while typing
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch {
		case (cmdName == "load" || cmdName == "batch") && !strings.HasPrefix(prefix, "-"):
			completions = scenario.Names()
		case cmdName == "setconfig" && lastCompleteField == config.ConfigOutput:
			completions = outputValues
		case cmdName == "setconfig" && lastCompleteField == config.ConfigScenario:
			completions = scenario.Names()
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
