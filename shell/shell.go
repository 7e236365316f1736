package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/crowdguess/config"
	"github.com/domino14/crowdguess/layer"
	"github.com/domino14/crowdguess/runner"
)

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoSession         = errors.New("please load a scenario first with the `load` command")
	errQuit              = errors.New("sending quit signal")
)

type ShellController struct {
	l *readline.Instance
	// out receives messages when there is no readline instance.
	out io.Writer

	config     *config.Config
	execPath   string
	gitVersion string

	session *runner.Session
	// variant overrides the scenario's own on the next load.
	variant *layer.Variant
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config, execPath, gitVersion string) *ShellController {
	sc := newController(cfg, os.Stderr)
	sc.execPath = execPath
	sc.gitVersion = gitVersion

	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mcrowdguess>\033[0m ",
		HistoryFile:     "/tmp/crowdguess_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	return sc
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	sc := &ShellController{config: cfg, out: out}
	if vs := cfg.GetString(config.ConfigVariant); vs != "" {
		if v, err := layer.ParseVariant(vs); err == nil {
			sc.variant = &v
		}
	}
	return sc
}

func (sc *ShellController) writer() io.Writer {
	if sc.l != nil {
		return sc.l.Stderr()
	}
	return sc.out
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.writer())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for idx := 1; idx < len(fields); idx++ {
		field := fields[idx]
		if strings.HasPrefix(field, "-") && len(field) > 1 {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[field[1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, field)
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

// ProcessCommand runs one command line and returns its response.
func (sc *ShellController) ProcessCommand(line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("cmd", cmd.cmd).Strs("args", cmd.args).Msg("shell-command")

	switch cmd.cmd {
	case "exit", "bye":
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "load":
		return sc.load(cmd)
	case "scenarios":
		return sc.scenarios(cmd)
	case "random":
		return sc.random(cmd)
	case "variant":
		return sc.setVariant(cmd)
	case "round", "r":
		return sc.round(cmd)
	case "stable":
		return sc.stable(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "history":
		return sc.history(cmd)
	case "top":
		return sc.top(cmd)
	case "hist":
		return sc.hist(cmd)
	case "export":
		return sc.export(cmd)
	case "batch":
		return sc.batch(cmd)
	case "reset":
		return sc.reset(cmd)
	case "bestbid":
		return sc.bestbid(cmd)
	case "setconfig":
		return sc.setConfig(cmd)
	case "script":
		return sc.script(cmd)
	}
	return nil, fmt.Errorf("command %q not recognized; try `help`", cmd.cmd)
}

func (sc *ShellController) handle(line string, sig chan os.Signal) bool {
	resp, err := sc.ProcessCommand(line)
	if err == errQuit {
		sig <- syscall.SIGINT
		return false
	}
	if err == errNoData {
		return true
	}
	if err != nil {
		sc.showError(err)
		return true
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
	return true
}

// Execute runs a single command line, then returns.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	sc.handle(line, sig)
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if !sc.handle(line, sig) {
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func (sc *ShellController) Cleanup() {
	log.Info().Msg("shell cleanup")
}
