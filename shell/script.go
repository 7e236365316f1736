package shell

import (
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/domino14/crowdguess/layer"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("crowdguess_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// Exec runs any shell command line and returns its output, or an ERROR:
// string.
func Exec(L *lua.LState) int {
	lv := L.ToString(1)
	sc := getShell(L)
	r, err := sc.ProcessCommand(lv)
	if err != nil {
		log.Err(err).Str("line", lv).Msg("error-executing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	if r == nil {
		L.Push(lua.LString(""))
		return 1
	}
	L.Push(lua.LString(r.message))
	// return number of results pushed to stack.
	return 1
}

func Load(L *lua.LState) int {
	lv := L.ToString(1)
	return pushCommand(L, "load "+lv)
}

func Round(L *lua.LState) int {
	n := L.OptInt(1, 1)
	sc := getShell(L)
	if err := sc.requireSession(); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	for i := 0; i < n; i++ {
		sc.session.Round()
	}
	L.Push(lua.LNumber(sc.session.Layer.Depth()))
	return 1
}

// Top returns an array of tables with id, multiplier, divisor, uptake and
// value fields.
func Top(L *lua.LState) int {
	sc := getShell(L)
	if err := sc.requireSession(); err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	k := L.OptInt(1, layer.DefaultSelected)
	tbl := L.NewTable()
	for _, o := range sc.session.Top(k) {
		row := L.NewTable()
		row.RawSetString("id", lua.LNumber(o.ID))
		row.RawSetString("multiplier", lua.LNumber(o.Multiplier))
		row.RawSetString("divisor", lua.LNumber(o.Divisor))
		row.RawSetString("uptake", lua.LNumber(o.Uptake))
		row.RawSetString("value", lua.LNumber(o.Value))
		tbl.Append(row)
	}
	L.Push(tbl)
	return 1
}

func pushCommand(L *lua.LState, line string) int {
	sc := getShell(L)
	r, err := sc.ProcessCommand(line)
	if err != nil {
		log.Err(err).Str("line", line).Msg("error-executing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	L.Push(lua.LString(r.message))
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("crowdguess_shell", lsc)
	L.SetGlobal("crowdguess_exec", L.NewFunction(Exec))
	L.SetGlobal("crowdguess_load", L.NewFunction(Load))
	L.SetGlobal("crowdguess_round", L.NewFunction(Round))
	L.SetGlobal("crowdguess_top", L.NewFunction(Top))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return msg("ran " + filepath), nil
}
