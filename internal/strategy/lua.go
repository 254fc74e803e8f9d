package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"codearena/internal/game"
)

// LuaEvaluator runs strategy programs in an embedded Lua sandbox. Every call
// gets a fresh interpreter state, so programs cannot retain state between
// ticks or observe each other. Only the base, math, string and table
// libraries are opened; os/io are never available to player code.
//
// Lua offers no preemption, so a program stuck in an unbounded loop cannot
// be interrupted from here; callers bound wall time by evaluating on a
// separate goroutine and abandoning the call when ctx expires.
type LuaEvaluator struct{}

// NewLuaEvaluator returns a ready evaluator. The zero value is also usable.
func NewLuaEvaluator() *LuaEvaluator {
	return &LuaEvaluator{}
}

// actionMethod maps a player-handle method name to the labels it records.
// The big cards consume a second slot, recording a trailing idle.
var actionMethods = map[string][]game.Action{
	"idle":                {game.ActionIdle},
	"attack1":             {game.ActionAttack1},
	"attack2":             {game.ActionAttack2},
	"attack3":             {game.ActionAttack3},
	"defend":              {game.ActionDefend},
	"run":                 {game.ActionRun},
	"runopp":              {game.ActionRunOpp},
	"runattack":           {game.ActionRunAttack},
	"push":                {game.ActionPush},
	"cooldown":            {game.ActionCooldown},
	"use_card_small_hp":   {game.ActionUseSmallHP},
	"use_card_big_hp":     {game.ActionUseBigHP, game.ActionIdle},
	"use_card_small_mana": {game.ActionUseSmallMana},
	"use_card_big_mana":   {game.ActionUseBigMana, game.ActionIdle},
}

// Evaluate runs the rule stack against args and returns the selected
// function's recorded actions, normalized to exactly SlotCount entries.
//
// Semantics follow the submission contract: rules are tried in order, the
// first truthy guard wins and short-circuits even if its function records
// nothing; a missing function, a runtime error or an over-long recording
// normalizes to idles. The returned error reports why a fallback was used;
// the first return value is always a valid triple.
func (e *LuaEvaluator) Evaluate(ctx context.Context, program string, rules []Rule, args Context) ([]game.Action, error) {
	if strings.TrimSpace(program) == "" {
		return IdleTriple(), nil
	}

	l := lua.NewState()
	openSandboxLibraries(l)

	acc := make([]game.Action, 0, SlotCount+1)
	installEnvironment(l, args, &acc)

	if err := lua.LoadString(l, program); err != nil {
		return IdleTriple(), fmt.Errorf("strategy: compile program: %w", err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return IdleTriple(), fmt.Errorf("strategy: run program: %w", err)
	}

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return IdleTriple(), err
		}

		name := strings.TrimSpace(rule.Name)
		if name == "" {
			continue
		}
		if !guardHolds(l, rule.Guard) {
			continue
		}

		// First matching rule decides the tick, whatever happens next.
		l.Global(name)
		if l.TypeOf(-1) != lua.TypeFunction {
			l.Pop(1)
			return IdleTriple(), fmt.Errorf("strategy: function %q not defined", name)
		}

		acc = acc[:0]
		l.Global("p")
		if err := l.ProtectedCall(1, 0, 0); err != nil {
			return IdleTriple(), fmt.Errorf("strategy: call %s: %w", name, err)
		}
		return Normalize(acc), nil
	}

	return IdleTriple(), nil
}

// CheckSyntax compiles the program without executing it.
func (e *LuaEvaluator) CheckSyntax(program string) SyntaxResult {
	l := lua.NewState()
	if err := lua.LoadString(l, program); err != nil {
		return SyntaxResult{OK: false, Message: err.Error()}
	}
	return SyntaxResult{OK: true}
}

// openSandboxLibraries loads the safe subset of the standard libraries.
func openSandboxLibraries(l *lua.State) {
	for _, lib := range []struct {
		name string
		open lua.Function
	}{
		{"_G", lua.BaseOpen},
		{"math", lua.MathOpen},
		{"string", lua.StringOpen},
		{"table", lua.TableOpen},
	} {
		lua.Require(l, lib.name, lib.open, true)
		l.Pop(1)
	}
}

// installEnvironment exposes the match context to the program: every context
// key as a numeric global, stat tables p1 and p2, and the player handle p
// whose action methods record into acc. Which side p mirrors is derived from
// my_pos, the same way guards see it.
func installEnvironment(l *lua.State, args Context, acc *[]game.Action) {
	for key, value := range args {
		l.PushInteger(value)
		l.SetGlobal(key)
	}

	pushStatsTable(l, args, "p1")
	l.SetGlobal("p1")
	pushStatsTable(l, args, "p2")
	l.SetGlobal("p2")

	self := "p1"
	if args["my_pos"] == args["p2_pos"] && args["my_pos"] != args["p1_pos"] {
		self = "p2"
	}
	pushStatsTable(l, args, self)
	for name, labels := range actionMethods {
		labels := labels
		l.PushGoFunction(func(l *lua.State) int {
			*acc = append(*acc, labels...)
			return 0
		})
		l.SetField(-2, name)
	}
	l.SetGlobal("p")
}

// pushStatsTable leaves a table {hp, mana, ki, pos} for the given side on
// the stack.
func pushStatsTable(l *lua.State, args Context, side string) {
	l.NewTable()
	for _, stat := range []string{"hp", "mana", "ki", "pos"} {
		l.PushInteger(args[side+"_"+stat])
		l.SetField(-2, stat)
	}
}

// guardHolds evaluates a guard expression against the installed globals.
// An empty guard is always true; a guard that fails to compile or errors at
// runtime is false, so a broken rule is skipped rather than fatal.
func guardHolds(l *lua.State, guard string) bool {
	guard = strings.TrimSpace(guard)
	if guard == "" {
		return true
	}
	if err := lua.LoadString(l, "return ("+guard+")"); err != nil {
		return false
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return false
	}
	ok := l.ToBoolean(-1)
	l.Pop(1)
	return ok
}
