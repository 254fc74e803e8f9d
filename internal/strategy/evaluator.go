// Package strategy defines the contract for evaluating player-submitted
// strategy programs against live match context, and a Lua implementation of
// it. The match loop depends only on the Evaluator interface, keeping the
// sandbox technology swappable.
package strategy

import (
	"context"
	"time"

	"codearena/internal/game"
)

// SlotCount is the number of action intents one evaluation produces.
const SlotCount = 3

// Rule is one entry of a submission's ordered rule stack. The first rule
// whose guard evaluates truthy selects the program function named by Name;
// an empty guard is always true.
type Rule struct {
	Name  string `json:"name"`
	Guard string `json:"guard"`
}

// Submission is one combatant's strategy upload. Read-only to the match
// loop; replaced wholesale on each submit.
type Submission struct {
	Program         string
	Rules           []Rule
	CooldownProgram string
	SubmittedAt     time.Time
	ActiveUntil     time.Time // end of the post-submission lock window
}

// Locked reports whether the submission is still inside its lock window, in
// which case the cooldown program is evaluated instead of the main one.
func (s *Submission) Locked(now time.Time) bool {
	return now.Before(s.ActiveUntil)
}

// Context carries the numeric match arguments exposed to programs and
// guards. Keys: p1_hp, p2_hp, p1_mana, p2_mana, p1_ki, p2_ki, p1_pos,
// p2_pos, timer, p1_points, p2_points, my_pos.
type Context map[string]int

// SyntaxResult is the outcome of a compile-only program check.
type SyntaxResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Evaluator produces up to SlotCount action intents from a program, its rule
// stack and a context snapshot. Implementations must honor ctx cancellation
// between internal steps; a returned error always comes with a usable
// fallback triple so callers never have to invent one.
type Evaluator interface {
	Evaluate(ctx context.Context, program string, rules []Rule, args Context) ([]game.Action, error)
	CheckSyntax(program string) SyntaxResult
}

// IdleTriple returns a fresh all-idle intent set.
func IdleTriple() []game.Action {
	return fallbackTriple(game.ActionIdle)
}

// CooldownTriple returns a fresh all-cooldown intent set.
func CooldownTriple() []game.Action {
	return fallbackTriple(game.ActionCooldown)
}

func fallbackTriple(a game.Action) []game.Action {
	out := make([]game.Action, SlotCount)
	for i := range out {
		out[i] = a
	}
	return out
}

// Normalize pads a result shorter than SlotCount with idle and discards a
// result longer than SlotCount entirely (normalized to idles), matching the
// accumulator contract.
func Normalize(actions []game.Action) []game.Action {
	if len(actions) > SlotCount {
		return IdleTriple()
	}
	out := make([]game.Action, 0, SlotCount)
	out = append(out, actions...)
	for len(out) < SlotCount {
		out = append(out, game.ActionIdle)
	}
	return out
}
