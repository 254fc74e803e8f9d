// Package game implements the arena's canonical match state and the
// deterministic turn resolver. It contains pure logic with no external
// dependencies so every rule stays testable in isolation.
package game

import "strings"

// Action identifies a combatant action for one sub-tick. The evaluator hands
// actions to the resolver as labels, so the type is a string enum rather than
// an integer one; all rule tables below are keyed by it explicitly.
type Action string

// Core actions.
const (
	ActionIdle      Action = "idle"
	ActionAttack1   Action = "attack1"
	ActionAttack2   Action = "attack2"
	ActionAttack3   Action = "attack3"
	ActionRun       Action = "run"
	ActionRunOpp    Action = "runopp"
	ActionRunAttack Action = "runattack"
	ActionPush      Action = "push"
	ActionDefend    Action = "defend"
	ActionHurt      Action = "hurt"
	ActionDead      Action = "dead"
	ActionCooldown  Action = "cooldown"
	ActionJump      Action = "jump"
)

// Card-use actions. These carry no entry in the cost table; the resolver
// routes them to card-effect application instead.
const (
	ActionUseSmallHP   Action = "use_card_small_hp"
	ActionUseBigHP     Action = "use_card_big_hp"
	ActionUseSmallMana Action = "use_card_small_mana"
	ActionUseBigMana   Action = "use_card_big_mana"
)

// cardActionPrefix marks actions that consume a restoration card.
const cardActionPrefix = "use_card_"

// Cost is the resource price of an action.
type Cost struct {
	Mana int
	Ki   int
}

// Costs maps each priced action to its mana/ki cost. Actions absent from the
// table (card uses, unknown labels) bypass resource validation entirely.
var Costs = map[Action]Cost{
	ActionAttack1:   {Mana: 20},
	ActionAttack2:   {Mana: 15, Ki: 15},
	ActionAttack3:   {Ki: 20},
	ActionRun:       {Ki: 5},
	ActionRunOpp:    {Ki: 5},
	ActionRunAttack: {Ki: 20},
	ActionPush:      {Ki: 15},
	ActionDefend:    {},
	ActionIdle:      {},
	ActionHurt:      {},
	ActionDead:      {},
	ActionCooldown:  {},
}

// damageProfile is the base damage of an attack by zone distance.
type damageProfile struct {
	Same     int // attacker and defender share a zone
	Adjacent int // zones are exactly one apart
}

// damage maps each attack action to its damage profile. Distances beyond
// adjacent always deal zero.
var damage = map[Action]damageProfile{
	ActionAttack1:   {Same: 20, Adjacent: 10},
	ActionAttack2:   {Same: 15},
	ActionAttack3:   {Same: 10},
	ActionRunAttack: {Adjacent: 15},
}

// IsAttack reports whether a is one of the four attack actions.
func IsAttack(a Action) bool {
	_, ok := damage[a]
	return ok
}

// IsCardUse reports whether a names a card-use action, returning the card
// kind when it does. The kind is not checked for existence here; unknown
// kinds no-op during consumption.
func IsCardUse(a Action) (CardKind, bool) {
	if !strings.HasPrefix(string(a), cardActionPrefix) {
		return "", false
	}
	return CardKind(strings.TrimPrefix(string(a), cardActionPrefix)), true
}

// BaseDamage returns the damage a deals from attackerPos against defenderPos,
// before any defend reduction. Non-attack actions deal zero.
func BaseDamage(a Action, attackerPos, defenderPos int) int {
	prof, ok := damage[a]
	if !ok {
		return 0
	}
	switch zoneDistance(attackerPos, defenderPos) {
	case 0:
		return prof.Same
	case 1:
		return prof.Adjacent
	default:
		return 0
	}
}

// Zone buckets a raw position into one of three coarse arena zones.
func Zone(pos int) int {
	return pos / 2
}

func zoneDistance(a, b int) int {
	d := Zone(a) - Zone(b)
	if d < 0 {
		return -d
	}
	return d
}
