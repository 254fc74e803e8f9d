package game

// SideOutcome is one side's result for a single sub-tick.
type SideOutcome struct {
	Action      Action `json:"action"`   // final resolved action label
	Intended    Action `json:"intended"` // pre-coercion intent
	DamageTaken int    `json:"damageTaken"`
}

// Outcome is the structured record of one resolved sub-tick, queued for
// paced delivery to clients independently of the resolution rate.
type Outcome struct {
	P1 SideOutcome `json:"p1"`
	P2 SideOutcome `json:"p2"`
}

// Resolve advances st by one sub-tick given both sides' intents and returns
// the outcome record. It is deterministic and performs no I/O.
//
// Resolution order: validate and coerce intents, consume resources or card
// effects, resolve damage both directions against start-of-sub-tick
// positions, apply hp, then movement, then push, then ki regeneration.
func Resolve(st *State, intent1, intent2 Action) Outcome {
	act1 := coerce(st.P1, intent1)
	act2 := coerce(st.P2, intent2)

	consume(st.P1, act1)
	consume(st.P2, act2)

	res1, res2 := act1, act2
	var dmg1, dmg2 int

	// Both directions read the positions as they were when the sub-tick
	// began; this sub-tick's movement never affects this sub-tick's damage.
	pos1, pos2 := st.P1.Position, st.P2.Position

	if d := BaseDamage(act1, pos1, pos2); d > 0 {
		if act2 == ActionDefend {
			dmg2 += d / 2
		} else {
			dmg2 += d
			if !IsAttack(act2) {
				res2 = ActionHurt
			}
		}
	}
	if d := BaseDamage(act2, pos2, pos1); d > 0 {
		if act1 == ActionDefend {
			dmg1 += d / 2
		} else {
			dmg1 += d
			if !IsAttack(act1) {
				res1 = ActionHurt
			}
		}
	}

	st.P1.applyDamage(dmg1)
	st.P2.applyDamage(dmg2)

	res1 = applyMovement(st.P1, res1)
	res2 = applyMovement(st.P2, res2)

	if res1 == ActionPush {
		push(st.P1, st.P2)
	}
	if res2 == ActionPush {
		push(st.P2, st.P1)
	}

	st.P1.regenKi()
	st.P2.regenKi()

	return Outcome{
		P1: SideOutcome{Action: res1, Intended: intent1, DamageTaken: dmg1},
		P2: SideOutcome{Action: res2, Intended: intent2, DamageTaken: dmg2},
	}
}

// coerce downgrades a priced intent to idle when the combatant cannot afford
// it. Actions outside the cost table (card uses and any unknown label) pass
// through untouched; they cost nothing and are handled during consumption.
func coerce(c *Combatant, intent Action) Action {
	cost, priced := Costs[intent]
	if !priced {
		return intent
	}
	if !c.canAfford(cost) {
		return ActionIdle
	}
	return intent
}

// consume applies the resolved action's resource cost, or its card effect
// for card-use actions. Card effects are idempotent per round.
func consume(c *Combatant, act Action) {
	if cost, priced := Costs[act]; priced {
		c.spend(cost)
		return
	}
	if kind, ok := IsCardUse(act); ok {
		c.useCard(kind)
	}
}

// applyMovement executes run/runopp/runattack displacement. A blocked run or
// runopp becomes a jump in place; runattack moves best-effort with no
// fallback since its damage was already resolved.
func applyMovement(c *Combatant, res Action) Action {
	switch res {
	case ActionRun:
		if !c.move(1) {
			return ActionJump
		}
	case ActionRunOpp:
		if !c.move(-1) {
			return ActionJump
		}
	case ActionRunAttack:
		c.move(1)
	}
	return res
}

// push displaces the pushed combatant one zone away from the pusher when
// both occupy the same zone and the pushed side is not already at the board
// edge. Player 1 pushes toward higher positions, player 2 toward lower.
func push(pusher, pushed *Combatant) {
	if Zone(pusher.Position) != Zone(pushed.Position) {
		return
	}
	if pusher.ID == Player1 {
		if pushed.Position < p2MaxPos {
			pushed.Position += 2
		}
	} else {
		if pushed.Position > p1MinPos {
			pushed.Position -= 2
		}
	}
}
