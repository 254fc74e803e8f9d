package game

// PlayerID identifies one of the two sides of a match.
type PlayerID int

const (
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other side.
func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// CardKind identifies a restoration card. Each card is usable at most once
// per round.
type CardKind string

const (
	CardSmallHP   CardKind = "small_hp"
	CardBigHP     CardKind = "big_hp"
	CardSmallMana CardKind = "small_mana"
	CardBigMana   CardKind = "big_mana"
)

// Card restore amounts.
const (
	smallRestore = 30
	bigRestore   = 60
)

// Card is a one-shot restoration item held by a combatant.
type Card struct {
	Available bool `json:"available"`
	Restore   int  `json:"restore"`
}

// Stat bounds and starting positions.
const (
	MaxHP       = 100
	MaxMana     = 100
	MaxKi       = 100
	p1StartPos  = 0
	p2StartPos  = 5
	p1MinPos    = 0
	p1MaxPos    = 4
	p2MinPos    = 1
	p2MaxPos    = 5
	kiRegenEach = 10 // resolutions between ki regeneration events
	kiRegenGain = 5
)

// Combatant is one side's live battle state.
type Combatant struct {
	ID       PlayerID          `json:"id"`
	HP       int               `json:"hp"`
	Mana     int               `json:"mana"`
	Ki       int               `json:"ki"`
	Position int               `json:"position"`
	Points   int               `json:"points"`
	Cards    map[CardKind]Card `json:"cards"`

	// ticks counts resolved sub-ticks for ki regeneration.
	ticks int
}

// NewCombatant returns a combatant at its side's starting state.
func NewCombatant(id PlayerID) *Combatant {
	c := &Combatant{
		ID:   id,
		HP:   MaxHP,
		Mana: MaxMana,
	}
	if id == Player1 {
		c.Position = p1StartPos
	} else {
		c.Position = p2StartPos
	}
	c.Cards = freshCards()
	return c
}

func freshCards() map[CardKind]Card {
	return map[CardKind]Card{
		CardSmallHP:   {Available: true, Restore: smallRestore},
		CardBigHP:     {Available: true, Restore: bigRestore},
		CardSmallMana: {Available: true, Restore: smallRestore},
		CardBigMana:   {Available: true, Restore: bigRestore},
	}
}

// canAfford reports whether the combatant has the resources for a priced
// action. Actions outside the cost table are not its concern.
func (c *Combatant) canAfford(cost Cost) bool {
	return c.Mana >= cost.Mana && c.Ki >= cost.Ki
}

// spend subtracts an action's cost. Callers validate affordability first.
func (c *Combatant) spend(cost Cost) {
	c.Mana -= cost.Mana
	c.Ki -= cost.Ki
}

// useCard consumes the named card if it exists and is still available,
// applying its restore effect exactly once. Unknown or spent cards no-op.
func (c *Combatant) useCard(kind CardKind) {
	card, ok := c.Cards[kind]
	if !ok || !card.Available {
		return
	}
	card.Available = false
	c.Cards[kind] = card

	switch kind {
	case CardSmallHP, CardBigHP:
		c.HP = min(MaxHP, c.HP+card.Restore)
	case CardSmallMana, CardBigMana:
		c.Mana = min(MaxMana, c.Mana+card.Restore)
	}
}

// regenKi advances the combatant's resolution counter and grants ki on every
// tenth resolution, capped at MaxKi. Runs regardless of the action taken.
func (c *Combatant) regenKi() {
	c.ticks++
	if c.ticks%kiRegenEach == 0 {
		c.Ki = min(MaxKi, c.Ki+kiRegenGain)
	}
}

// applyDamage subtracts dmg from hp, floored at zero.
func (c *Combatant) applyDamage(dmg int) {
	c.HP -= dmg
	if c.HP < 0 {
		c.HP = 0
	}
}

// bounds returns the inclusive position domain for the combatant's side.
// Player 1 occupies even positions 0..4, player 2 odd positions 1..5.
func (c *Combatant) bounds() (lo, hi int) {
	if c.ID == Player1 {
		return p1MinPos, p1MaxPos
	}
	return p2MinPos, p2MaxPos
}

// move attempts to step the combatant one zone in direction dir (+1 toward
// the opponent's baseline, -1 away). Each step is two position units, signed
// by side so both players advance toward each other on +1. Returns false and
// leaves the position untouched when the step would leave the side's domain.
func (c *Combatant) move(dir int) bool {
	step := 2
	if c.ID == Player2 {
		step = -2
	}
	next := c.Position + dir*step
	lo, hi := c.bounds()
	if next < lo || next > hi {
		return false
	}
	c.Position = next
	return true
}

// resetForRound restores the combatant for the next round: +10 hp and mana
// (capped), starting position, all cards available. Ki, points and the
// regeneration counter carry over.
func (c *Combatant) resetForRound() {
	c.HP = min(MaxHP, c.HP+roundRestore)
	c.Mana = min(MaxMana, c.Mana+roundRestore)
	if c.ID == Player1 {
		c.Position = p1StartPos
	} else {
		c.Position = p2StartPos
	}
	c.Cards = freshCards()
}
