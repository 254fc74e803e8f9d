package game

// Round/timer tuning. RoundSeconds is the value the match timer resets to at
// each round start; one "second" elapses per resolution cadence tick.
const (
	RoundSeconds = 480
	TotalRounds  = 3
	roundRestore = 10
)

// State is the canonical mutable state of one match. It is owned exclusively
// by the match loop for the match's lifetime; nothing here is safe for
// concurrent use.
type State struct {
	Round int
	Timer int
	P1    *Combatant
	P2    *Combatant
}

// NewState returns match state at round 1 with both combatants at their
// starting values.
func NewState() *State {
	return &State{
		Round: 1,
		Timer: RoundSeconds,
		P1:    NewCombatant(Player1),
		P2:    NewCombatant(Player2),
	}
}

// Combatant returns the side identified by id.
func (s *State) Combatant(id PlayerID) *Combatant {
	if id == Player1 {
		return s.P1
	}
	return s.P2
}

// ResetRound prepares both combatants for the next round and restarts the
// timer. The round counter is advanced by the caller.
func (s *State) ResetRound() {
	s.P1.resetForRound()
	s.P2.resetForRound()
	s.Timer = RoundSeconds
}

// AnyoneDown reports whether either combatant has reached zero hp.
func (s *State) AnyoneDown() bool {
	return s.P1.HP <= 0 || s.P2.HP <= 0
}

// Winner returns the side with strictly higher hp, or 0 for a draw.
func (s *State) Winner() PlayerID {
	switch {
	case s.P1.HP > s.P2.HP:
		return Player1
	case s.P2.HP > s.P1.HP:
		return Player2
	default:
		return 0
	}
}

// Snapshot is an immutable copy of the observable match state, built for
// broadcast and for evaluator context without exposing the live state.
type Snapshot struct {
	Round int            `json:"round"`
	Timer int            `json:"timer"`
	P1    CombatantStats `json:"p1"`
	P2    CombatantStats `json:"p2"`
}

// CombatantStats is the broadcastable view of one combatant.
type CombatantStats struct {
	ID       PlayerID          `json:"id"`
	HP       int               `json:"hp"`
	Mana     int               `json:"mana"`
	Ki       int               `json:"ki"`
	Position int               `json:"position"`
	Points   int               `json:"points"`
	Cards    map[CardKind]Card `json:"cards"`
}

// Snapshot copies the observable state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Round: s.Round,
		Timer: s.Timer,
		P1:    statsOf(s.P1),
		P2:    statsOf(s.P2),
	}
}

func statsOf(c *Combatant) CombatantStats {
	cards := make(map[CardKind]Card, len(c.Cards))
	for k, v := range c.Cards {
		cards[k] = v
	}
	return CombatantStats{
		ID:       c.ID,
		HP:       c.HP,
		Mana:     c.Mana,
		Ki:       c.Ki,
		Position: c.Position,
		Points:   c.Points,
		Cards:    cards,
	}
}
