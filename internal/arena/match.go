package arena

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"codearena/internal/game"
	"codearena/internal/strategy"
)

// Phase is the lifecycle state of a match.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseActive
	PhaseRoundTransition
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhaseActive:
		return "active"
	case PhaseRoundTransition:
		return "round-transition"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// evalResult is what one side's asynchronous evaluation delivers.
type evalResult struct {
	actions []game.Action
	err     error
	locked  bool
}

// side is one combatant's seat: the live session, the current strategy
// submission and the in-flight evaluation state. session and submission are
// swapped by the coordinator goroutine, hence the lock; busy and pending are
// touched only by the match loop goroutine.
type side struct {
	player game.PlayerID

	mu         sync.RWMutex
	name       string
	session    SessionHandle
	submission *strategy.Submission

	busy    bool
	pending chan evalResult
}

func newSide(player game.PlayerID, session SessionHandle) *side {
	return &side{
		player:  player,
		name:    session.Name(),
		session: session,
		pending: make(chan evalResult, 1),
	}
}

func (s *side) handle() SessionHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *side) rebind(session SessionHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

func (s *side) identity() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *side) setSubmission(sub *strategy.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submission = sub
}

func (s *side) currentSubmission() *strategy.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submission
}

// fallbackTriple is the intent set used when a side has no usable
// evaluation this tick: cooldown-flavored inside the lock window, idle
// otherwise.
func (s *side) fallbackTriple(now time.Time) []game.Action {
	if sub := s.currentSubmission(); sub != nil && sub.Locked(now) {
		return strategy.CooldownTriple()
	}
	return strategy.IdleTriple()
}

// Match is the authoritative per-room game loop. It owns its game state
// exclusively: the resolution cadence is the only writer, and the delivery
// cadence consumes outcome records through a single-producer single-consumer
// channel, so the two never contend on state.
type Match struct {
	id     RoomID
	tuning Tuning
	eval   strategy.Evaluator
	logger *log.Logger

	state *game.State
	sides [2]*side

	outcomes chan game.Outcome

	startedAt time.Time
	done      chan struct{}
	doneOnce  sync.Once

	phaseMu sync.RWMutex
	phase   Phase
}

// NewMatch seats two sessions in a new match. Player 1 is the room host.
func NewMatch(id RoomID, tuning Tuning, eval strategy.Evaluator, logger *log.Logger, host, joiner SessionHandle) *Match {
	tuning = tuning.withDefaults()
	return &Match{
		id:     id,
		tuning: tuning,
		eval:   eval,
		logger: logger.With("room", id),
		state:  game.NewState(),
		sides: [2]*side{
			newSide(game.Player1, host),
			newSide(game.Player2, joiner),
		},
		outcomes: make(chan game.Outcome, tuning.OutcomeBuffer),
		done:     make(chan struct{}),
		phase:    PhaseLobby,
	}
}

// ID returns the room id this match runs in.
func (m *Match) ID() RoomID { return m.id }

// Phase returns the current lifecycle phase.
func (m *Match) Phase() Phase {
	m.phaseMu.RLock()
	defer m.phaseMu.RUnlock()
	return m.phase
}

func (m *Match) setPhase(p Phase) {
	m.phaseMu.Lock()
	m.phase = p
	m.phaseMu.Unlock()
}

// SideOf maps a player identity to its seat.
func (m *Match) SideOf(identity string) (game.PlayerID, bool) {
	for _, s := range m.sides {
		if s.identity() == identity {
			return s.player, true
		}
	}
	return 0, false
}

// Names returns both player identities, index 0 = player 1.
func (m *Match) Names() [2]string {
	return [2]string{m.sides[0].identity(), m.sides[1].identity()}
}

// Rebind attaches a new session to an existing seat, e.g. after a
// reconnect. Match state is untouched.
func (m *Match) Rebind(player game.PlayerID, session SessionHandle) {
	m.sides[player-1].rebind(session)
}

// Submit installs a new strategy for the given seat, opening its lock
// window.
func (m *Match) Submit(player game.PlayerID, sub *strategy.Submission) {
	m.sides[player-1].setSubmission(sub)
}

// SubmissionOf returns the seat's current submission, or nil.
func (m *Match) SubmissionOf(player game.PlayerID) *strategy.Submission {
	return m.sides[player-1].currentSubmission()
}

// Run drives the match from countdown to completion. onComplete fires
// exactly once with the final result unless the match is stopped early.
// Blocks until the match ends; callers run it on its own goroutine.
func (m *Match) Run(onComplete func(Result)) {
	m.startedAt = time.Now()
	m.setPhase(PhaseCountdown)
	m.broadcast(MatchStartingEvent{RoomID: m.id})

	if !m.runCountdown() {
		return
	}

	m.setPhase(PhaseActive)
	go m.deliveryLoop()

	ticker := time.NewTicker(m.tuning.ResolveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.resolveTick() {
				m.finish(onComplete)
				return
			}
		case <-m.done:
			return
		}
	}
}

// Stop cancels both cadences and releases the loop. Idempotent; a match
// that already finished ignores further stops.
func (m *Match) Stop() {
	m.doneOnce.Do(func() { close(m.done) })
}

// runCountdown broadcasts the 3-2-1-0 countdown. Returns false if the
// match was stopped mid-countdown.
func (m *Match) runCountdown() bool {
	ticker := time.NewTicker(m.tuning.CountdownInterval)
	defer ticker.Stop()

	count := m.tuning.CountdownFrom
	for {
		select {
		case <-ticker.C:
			m.broadcast(CountdownEvent{Count: count})
			count--
			if count < 0 {
				return true
			}
		case <-m.done:
			return false
		}
	}
}

// resolveTick performs one resolution cadence tick: gather both sides'
// intent triples, run the three sub-tick resolutions, broadcast the state
// snapshot and advance the round timer. Returns true when the match is over.
func (m *Match) resolveTick() bool {
	intents := m.gatherIntents()

	for i := 0; i < strategy.SlotCount; i++ {
		outcome := game.Resolve(m.state, intents[0][i], intents[1][i])
		m.enqueue(outcome)
	}

	m.broadcast(StateSnapshotEvent{Snapshot: m.state.Snapshot()})

	if m.state.Timer > 0 {
		m.state.Timer--
	} else if m.state.Round < m.tuning.Rounds {
		m.setPhase(PhaseRoundTransition)
		m.state.Round++
		m.state.ResetRound()
		m.broadcast(RoundStartedEvent{Round: m.state.Round})
		m.setPhase(PhaseActive)
	} else {
		return true
	}

	// A downed combatant ends the round on the next tick.
	if m.state.AnyoneDown() {
		m.state.Timer = 0
	}
	return false
}

// gatherIntents collects one intent triple per side, evaluating both
// strategies concurrently under the evaluation budget. A side whose
// evaluation is still in flight from an earlier tick, or misses the budget,
// contributes its fallback triple instead; the late result is discarded
// when it eventually lands.
func (m *Match) gatherIntents() [2][]game.Action {
	ctx, cancel := context.WithTimeout(context.Background(), m.tuning.EvalBudget)
	defer cancel()

	now := time.Now()
	var results [2][]game.Action
	var launched [2]bool

	for i, s := range m.sides {
		if s.busy {
			// Collect a result that arrived after its tick expired.
			select {
			case <-s.pending:
				s.busy = false
			default:
			}
		}
		if s.busy {
			m.logger.Warn("evaluation still in flight, using fallback", "player", s.player)
			results[i] = s.fallbackTriple(now)
			continue
		}
		m.startEvaluation(ctx, s, now)
		launched[i] = true
	}

	for i, s := range m.sides {
		if !launched[i] {
			continue
		}
		select {
		case res := <-s.pending:
			s.busy = false
			if res.err != nil {
				m.logger.Warn("evaluation failed", "player", s.player, "error", res.err)
			}
			results[i] = res.actions
		case <-ctx.Done():
			m.logger.Warn("evaluation overran budget", "player", s.player)
			results[i] = s.fallbackTriple(now)
		case <-m.done:
			results[i] = strategy.IdleTriple()
		}
	}
	return results
}

// startEvaluation launches one side's evaluation on its own goroutine. The
// pending channel is buffered and always drained before a relaunch, so the
// goroutine never leaks on send.
func (m *Match) startEvaluation(ctx context.Context, s *side, now time.Time) {
	s.busy = true
	sub := s.currentSubmission()
	args := m.contextArgs(s.player)

	go func() {
		var res evalResult
		switch {
		case sub == nil || sub.Program == "":
			res.actions = strategy.IdleTriple()
		case sub.Locked(now):
			res.locked = true
			if sub.CooldownProgram == "" {
				res.actions = strategy.CooldownTriple()
				break
			}
			actions, err := m.eval.Evaluate(ctx, sub.CooldownProgram, sub.Rules, args)
			if err != nil {
				res.actions, res.err = strategy.CooldownTriple(), err
			} else {
				res.actions = actions
			}
		default:
			res.actions, res.err = m.eval.Evaluate(ctx, sub.Program, sub.Rules, args)
		}
		s.pending <- res
	}()
}

// contextArgs snapshots the state into the evaluator context for one side.
func (m *Match) contextArgs(player game.PlayerID) strategy.Context {
	st := m.state
	args := strategy.Context{
		"p1_hp":     st.P1.HP,
		"p2_hp":     st.P2.HP,
		"p1_mana":   st.P1.Mana,
		"p2_mana":   st.P2.Mana,
		"p1_ki":     st.P1.Ki,
		"p2_ki":     st.P2.Ki,
		"p1_pos":    st.P1.Position,
		"p2_pos":    st.P2.Position,
		"timer":     st.Timer,
		"p1_points": st.P1.Points,
		"p2_points": st.P2.Points,
	}
	args["my_pos"] = st.Combatant(player).Position
	return args
}

// enqueue appends an outcome record to the delivery queue, dropping the
// oldest record under sustained backpressure.
func (m *Match) enqueue(outcome game.Outcome) {
	select {
	case m.outcomes <- outcome:
		return
	default:
	}
	select {
	case <-m.outcomes:
		m.logger.Warn("outcome queue full, dropping oldest record")
	default:
	}
	select {
	case m.outcomes <- outcome:
	default:
	}
}

// deliveryLoop paces outcome delivery independently of the resolution rate,
// emitting at most one queued record per delivery tick.
func (m *Match) deliveryLoop() {
	ticker := time.NewTicker(m.tuning.DeliverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case outcome := <-m.outcomes:
				m.broadcast(OutcomeEvent{Outcome: outcome})
			default:
			}
		case <-m.done:
			return
		}
	}
}

// finish completes the match: announce the winner, cancel both cadences,
// drop undelivered outcomes and hand the result to the coordinator.
func (m *Match) finish(onComplete func(Result)) {
	m.setPhase(PhaseFinished)

	winner := m.state.Winner()
	m.broadcast(MatchFinishedEvent{Winner: winner})
	m.logger.Info("match finished", "winner", winner,
		"hp1", m.state.P1.HP, "hp2", m.state.P2.HP)

	m.Stop()
	for {
		select {
		case <-m.outcomes:
			continue
		default:
		}
		break
	}

	if onComplete != nil {
		onComplete(Result{
			RoomID:   m.id,
			Winner:   winner,
			Names:    m.Names(),
			FinalHP:  [2]int{m.state.P1.HP, m.state.P2.HP},
			Rounds:   m.state.Round,
			Duration: time.Since(m.startedAt),
		})
	}
}

// broadcast sends an event to both seats.
func (m *Match) broadcast(evt SessionEvent) {
	for _, s := range m.sides {
		s.handle().Send(evt)
	}
}
