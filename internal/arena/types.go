// Package arena manages the lifecycle of matches: room creation and pairing,
// the authoritative per-room match loop, strategy submissions and the
// registry mapping player sessions to their match.
package arena

import (
	"time"

	"codearena/internal/game"
)

// SessionID uniquely identifies one client connection. A player who
// reconnects gets a new session id but keeps their identity.
type SessionID string

// RoomID is the six-digit join code identifying a room.
type RoomID string

// ArtifactKind selects which part of an opponent's submission to peek at.
type ArtifactKind string

const (
	ArtifactProgram ArtifactKind = "program"
	ArtifactRules   ArtifactKind = "rules"
)

// Tuning collects the timing parameters of a match. Zero values are replaced
// by defaults on use.
type Tuning struct {
	CountdownFrom     int           // countdown start value
	CountdownInterval time.Duration // countdown cadence
	Rounds            int           // rounds per match
	ResolveInterval   time.Duration // resolution cadence
	DeliverInterval   time.Duration // outcome delivery cadence
	EvalBudget        time.Duration // wall-time budget for one evaluation
	LockWindow        time.Duration // post-submission lock during which the cooldown program runs
	OutcomeBuffer     int           // outcome queue capacity
}

// DefaultTuning returns the cadences the game was designed around.
func DefaultTuning() Tuning {
	return Tuning{
		CountdownFrom:     3,
		CountdownInterval: time.Second,
		Rounds:            game.TotalRounds,
		ResolveInterval:   900 * time.Millisecond,
		DeliverInterval:   400 * time.Millisecond,
		EvalBudget:        850 * time.Millisecond,
		LockWindow:        3 * time.Second,
		OutcomeBuffer:     256,
	}
}

// withDefaults fills in any unset field.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.CountdownFrom <= 0 {
		t.CountdownFrom = d.CountdownFrom
	}
	if t.CountdownInterval <= 0 {
		t.CountdownInterval = d.CountdownInterval
	}
	if t.Rounds <= 0 {
		t.Rounds = d.Rounds
	}
	if t.ResolveInterval <= 0 {
		t.ResolveInterval = d.ResolveInterval
	}
	if t.DeliverInterval <= 0 {
		t.DeliverInterval = d.DeliverInterval
	}
	if t.EvalBudget <= 0 {
		t.EvalBudget = d.EvalBudget
	}
	if t.LockWindow <= 0 {
		t.LockWindow = d.LockWindow
	}
	if t.OutcomeBuffer <= 0 {
		t.OutcomeBuffer = d.OutcomeBuffer
	}
	return t
}

// Result is the outcome of a completed match.
type Result struct {
	RoomID   RoomID
	Winner   game.PlayerID // 0 for a draw
	Names    [2]string     // player identities, index 0 = player 1
	FinalHP  [2]int
	Rounds   int
	Duration time.Duration
}

// Points awarded at match end.
const (
	WinnerPoints = 100
	LoserPoints  = 20
	DrawPoints   = 50
)

// PointsAwarder is the external scoring collaborator. Awards are
// fire-and-forget from the loop's perspective: failures are logged, never
// propagated into match outcomes. Idempotency is the implementation's job.
type PointsAwarder interface {
	AwardPoints(roomID, player string, points int) error
}

// MatchSaver persists a finished match record. Optional, best effort.
type MatchSaver interface {
	SaveMatch(result Result) error
}

// RoomInfo describes a discoverable room for listings.
type RoomInfo struct {
	RoomID    RoomID `json:"roomId"`
	Host      string `json:"host"`
	HostScore int    `json:"hostScore"`
	Secret    string `json:"secret"`
}

// ScoreReader resolves a player's persisted score for room listings.
type ScoreReader interface {
	Score(player string) (int, error)
}
