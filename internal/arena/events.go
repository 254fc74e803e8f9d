package arena

import (
	"codearena/internal/game"
	"codearena/internal/strategy"
)

// SessionEvent is an event sent from the arena to a session.
type SessionEvent interface {
	sessionEvent()
}

// RoomCreatedEvent acknowledges room creation to the host.
type RoomCreatedEvent struct {
	RoomID RoomID `json:"roomId"`
	Secret string `json:"secret"`
}

func (RoomCreatedEvent) sessionEvent() {}

// RoomErrorEvent reports a failed room operation.
type RoomErrorEvent struct {
	Message string `json:"message"`
}

func (RoomErrorEvent) sessionEvent() {}

// RoomListEvent carries the discoverable rooms.
type RoomListEvent struct {
	Rooms []RoomInfo `json:"rooms"`
}

func (RoomListEvent) sessionEvent() {}

// JoinedEvent confirms a successful join (or rejoin) to the joining session.
type JoinedEvent struct {
	RoomID RoomID        `json:"roomId"`
	Side   game.PlayerID `json:"side"`
}

func (JoinedEvent) sessionEvent() {}

// PeerJoinedEvent tells a room's occupant that someone else arrived.
type PeerJoinedEvent struct {
	RoomID RoomID `json:"roomId"`
	Name   string `json:"name"`
}

func (PeerJoinedEvent) sessionEvent() {}

// MatchStartingEvent announces that both seats are filled and the countdown
// is about to begin.
type MatchStartingEvent struct {
	RoomID RoomID `json:"roomId"`
}

func (MatchStartingEvent) sessionEvent() {}

// CountdownEvent is one tick of the pre-match countdown (3, 2, 1, 0).
type CountdownEvent struct {
	Count int `json:"count"`
}

func (CountdownEvent) sessionEvent() {}

// RoundStartedEvent announces a new round after a round transition.
type RoundStartedEvent struct {
	Round int `json:"round"`
}

func (RoundStartedEvent) sessionEvent() {}

// StateSnapshotEvent carries the canonical state at the resolution cadence.
type StateSnapshotEvent struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

func (StateSnapshotEvent) sessionEvent() {}

// OutcomeEvent delivers one resolved sub-tick at the delivery cadence.
type OutcomeEvent struct {
	Outcome game.Outcome `json:"outcome"`
}

func (OutcomeEvent) sessionEvent() {}

// MatchFinishedEvent announces the final result. Winner is 0 for a draw.
type MatchFinishedEvent struct {
	Winner game.PlayerID `json:"winner"`
}

func (MatchFinishedEvent) sessionEvent() {}

// SubmissionAckEvent acknowledges a strategy submission.
type SubmissionAckEvent struct {
	OK      bool          `json:"ok"`
	Side    game.PlayerID `json:"side,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (SubmissionAckEvent) sessionEvent() {}

// OpponentArtifactEvent returns a read-only peek at the opponent's last
// submission.
type OpponentArtifactEvent struct {
	Kind    ArtifactKind    `json:"kind"`
	Program string          `json:"program,omitempty"`
	Rules   []strategy.Rule `json:"rules,omitempty"`
}

func (OpponentArtifactEvent) sessionEvent() {}

// Message is a request from a session to the arena, processed
// asynchronously by the coordinator's message pump.
type Message interface {
	arenaMessage()
}

// CreateRoomMsg requests a new room, optionally publicly discoverable.
type CreateRoomMsg struct {
	SessionID SessionID
	Public    bool
}

func (CreateRoomMsg) arenaMessage() {}

// ListRoomsMsg requests the discoverable room list.
type ListRoomsMsg struct {
	SessionID SessionID
}

func (ListRoomsMsg) arenaMessage() {}

// JoinRoomMsg requests joining a room by id and shared secret.
type JoinRoomMsg struct {
	SessionID SessionID
	RoomID    RoomID
	Secret    string
}

func (JoinRoomMsg) arenaMessage() {}

// SubmitStrategyMsg uploads a strategy for the sender's slot in its match.
type SubmitStrategyMsg struct {
	SessionID       SessionID
	Program         string
	Rules           []strategy.Rule
	CooldownProgram string
}

func (SubmitStrategyMsg) arenaMessage() {}

// OpponentArtifactMsg requests a peek at the opponent's submission.
type OpponentArtifactMsg struct {
	SessionID SessionID
	Kind      ArtifactKind
}

func (OpponentArtifactMsg) arenaMessage() {}

// SessionDisconnectedMsg is sent by the transport when a session closes.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) arenaMessage() {}
