package arena

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"codearena/internal/game"
	"codearena/internal/strategy"
)

// Room is a pairing slot. A room holds exactly one waiting host until a
// second player joins, at which point the match starts and the room stays
// alive for the match's duration.
type Room struct {
	ID       RoomID
	Secret   string
	Public   bool
	Host     SessionID
	HostName string
	Match    *Match
}

// matchFinishedMsg routes a completed match result back onto the pump.
type matchFinishedMsg struct {
	result Result
}

func (matchFinishedMsg) arenaMessage() {}

// Coordinator owns all rooms and matches. Every mutation flows through a
// single message pump goroutine, so room state needs no locking.
type Coordinator struct {
	logger   *log.Logger
	registry *SessionRegistry
	eval     strategy.Evaluator
	tuning   Tuning

	awarder PointsAwarder
	saver   MatchSaver
	scores  ScoreReader

	rooms       map[RoomID]*Room
	sessionRoom map[SessionID]RoomID
	playerRoom  map[string]RoomID

	msgChan  chan Message
	done     chan struct{}
	stopOnce sync.Once
}

// NewCoordinator wires the arena together. awarder, saver and scores may be
// nil; the corresponding features degrade gracefully.
func NewCoordinator(logger *log.Logger, registry *SessionRegistry, eval strategy.Evaluator, tuning Tuning, awarder PointsAwarder, saver MatchSaver, scores ScoreReader) *Coordinator {
	return &Coordinator{
		logger:      logger.WithPrefix("arena"),
		registry:    registry,
		eval:        eval,
		tuning:      tuning.withDefaults(),
		awarder:     awarder,
		saver:       saver,
		scores:      scores,
		rooms:       make(map[RoomID]*Room),
		sessionRoom: make(map[SessionID]RoomID),
		playerRoom:  make(map[string]RoomID),
		msgChan:     make(chan Message, 64),
		done:        make(chan struct{}),
	}
}

// Start launches the message pump. Call once.
func (c *Coordinator) Start() {
	go c.run()
}

// Stop shuts the pump down and cancels all running matches. Idempotent.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Send queues a message for the pump. Drops the message if the coordinator
// has stopped.
func (c *Coordinator) Send(msg Message) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

// CheckSyntax compiles a program without running it. Safe to call from any
// goroutine; it does not touch room state.
func (c *Coordinator) CheckSyntax(program string) strategy.SyntaxResult {
	return c.eval.CheckSyntax(program)
}

func (c *Coordinator) run() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			for _, room := range c.rooms {
				if room.Match != nil {
					room.Match.Stop()
				}
			}
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg Message) {
	switch m := msg.(type) {
	case CreateRoomMsg:
		c.handleCreateRoom(m)
	case ListRoomsMsg:
		c.handleListRooms(m)
	case JoinRoomMsg:
		c.handleJoinRoom(m)
	case SubmitStrategyMsg:
		c.handleSubmitStrategy(m)
	case OpponentArtifactMsg:
		c.handleOpponentArtifact(m)
	case SessionDisconnectedMsg:
		c.handleDisconnect(m)
	case matchFinishedMsg:
		c.handleMatchFinished(m)
	default:
		c.logger.Warn("unknown message type", "type", fmt.Sprintf("%T", msg))
	}
}

func (c *Coordinator) handleCreateRoom(msg CreateRoomMsg) {
	session, ok := c.registry.Get(msg.SessionID)
	if !ok {
		return
	}
	if _, busy := c.sessionRoom[msg.SessionID]; busy {
		session.Send(RoomErrorEvent{Message: "already in a room"})
		return
	}

	id := c.newRoomID()
	room := &Room{
		ID:       id,
		Secret:   randomDigits(4),
		Public:   msg.Public,
		Host:     msg.SessionID,
		HostName: session.Name(),
	}
	c.rooms[id] = room
	c.sessionRoom[msg.SessionID] = id
	c.playerRoom[session.Name()] = id

	c.logger.Info("room created", "room", id, "host", session.Name(), "public", msg.Public)
	session.Send(RoomCreatedEvent{RoomID: id, Secret: room.Secret})
}

func (c *Coordinator) handleListRooms(msg ListRoomsMsg) {
	session, ok := c.registry.Get(msg.SessionID)
	if !ok {
		return
	}

	var rooms []RoomInfo
	for _, room := range c.rooms {
		if !room.Public || room.Match != nil {
			continue
		}
		rooms = append(rooms, RoomInfo{
			RoomID: room.ID,
			Host:   room.HostName,
			Secret: room.Secret,
		})
	}

	if c.scores == nil {
		session.Send(RoomListEvent{Rooms: rooms})
		return
	}

	// Score lookups hit the database; resolve them off the pump so a slow
	// disk cannot stall room and match lifecycle messages.
	go func() {
		for i := range rooms {
			if s, err := c.scores.Score(rooms[i].Host); err == nil {
				rooms[i].HostScore = s
			}
		}
		session.Send(RoomListEvent{Rooms: rooms})
	}()
}

func (c *Coordinator) handleJoinRoom(msg JoinRoomMsg) {
	session, ok := c.registry.Get(msg.SessionID)
	if !ok {
		return
	}
	name := session.Name()

	// One room per identity. Joining the room the identity is already
	// bound to is a reconnect and stays allowed.
	if existing, busy := c.sessionRoom[msg.SessionID]; busy && existing != msg.RoomID {
		session.Send(RoomErrorEvent{Message: "already in a room"})
		return
	}
	if existing, busy := c.playerRoom[name]; busy && existing != msg.RoomID {
		session.Send(RoomErrorEvent{Message: "already in a room"})
		return
	}

	room, ok := c.rooms[msg.RoomID]
	if !ok {
		session.Send(RoomErrorEvent{Message: "room not found"})
		return
	}
	if room.Secret != msg.Secret {
		session.Send(RoomErrorEvent{Message: "wrong secret"})
		return
	}

	// A running match only accepts its own players back; this is how
	// reconnection works.
	if room.Match != nil {
		side, member := room.Match.SideOf(name)
		if !member {
			session.Send(RoomErrorEvent{Message: "room is full"})
			return
		}
		room.Match.Rebind(side, session)
		c.sessionRoom[msg.SessionID] = room.ID
		c.logger.Info("player rejoined", "room", room.ID, "player", name, "side", side)
		session.Send(JoinedEvent{RoomID: room.ID, Side: side})
		return
	}

	if name == room.HostName {
		// Host reconnecting to their own waiting room.
		delete(c.sessionRoom, room.Host)
		room.Host = msg.SessionID
		c.sessionRoom[msg.SessionID] = room.ID
		session.Send(JoinedEvent{RoomID: room.ID, Side: game.Player1})
		return
	}

	host, hostUp := c.registry.Get(room.Host)
	if !hostUp {
		session.Send(RoomErrorEvent{Message: "host is gone"})
		c.releaseRoom(room.ID)
		return
	}

	c.sessionRoom[msg.SessionID] = room.ID
	c.playerRoom[name] = room.ID

	match := NewMatch(room.ID, c.tuning, c.eval, c.logger, host, session)
	room.Match = match

	c.logger.Info("match starting", "room", room.ID, "host", room.HostName, "joiner", name)
	session.Send(JoinedEvent{RoomID: room.ID, Side: game.Player2})
	host.Send(PeerJoinedEvent{RoomID: room.ID, Name: name})

	go match.Run(func(result Result) {
		c.Send(matchFinishedMsg{result: result})
	})
}

func (c *Coordinator) handleSubmitStrategy(msg SubmitStrategyMsg) {
	session, ok := c.registry.Get(msg.SessionID)
	if !ok {
		return
	}
	match := c.matchOf(msg.SessionID)
	if match == nil {
		session.Send(SubmissionAckEvent{OK: false, Message: "no active match"})
		return
	}
	side, member := match.SideOf(session.Name())
	if !member {
		session.Send(SubmissionAckEvent{OK: false, Message: "not a participant"})
		return
	}

	if res := c.eval.CheckSyntax(msg.Program); !res.OK {
		session.Send(SubmissionAckEvent{OK: false, Side: side, Message: res.Message})
		return
	}

	now := time.Now()
	match.Submit(side, &strategy.Submission{
		Program:         msg.Program,
		Rules:           msg.Rules,
		CooldownProgram: msg.CooldownProgram,
		SubmittedAt:     now,
		ActiveUntil:     now.Add(c.tuning.LockWindow),
	})
	c.logger.Debug("strategy submitted", "room", match.ID(), "player", session.Name(), "side", side)
	session.Send(SubmissionAckEvent{OK: true, Side: side})
}

func (c *Coordinator) handleOpponentArtifact(msg OpponentArtifactMsg) {
	session, ok := c.registry.Get(msg.SessionID)
	if !ok {
		return
	}
	match := c.matchOf(msg.SessionID)
	if match == nil {
		session.Send(RoomErrorEvent{Message: "no active match"})
		return
	}
	side, member := match.SideOf(session.Name())
	if !member {
		session.Send(RoomErrorEvent{Message: "not a participant"})
		return
	}

	evt := OpponentArtifactEvent{Kind: msg.Kind}
	if sub := match.SubmissionOf(side.Opponent()); sub != nil {
		switch msg.Kind {
		case ArtifactRules:
			evt.Rules = sub.Rules
		default:
			evt.Program = sub.Program
		}
	}
	session.Send(evt)
}

// handleDisconnect tears down a waiting room whose host left. A running
// match keeps going so the player can reconnect.
func (c *Coordinator) handleDisconnect(msg SessionDisconnectedMsg) {
	roomID, ok := c.sessionRoom[msg.SessionID]
	if !ok {
		return
	}
	delete(c.sessionRoom, msg.SessionID)

	room, ok := c.rooms[roomID]
	if !ok {
		return
	}
	if room.Match == nil && room.Host == msg.SessionID {
		c.logger.Info("host left waiting room", "room", roomID)
		c.releaseRoom(roomID)
		return
	}
	c.logger.Info("player disconnected, match continues", "room", roomID)
}

func (c *Coordinator) handleMatchFinished(msg matchFinishedMsg) {
	result := msg.result
	c.logger.Info("recording match result", "room", result.RoomID, "winner", result.Winner)

	if c.awarder != nil {
		points := [2]int{DrawPoints, DrawPoints}
		if result.Winner == game.Player1 {
			points = [2]int{WinnerPoints, LoserPoints}
		} else if result.Winner == game.Player2 {
			points = [2]int{LoserPoints, WinnerPoints}
		}
		go func() {
			for i, name := range result.Names {
				if err := c.awarder.AwardPoints(string(result.RoomID), name, points[i]); err != nil {
					c.logger.Error("failed to award points", "player", name, "error", err)
				}
			}
		}()
	}
	if c.saver != nil {
		go func() {
			if err := c.saver.SaveMatch(result); err != nil {
				c.logger.Error("failed to save match", "room", result.RoomID, "error", err)
			}
		}()
	}

	c.releaseRoom(result.RoomID)
}

// matchOf resolves a session's running match, if any.
func (c *Coordinator) matchOf(id SessionID) *Match {
	roomID, ok := c.sessionRoom[id]
	if !ok {
		return nil
	}
	room, ok := c.rooms[roomID]
	if !ok {
		return nil
	}
	return room.Match
}

// releaseRoom removes a room and every mapping pointing at it.
func (c *Coordinator) releaseRoom(id RoomID) {
	room, ok := c.rooms[id]
	if !ok {
		return
	}
	if room.Match != nil {
		room.Match.Stop()
	}
	delete(c.rooms, id)
	for sid, rid := range c.sessionRoom {
		if rid == id {
			delete(c.sessionRoom, sid)
		}
	}
	for name, rid := range c.playerRoom {
		if rid == id {
			delete(c.playerRoom, name)
		}
	}
}

// newRoomID draws six-digit codes until one is free.
func (c *Coordinator) newRoomID() RoomID {
	for {
		id := RoomID(randomDigits(6))
		if _, taken := c.rooms[id]; !taken {
			return id
		}
	}
}

// randomDigits returns n cryptographically random decimal digits.
func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand only fails if the platform source is broken.
			v = big.NewInt(int64(i % 10))
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits)
}
