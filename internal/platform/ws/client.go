package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"codearena/internal/arena"
	"codearena/internal/strategy"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Envelope is the wire frame for both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// client pumps one websocket connection: inbound frames become coordinator
// messages, session events become outbound frames. All writes go through
// writePump; the connection allows only one concurrent writer.
type client struct {
	conn     *websocket.Conn
	session  *arena.ChannelSession
	coord    *arena.Coordinator
	logger   *log.Logger
	outbound chan Envelope
}

// readPump decodes inbound frames until the connection drops, then reports
// the disconnect. Runs on the connection's goroutine.
func (c *client) readPump() {
	defer func() {
		c.coord.Send(arena.SessionDisconnectedMsg{SessionID: c.session.ID()})
		c.session.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close", "session", c.session.ID(), "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("malformed frame")
			continue
		}
		if err := c.dispatch(env); err != nil {
			c.sendError(err.Error())
		}
	}
}

// dispatch turns one inbound envelope into a coordinator message. Syntax
// checks are answered inline since they touch no room state.
func (c *client) dispatch(env Envelope) error {
	id := c.session.ID()
	switch env.Type {
	case "create_room":
		var body struct {
			Public bool `json:"public"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &body); err != nil {
				return fmt.Errorf("bad create_room payload")
			}
		}
		c.coord.Send(arena.CreateRoomMsg{SessionID: id, Public: body.Public})

	case "list_rooms":
		c.coord.Send(arena.ListRoomsMsg{SessionID: id})

	case "join_room":
		var body struct {
			RoomID string `json:"roomId"`
			Secret string `json:"secret"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return fmt.Errorf("bad join_room payload")
		}
		c.coord.Send(arena.JoinRoomMsg{
			SessionID: id,
			RoomID:    arena.RoomID(body.RoomID),
			Secret:    body.Secret,
		})

	case "submit_strategy":
		var body struct {
			Program         string          `json:"program"`
			Rules           []strategy.Rule `json:"rules"`
			CooldownProgram string          `json:"cooldownProgram"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return fmt.Errorf("bad submit_strategy payload")
		}
		c.coord.Send(arena.SubmitStrategyMsg{
			SessionID:       id,
			Program:         body.Program,
			Rules:           body.Rules,
			CooldownProgram: body.CooldownProgram,
		})

	case "opponent_artifact":
		var body struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return fmt.Errorf("bad opponent_artifact payload")
		}
		c.coord.Send(arena.OpponentArtifactMsg{
			SessionID: id,
			Kind:      arena.ArtifactKind(body.Kind),
		})

	case "check_syntax":
		var body struct {
			Program string `json:"program"`
		}
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return fmt.Errorf("bad check_syntax payload")
		}
		res := c.coord.CheckSyntax(body.Program)
		c.send("syntax_result", res)

	default:
		return fmt.Errorf("unknown message type %q", env.Type)
	}
	return nil
}

// writePump forwards session events to the wire and keeps the connection
// alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.session.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(wrapEvent(evt)); err != nil {
				return
			}
		case env := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-c.session.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) send(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.outbound <- Envelope{Type: msgType, Data: data}:
	default:
	}
}

func (c *client) sendError(msg string) {
	c.send("error", map[string]string{"message": msg})
}

// wrapEvent maps a session event to its wire envelope.
func wrapEvent(evt arena.SessionEvent) Envelope {
	data, err := json.Marshal(evt)
	if err != nil {
		data = nil
	}
	return Envelope{Type: eventName(evt), Data: data}
}

func eventName(evt arena.SessionEvent) string {
	switch evt.(type) {
	case arena.RoomCreatedEvent:
		return "room_created"
	case arena.RoomErrorEvent:
		return "room_error"
	case arena.RoomListEvent:
		return "room_list"
	case arena.JoinedEvent:
		return "joined"
	case arena.PeerJoinedEvent:
		return "peer_joined"
	case arena.MatchStartingEvent:
		return "match_starting"
	case arena.CountdownEvent:
		return "countdown"
	case arena.RoundStartedEvent:
		return "round_started"
	case arena.StateSnapshotEvent:
		return "state"
	case arena.OutcomeEvent:
		return "outcome"
	case arena.MatchFinishedEvent:
		return "match_finished"
	case arena.SubmissionAckEvent:
		return "submission_ack"
	case arena.OpponentArtifactEvent:
		return "opponent_artifact"
	default:
		return "event"
	}
}
