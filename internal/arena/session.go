package arena

import "sync"

// SessionHandle is the transport-neutral interface for talking to one
// connected player. It lets the coordinator and match loops send events
// without depending on the websocket layer.
type SessionHandle interface {
	// ID returns the unique session identifier.
	ID() SessionID

	// Name returns the authenticated player identity behind the session.
	Name() string

	// Send delivers an event to the session asynchronously. Must never
	// block; implementations buffer and drop under pressure.
	Send(evt SessionEvent)

	// Done returns a channel that closes when the session ends.
	Done() <-chan struct{}
}

// ChannelSession is a SessionHandle backed by a buffered channel. The
// transport layer reads Events and forwards them to the wire.
type ChannelSession struct {
	id       SessionID
	name     string
	events   chan SessionEvent
	done     chan struct{}
	doneOnce sync.Once
}

// NewChannelSession creates a session handle for an authenticated player.
func NewChannelSession(id SessionID, name string, buffer int) *ChannelSession {
	if buffer < 1 {
		buffer = 64
	}
	return &ChannelSession{
		id:     id,
		name:   name,
		events: make(chan SessionEvent, buffer),
		done:   make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *ChannelSession) ID() SessionID { return s.id }

// Name returns the player identity.
func (s *ChannelSession) Name() string { return s.name }

// Send queues an event for the session. When the buffer is full the oldest
// queued event is dropped so a slow client cannot stall a match loop.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.events <- evt:
	default:
		select {
		case <-s.events:
		default:
		}
		select {
		case s.events <- evt:
		default:
		}
	}
}

// Events returns the channel the transport drains.
func (s *ChannelSession) Events() <-chan SessionEvent { return s.events }

// Done returns the done channel.
func (s *ChannelSession) Done() <-chan struct{} { return s.done }

// Close marks the session as ended. Safe to call multiple times.
func (s *ChannelSession) Close() {
	s.doneOnce.Do(func() { close(s.done) })
}

// SessionRegistry tracks the live sessions. Thread-safe.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[SessionID]SessionHandle)}
}

// Register adds a session.
func (r *SessionRegistry) Register(s SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Unregister removes a session.
func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get retrieves a session by id.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
