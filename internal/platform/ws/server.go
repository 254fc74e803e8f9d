// Package ws exposes the arena over websockets plus a few plain HTTP
// endpoints for leaderboards and match history.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"codearena/internal/arena"
	"codearena/internal/storage"
)

const sessionBuffer = 256

// HistoryStore serves the read-only HTTP endpoints.
type HistoryStore interface {
	Leaderboard(limit int) ([]storage.ProfileEntry, error)
	PlayerMatchHistory(player string, limit int) ([]storage.MatchRecord, error)
}

// Claims is the JWT payload the gateway accepts.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Server upgrades websocket connections, authenticates them and bridges
// them to the coordinator.
type Server struct {
	logger   *log.Logger
	coord    *arena.Coordinator
	registry *arena.SessionRegistry
	history  HistoryStore
	secret   []byte
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	nextID   atomic.Uint64
}

// NewServer wires the gateway. history may be nil; the leaderboard and
// history endpoints then return 404. An empty secret disables token checks
// and trusts the name query parameter, for local play.
func NewServer(logger *log.Logger, coord *arena.Coordinator, registry *arena.SessionRegistry, history HistoryStore, jwtSecret string) *Server {
	return &Server{
		logger:   logger.WithPrefix("ws"),
		coord:    coord,
		registry: registry,
		history:  history,
		secret:   []byte(jwtSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the gateway's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("/history", s.handleHistory)
	return mux
}

// ListenAndServe blocks serving the gateway on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.Handler()}
	s.logger.Info("listening", "addr", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	name, err := s.authenticate(r)
	if err != nil {
		s.logger.Debug("auth rejected", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	id := arena.SessionID(fmt.Sprintf("ws-%d", s.nextID.Add(1)))
	session := arena.NewChannelSession(id, name, sessionBuffer)
	s.registry.Register(session)

	s.logger.Info("session connected", "session", id, "player", name)

	c := &client{
		conn:     conn,
		session:  session,
		coord:    s.coord,
		logger:   s.logger,
		outbound: make(chan Envelope, 16),
	}
	go c.writePump()
	go func() {
		c.readPump()
		s.registry.Unregister(id)
		s.logger.Info("session closed", "session", id, "player", name)
	}()
}

// authenticate resolves the player identity from the request. With a secret
// configured, a valid HS256 token is required in the token query parameter
// or the Authorization header.
func (s *Server) authenticate(r *http.Request) (string, error) {
	if len(s.secret) == 0 {
		name := r.URL.Query().Get("name")
		if name == "" {
			return "", errors.New("missing name")
		}
		return name, nil
	}

	raw := r.URL.Query().Get("token")
	if raw == "" {
		header := r.Header.Get("Authorization")
		raw = strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			raw = ""
		}
	}
	if raw == "" {
		return "", errors.New("missing token")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Name == "" {
		return "", errors.New("invalid claims")
	}
	return claims.Name, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	entries, err := s.history.Leaderboard(queryLimit(r, 10))
	if err != nil {
		s.logger.Error("leaderboard query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.NotFound(w, r)
		return
	}
	player := r.URL.Query().Get("player")
	if player == "" {
		http.Error(w, "missing player", http.StatusBadRequest)
		return
	}
	records, err := s.history.PlayerMatchHistory(player, queryLimit(r, 20))
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func queryLimit(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
