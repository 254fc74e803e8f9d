package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"codearena/internal/arena"
	"codearena/internal/game"
	"codearena/internal/storage"
	"codearena/internal/strategy"
)

type passEvaluator struct{}

func (passEvaluator) Evaluate(context.Context, string, []strategy.Rule, strategy.Context) ([]game.Action, error) {
	return strategy.IdleTriple(), nil
}

func (passEvaluator) CheckSyntax(string) strategy.SyntaxResult {
	return strategy.SyntaxResult{OK: true}
}

type fakeHistory struct{}

func (fakeHistory) Leaderboard(int) ([]storage.ProfileEntry, error) {
	return []storage.ProfileEntry{{Player: "alice", Score: 100}}, nil
}

func (fakeHistory) PlayerMatchHistory(string, int) ([]storage.MatchRecord, error) {
	return []storage.MatchRecord{{RoomID: "123456"}}, nil
}

func newTestServer(t *testing.T, secret string) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.New(io.Discard)
	registry := arena.NewSessionRegistry()
	coord := arena.NewCoordinator(logger, registry, passEvaluator{}, arena.Tuning{}, nil, nil, nil)
	coord.Start()
	t.Cleanup(coord.Stop)

	srv := NewServer(logger, coord, registry, fakeHistory{}, secret)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func signToken(t *testing.T, secret, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}
	return signed
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
}

func TestHealthEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	_, ts := newTestServer(t, "topsecret")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	if err == nil {
		t.Fatal("Expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %+v", resp)
	}
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	_, ts := newTestServer(t, "topsecret")
	token := signToken(t, "othersecret", "alice")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+token), nil)
	if err == nil {
		t.Fatal("Expected dial to fail with a forged token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %+v", resp)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	_, ts := newTestServer(t, "topsecret")
	token := signToken(t, "topsecret", "alice")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+token), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	conn.Close()
}

func TestAnonymousModeUsesNameParam(t *testing.T) {
	_, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "name=alice"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	conn.Close()

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil); err == nil {
		t.Error("Expected dial to fail without a name")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %+v", resp)
	}
}

func TestCreateRoomRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "name=alice"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Envelope{Type: "create_room"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if env.Type != "room_created" {
		t.Fatalf("Expected room_created, got %q", env.Type)
	}

	var body struct {
		RoomID string `json:"roomId"`
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(body.RoomID) != 6 || len(body.Secret) != 4 {
		t.Errorf("Unexpected codes: %+v", body)
	}
}

func TestCheckSyntaxAnsweredInline(t *testing.T) {
	_, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "name=alice"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	payload, _ := json.Marshal(map[string]string{"program": "function f(p) end"})
	if err := conn.WriteJSON(Envelope{Type: "check_syntax", Data: payload}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if env.Type != "syntax_result" {
		t.Errorf("Expected syntax_result, got %q", env.Type)
	}
}

func TestUnknownFrameReportsError(t *testing.T) {
	_, ts := newTestServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "name=alice"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(Envelope{Type: "bogus"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if env.Type != "error" {
		t.Errorf("Expected error frame, got %q", env.Type)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/leaderboard")
	if err != nil {
		t.Fatalf("GET /leaderboard failed: %v", err)
	}
	defer resp.Body.Close()

	var entries []storage.ProfileEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Player != "alice" {
		t.Errorf("Unexpected leaderboard: %v", entries)
	}
}

func TestHistoryEndpointRequiresPlayer(t *testing.T) {
	_, ts := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/history")
	if err != nil {
		t.Fatalf("GET /history failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without player, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/history?player=alice")
	if err != nil {
		t.Fatalf("GET /history failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
