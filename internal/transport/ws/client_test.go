package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaydendua/bAIted/internal/app"
	"github.com/kaydendua/bAIted/internal/config"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context) (string, error) { return "# Problem", nil }

func newTestGateway(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	game := config.GameConfig{
		MinPlayers:        3,
		MaxPlayers:        12,
		DefaultMaxPlayers: 8,
		RoomCodeLength:    6,
		ReadingDuration:   time.Minute,
		CodingDuration:    time.Minute,
		VotingDuration:    time.Minute,
		ResultsDuration:   time.Minute,
		LobbyMaxAge:       time.Hour,
	}
	problem := config.ProblemConfig{Timeout: time.Second, GraceWindow: 100 * time.Millisecond}

	registry := app.NewLobbyRegistry(game, logger)
	t.Cleanup(registry.Close)

	hub := NewHub(registry, logger)
	orchestrator := app.NewPhaseOrchestrator(registry, app.NewVoteTally(), stubGenerator{}, hub, game, problem, logger)
	t.Cleanup(orchestrator.Close)

	srv := httptest.NewServer(NewHandler(hub, registry, orchestrator, logger))
	t.Cleanup(srv.Close)
	return srv
}

// wireEvent is the outbound envelope as seen on the wire
type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// testConn wraps a websocket connection and splits batched frames back into
// individual events
type testConn struct {
	t        *testing.T
	conn     *websocket.Conn
	queue    []wireEvent
	playerID string
}

func dial(t *testing.T, srv *httptest.Server) *testConn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &testConn{t: t, conn: conn}

	// Every connection is greeted with its assigned id
	connected := c.waitFor("connected")
	var payload struct {
		PlayerID string `json:"playerId"`
	}
	require.NoError(t, json.Unmarshal(connected, &payload))
	require.NotEmpty(t, payload.PlayerID)
	c.playerID = payload.PlayerID

	return c
}

func (c *testConn) send(msgType string, payload interface{}) {
	c.t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	err = c.conn.WriteJSON(map[string]interface{}{
		"type":    msgType,
		"payload": json.RawMessage(raw),
	})
	require.NoError(c.t, err)
}

// next returns the next event, reading a frame off the wire when the local
// queue is empty. Queued messages share a frame separated by newlines.
func (c *testConn) next() wireEvent {
	c.t.Helper()

	if len(c.queue) == 0 {
		c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "timed out waiting for an event")

		for _, chunk := range bytes.Split(data, []byte{'\n'}) {
			var e wireEvent
			require.NoError(c.t, json.Unmarshal(chunk, &e))
			c.queue = append(c.queue, e)
		}
	}

	e := c.queue[0]
	c.queue = c.queue[1:]
	return e
}

// waitFor reads events until one of the given type arrives
func (c *testConn) waitFor(eventType string) json.RawMessage {
	c.t.Helper()

	for i := 0; i < 32; i++ {
		if e := c.next(); e.Type == eventType {
			return e.Payload
		}
	}
	c.t.Fatalf("event %q never arrived", eventType)
	return nil
}

// sawBeforePong reports whether an event of the given type is delivered
// before the response to a ping sent now. Delivery per connection is ordered,
// so anything queued earlier arrives first.
func (c *testConn) sawBeforePong(eventType string) bool {
	c.t.Helper()

	c.send("ping", struct{}{})
	for i := 0; i < 32; i++ {
		e := c.next()
		if e.Type == eventType {
			c.waitFor("pong")
			return true
		}
		if e.Type == "pong" {
			return false
		}
	}
	c.t.Fatalf("pong never arrived")
	return false
}

type lobbyPayload struct {
	Lobby struct {
		Code       string `json:"code"`
		HostID     string `json:"hostId"`
		Status     string `json:"status"`
		MaxPlayers int    `json:"maxPlayers"`
		Players    []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"players"`
	} `json:"lobby"`
}

func createRoom(t *testing.T, c *testConn, name string) string {
	t.Helper()

	c.send("create-room", map[string]interface{}{"playerName": name})
	var created lobbyPayload
	require.NoError(t, json.Unmarshal(c.waitFor("room-created"), &created))
	require.Len(t, created.Lobby.Code, 6)
	return created.Lobby.Code
}

func joinRoom(t *testing.T, c *testConn, code, name string) {
	t.Helper()

	c.send("join-room", map[string]interface{}{"roomCode": code, "playerName": name})
	c.waitFor("room-joined")
}

func TestGateway_CreateRoom(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)

	host.send("create-room", map[string]interface{}{"playerName": "Alice", "maxPlayers": 4})

	var created lobbyPayload
	require.NoError(t, json.Unmarshal(host.waitFor("room-created"), &created))
	assert.Len(t, created.Lobby.Code, 6)
	assert.Equal(t, host.playerID, created.Lobby.HostID)
	assert.Equal(t, "waiting", created.Lobby.Status)
	assert.Equal(t, 4, created.Lobby.MaxPlayers)
	require.Len(t, created.Lobby.Players, 1)
	assert.Equal(t, "Alice", created.Lobby.Players[0].Name)
}

func TestGateway_JoinBroadcasts(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)
	guest := dial(t, srv)

	code := createRoom(t, host, "Alice")

	guest.send("join-room", map[string]interface{}{"roomCode": code, "playerName": "Bob"})

	var joined lobbyPayload
	require.NoError(t, json.Unmarshal(guest.waitFor("room-joined"), &joined))
	assert.Len(t, joined.Lobby.Players, 2)

	// The whole room, host included, hears about the new player
	var broadcast struct {
		Player struct {
			Name string `json:"name"`
		} `json:"player"`
	}
	require.NoError(t, json.Unmarshal(host.waitFor("player-joined"), &broadcast))
	assert.Equal(t, "Bob", broadcast.Player.Name)
}

func TestGateway_JoinUnknownRoom(t *testing.T) {
	srv := newTestGateway(t)
	c := dial(t, srv)

	c.send("join-room", map[string]interface{}{"roomCode": "zzzzzz", "playerName": "Bob"})

	var errPayload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(c.waitFor("error"), &errPayload))
	assert.Equal(t, ErrCodeRoomNotFound, errPayload.Code)
}

func TestGateway_StartGame(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)
	p2 := dial(t, srv)
	p3 := dial(t, srv)

	code := createRoom(t, host, "Alice")
	joinRoom(t, p2, code, "Bob")
	joinRoom(t, p3, code, "Carol")

	// Only the host may start
	p2.send("start-game", map[string]interface{}{"roomCode": code})
	var errPayload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(p2.waitFor("error"), &errPayload))
	assert.Equal(t, ErrCodeNotHost, errPayload.Code)

	host.send("start-game", map[string]interface{}{"roomCode": code})

	for _, c := range []*testConn{host, p2, p3} {
		raw := c.waitFor("game-started")
		var started lobbyPayload
		require.NoError(t, json.Unmarshal(raw, &started))
		assert.Equal(t, "in-progress", started.Lobby.Status)

		// The broadcast must never leak the assignment
		assert.NotContains(t, string(raw), "aiPlayerId")
		assert.NotContains(t, string(raw), "isAi")
	}

	// Exactly one member got the secret role notification
	secrets := 0
	for _, c := range []*testConn{host, p2, p3} {
		if c.sawBeforePong("you-are-ai") {
			secrets++
		}
	}
	assert.Equal(t, 1, secrets)
}

func TestGateway_HostLeaveClosesRoom(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)
	guest := dial(t, srv)

	code := createRoom(t, host, "Alice")
	joinRoom(t, guest, code, "Bob")
	host.waitFor("player-joined")

	host.send("leave-room", struct{}{})
	host.waitFor("lobby-left")

	var closed struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(guest.waitFor("lobby-closed"), &closed))
	assert.Equal(t, "Host left the lobby", closed.Reason)
}

func TestGateway_GuestLeaveBroadcasts(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)
	guest := dial(t, srv)

	code := createRoom(t, host, "Alice")
	joinRoom(t, guest, code, "Bob")

	guest.send("leave-room", struct{}{})
	guest.waitFor("lobby-left")

	var left struct {
		PlayerID string `json:"playerId"`
		Lobby    struct {
			Players []struct {
				ID string `json:"id"`
			} `json:"players"`
		} `json:"lobby"`
	}
	require.NoError(t, json.Unmarshal(host.waitFor("player-left"), &left))
	assert.Equal(t, guest.playerID, left.PlayerID)
	assert.Len(t, left.Lobby.Players, 1)
}

func TestGateway_ReadingPhaseFlow(t *testing.T) {
	srv := newTestGateway(t)
	host := dial(t, srv)
	p2 := dial(t, srv)
	p3 := dial(t, srv)

	code := createRoom(t, host, "Alice")
	joinRoom(t, p2, code, "Bob")
	joinRoom(t, p3, code, "Carol")

	host.send("start-game", map[string]interface{}{"roomCode": code})
	host.waitFor("game-started")

	// Guests cannot kick off the round
	p2.send("request-reading-phase", map[string]interface{}{"roomCode": code})
	var errPayload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(p2.waitFor("error"), &errPayload))
	assert.Equal(t, ErrCodeNotHost, errPayload.Code)

	host.send("request-reading-phase", map[string]interface{}{"roomCode": code})

	for _, c := range []*testConn{host, p2, p3} {
		var phase struct {
			Phase    string `json:"phase"`
			Duration int64  `json:"duration"`
			Problem  string `json:"problem"`
		}
		require.NoError(t, json.Unmarshal(c.waitFor("phase-started"), &phase))
		assert.Equal(t, "reading", phase.Phase)
		assert.Equal(t, time.Minute.Milliseconds(), phase.Duration)
		assert.Equal(t, "# Problem", phase.Problem)
	}
}

func TestGateway_MalformedMessage(t *testing.T) {
	srv := newTestGateway(t)
	c := dial(t, srv)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	var errPayload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(c.waitFor("error"), &errPayload))
	assert.Equal(t, ErrCodeInvalidMessage, errPayload.Code)

	// The connection survives bad input
	c.send("ping", struct{}{})
	c.waitFor("pong")
}
