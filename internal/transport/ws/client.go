package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kaydendua/bAIted/internal/app"
	"github.com/kaydendua/bAIted/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 65536

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection. It is the gateway: it
// validates inbound payloads, dispatches to the managers, and sends the
// private responses; room-wide phase broadcasts come from the orchestrator.
type Client struct {
	conn         *websocket.Conn
	hub          *Hub
	registry     *app.LobbyRegistry
	orchestrator *app.PhaseOrchestrator
	playerID     string
	send         chan []byte
	done         chan struct{}
	logger       *slog.Logger
	mu           sync.Mutex
	closed       bool
}

// NewClient creates a new WebSocket client
func NewClient(
	conn *websocket.Conn,
	hub *Hub,
	registry *app.LobbyRegistry,
	orchestrator *app.PhaseOrchestrator,
	playerID string,
	logger *slog.Logger,
) *Client {
	return &Client{
		conn:         conn,
		hub:          hub,
		registry:     registry,
		orchestrator: orchestrator,
		playerID:     playerID,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		logger:       logger,
	}
}

// PlayerID returns the connection's player id
func (c *Client) PlayerID() string {
	return c.playerID
}

// Send marshals and queues an event for delivery
func (c *Client) Send(event *domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close shuts down the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c.playerID)
		c.handleDeparture("Host disconnected")
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(msg.Payload)
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgLeaveRoom:
		c.handleLeaveRoom()
	case MsgStartGame:
		c.handleStartGame(msg.Payload)
	case MsgRequestReadingPhase:
		c.handleRequestReadingPhase(msg.Payload)
	case MsgSubmitCode:
		c.handleSubmitCode(msg.Payload)
	case MsgCastVote:
		c.handleCastVote(msg.Payload)
	case MsgGetVotes:
		c.handleGetVotes(msg.Payload)
	case MsgPing:
		c.Send(domain.NewEvent(domain.EventPong, nil))
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleCreateRoom handles a create-room message
func (c *Client) handleCreateRoom(raw json.RawMessage) {
	var payload CreateRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	lobby, err := c.registry.CreateLobby(c.playerID, payload.PlayerName, payload.MaxPlayers)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.Send(domain.NewEvent(domain.EventRoomCreated, &domain.LobbySnapshotPayload{
		Lobby: lobby.PublicView(),
	}))
}

// handleJoinRoom handles a join-room message
func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}
	if payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}

	lobby, err := c.registry.JoinLobby(payload.RoomCode, c.playerID, payload.PlayerName)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	view := lobby.PublicView()
	c.Send(domain.NewEvent(domain.EventRoomJoined, &domain.LobbySnapshotPayload{Lobby: view}))

	if joined := lobby.Player(c.playerID); joined != nil {
		c.hub.SendToLobby(lobby.Code, domain.NewEvent(domain.EventPlayerJoined, &domain.PlayerJoinedPayload{
			Lobby:  view,
			Player: joined.ToInfo(),
		}))
	}
}

// handleLeaveRoom handles a leave-room message
func (c *Client) handleLeaveRoom() {
	c.handleDeparture("Host left the lobby")
	c.Send(domain.NewEvent(domain.EventLobbyLeft, nil))
}

// handleDeparture removes this connection from its lobby, shared between an
// explicit leave-room request and the read pump's disconnect path
func (c *Client) handleDeparture(closedReason string) {
	res := c.registry.LeaveLobby(c.playerID)
	if res.Code == "" {
		return
	}

	if res.Destroyed {
		c.orchestrator.Cleanup(res.Code)
		if len(res.Remaining) > 0 {
			c.hub.SendToPlayers(res.Remaining, domain.NewEvent(domain.EventLobbyClosed, &domain.LobbyClosedPayload{
				Reason: closedReason,
			}))
		}
		return
	}

	if res.Lobby != nil {
		c.hub.SendToLobby(res.Code, domain.NewEvent(domain.EventPlayerLeft, &domain.PlayerLeftPayload{
			Lobby:    res.Lobby.PublicView(),
			PlayerID: c.playerID,
		}))
	}
}

// handleStartGame handles a start-game message
func (c *Client) handleStartGame(raw json.RawMessage) {
	var payload RoomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}

	lobby, err := c.registry.StartGame(strings.ToLower(payload.RoomCode), c.playerID)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	// The broadcast goes through the redacted view; only the AI player
	// learns the assignment, over their own connection.
	c.hub.SendToLobby(lobby.Code, domain.NewEvent(domain.EventGameStarted, &domain.LobbySnapshotPayload{
		Lobby: lobby.PublicView(),
	}))

	c.hub.SendToPlayer(lobby.AIPlayerID, domain.NewEvent(domain.EventYouAreAI, &domain.YouAreAIPayload{
		Message: "You are the AI user! Use AI to help you code without getting caught.",
	}))
}

// handleRequestReadingPhase handles a request-reading-phase message
func (c *Client) handleRequestReadingPhase(raw json.RawMessage) {
	var payload RoomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}

	code := strings.ToLower(payload.RoomCode)
	lobby, ok := c.registry.GetLobby(code)
	if !ok {
		c.sendDomainError(domain.ErrLobbyNotFound)
		return
	}
	if lobby.HostID != c.playerID {
		c.sendDomainError(domain.ErrNotHost)
		return
	}

	if err := c.orchestrator.StartReadingPhase(code); err != nil {
		c.sendDomainError(err)
	}
}

// handleSubmitCode handles a submit-code message
func (c *Client) handleSubmitCode(raw json.RawMessage) {
	var payload SubmitCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}

	sub, err := c.orchestrator.SubmitCode(strings.ToLower(payload.RoomCode), c.playerID, payload.Code)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.Send(domain.NewEvent(domain.EventCodeAccepted, &domain.CodeAcceptedPayload{
		Success:     true,
		SubmittedAt: sub.SubmittedAt.UnixMilli(),
	}))
}

// handleCastVote handles a cast-vote message
func (c *Client) handleCastVote(raw json.RawMessage) {
	var payload CastVotePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}
	if payload.CandidateID == "" {
		c.sendError(ErrCodeInvalidMessage, "Candidate is required")
		return
	}

	candidateName, err := c.orchestrator.CastVote(strings.ToLower(payload.RoomCode), c.playerID, payload.CandidateID)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.Send(domain.NewEvent(domain.EventVoteAccepted, &domain.VoteAcceptedPayload{
		VoterID:      c.playerID,
		VotedForID:   payload.CandidateID,
		VotedForName: candidateName,
	}))
}

// handleGetVotes handles a get-votes message
func (c *Client) handleGetVotes(raw json.RawMessage) {
	var payload RoomCodePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.RoomCode == "" {
		c.sendError(ErrCodeInvalidMessage, "Room code is required")
		return
	}

	counts, err := c.orchestrator.VoteCounts(strings.ToLower(payload.RoomCode))
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.Send(domain.NewEvent(domain.EventVoteCounts, counts))
}

// sendDomainError maps a domain error to a private error message
func (c *Client) sendDomainError(err error) {
	switch {
	case errors.Is(err, domain.ErrLobbyNotFound):
		c.sendError(ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, domain.ErrLobbyFull):
		c.sendError(ErrCodeRoomFull, "Room is full")
	case errors.Is(err, domain.ErrGameInProgress):
		c.sendError(ErrCodeInvalidAction, "Game has already started")
	case errors.Is(err, domain.ErrGameNotInProgress):
		c.sendError(ErrCodeInvalidAction, "Game is not in progress")
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		c.sendError(ErrCodeInvalidAction, "Need at least 3 players to start")
	case errors.Is(err, domain.ErrNotHost):
		c.sendError(ErrCodeNotHost, "Only the host can do that")
	case errors.Is(err, domain.ErrNotInLobby):
		c.sendError(ErrCodeNotInRoom, "You are not in this room")
	case errors.Is(err, domain.ErrInvalidPhase):
		c.sendError(ErrCodeInvalidAction, "Not allowed in the current phase")
	case errors.Is(err, domain.ErrCannotVoteSelf):
		c.sendError(ErrCodeCannotVoteSelf, "You cannot vote for yourself")
	case errors.Is(err, domain.ErrInvalidVoteTarget):
		c.sendError(ErrCodeInvalidTarget, "Invalid player to vote for")
	case errors.Is(err, domain.ErrEmptyPlayerName):
		c.sendError(ErrCodeInvalidMessage, "Player name is required")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendError sends an error message to this client only
func (c *Client) sendError(code, message string) {
	c.Send(domain.NewEvent(domain.EventError, &domain.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}
