package server

import (
	"sync"

	"github.com/monopolyfree/monopoly-server-go/internal/game"
	"go.uber.org/zap"
)

// Client is a connected delivery target for one game's events. SessionID is
// the opaque caller identity recorded at connect time and compared against
// the identity driving each delivery. HandleEvent must not block.
type Client interface {
	SessionID() string
	HandleEvent(game.Event)
}

// Poster is the transport layer's asynchronous delivery primitive: run fn on
// the named session's own dispatch queue. Post must not block and must
// preserve per-session FIFO order.
type Poster interface {
	Post(sessionID string, fn func())
}

// GameServer serializes all access to one named game: its history, its
// connected clients and its logged-in player set. Many sessions drive one
// GameServer concurrently; a single mutex guards everything.
//
// The mutex is not re-entrant, so no method delivers events while holding
// it: state is committed and the client list snapshotted under lock,
// delivery happens after release.
type GameServer struct {
	name    string
	logger  *zap.Logger
	poster  Poster
	metrics *Metrics

	mu       sync.Mutex
	history  *game.History
	clients  map[Client]string
	loggedIn map[int]struct{}
}

// NewGameServer creates the server for one named game with a fresh game
// state.
func NewGameServer(name string, historyCapacity int, poster Poster, metrics *Metrics, logger *zap.Logger) *GameServer {
	return &GameServer{
		name:     name,
		logger:   logger,
		poster:   poster,
		metrics:  metrics,
		history:  game.NewHistory(game.NewGame(), historyCapacity),
		clients:  make(map[Client]string),
		loggedIn: make(map[int]struct{}),
	}
}

// Name returns the game's registry name.
func (s *GameServer) Name() string {
	return s.name
}

// Connect registers a delivery target under its session identity.
// Connecting an already-connected client is a no-op failure.
func (s *GameServer) Connect(c Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c]; ok {
		return false
	}
	s.clients[c] = c.SessionID()
	return true
}

// Disconnect unregisters a delivery target. Returns false if it was not
// connected.
func (s *GameServer) Disconnect(c Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c]; !ok {
		return false
	}
	delete(s.clients, c)
	return true
}

// Login finds the named player, creating them on first sight, and marks
// them logged in. Returns the player id, or ok=false when that player is
// already logged in from another caller. The originating session receives
// the resulting events synchronously, everyone else through their queue.
func (s *GameServer) Login(username, originSession string) (playerID int, ok bool) {
	s.mu.Lock()

	var events []game.Event

	playerID = s.history.CurrentGame().FindPlayer(username)
	if playerID < 0 {
		playerID = s.history.AddPlayer(username)
		events = append(events, game.AddPlayerEvent{Name: username, PlayerID: playerID})
	}

	if _, logged := s.loggedIn[playerID]; logged {
		s.mu.Unlock()
		s.postAll(events, originSession)
		return 0, false
	}
	s.loggedIn[playerID] = struct{}{}
	s.mu.Unlock()

	events = append(events, game.NotificationEvent{Text: username + " logged in"})
	s.postAll(events, originSession)

	s.logger.Info("player logged in",
		zap.String("game", s.name),
		zap.String("username", username),
		zap.Int("player_id", playerID),
	)
	return playerID, true
}

// Logout removes the player from the logged-in set. The player stays in the
// game.
func (s *GameServer) Logout(playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.loggedIn, playerID)
}

// Apply commits a transaction through the history. Broadcasting the
// resulting event is the caller's responsibility, so a rejected attempt
// never emits anything.
func (s *GameServer) Apply(t game.Transaction) game.Result {
	s.mu.Lock()
	result := s.history.Apply(t)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveTransaction(s.name, result.OK)
	}
	return result
}

// Undo steps the game back one transaction.
func (s *GameServer) Undo() game.Result {
	s.mu.Lock()
	result := s.history.Undo()
	s.mu.Unlock()

	if result.OK && s.metrics != nil {
		s.metrics.ObserveUndo(s.name)
	}
	return result
}

// Redo steps the game forward over one undone transaction.
func (s *GameServer) Redo() game.Result {
	s.mu.Lock()
	result := s.history.Redo()
	s.mu.Unlock()

	if result.OK && s.metrics != nil {
		s.metrics.ObserveRedo(s.name)
	}
	return result
}

// Game returns an independent copy of the current snapshot. Login mutates
// the live snapshot in place, so handing out the pointer itself would let
// unlocked readers race against it; the copy is safe to read and marshal on
// any goroutine. State changes still go through Apply.
func (s *GameServer) Game() *game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.history.CurrentGame().Copy()
}

// Post delivers an event to every connected client exactly once. Clients
// whose recorded session matches the session driving this call get the
// event synchronously on this goroutine, sparing the originator a queue
// round-trip. Everyone else gets it through their session's FIFO queue,
// which cannot deadlock against a session that is mid-operation or
// mid-teardown.
func (s *GameServer) Post(e game.Event, originSession string) {
	s.logger.Info("event", zap.String("game", s.name), zap.String("description", e.Description()))

	s.mu.Lock()
	inline := make([]Client, 0, 1)
	queued := make(map[string][]Client)
	for c, sessionID := range s.clients {
		if sessionID == originSession {
			inline = append(inline, c)
		} else {
			queued[sessionID] = append(queued[sessionID], c)
		}
	}
	s.mu.Unlock()

	for _, c := range inline {
		c.HandleEvent(e)
		if s.metrics != nil {
			s.metrics.ObserveDelivery(s.name, "inline")
		}
	}
	for sessionID, clients := range queued {
		for _, c := range clients {
			// Capture loop variables; the closure outlives this call.
			c := c
			s.poster.Post(sessionID, func() { c.HandleEvent(e) })
			if s.metrics != nil {
				s.metrics.ObserveDelivery(s.name, "queued")
			}
		}
	}
}

func (s *GameServer) postAll(events []game.Event, originSession string) {
	for _, e := range events {
		s.Post(e, originSession)
	}
}
