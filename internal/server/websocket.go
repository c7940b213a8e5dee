package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/monopolyfree/monopoly-server-go/internal/config"
	"github.com/monopolyfree/monopoly-server-go/internal/game"
	"github.com/monopolyfree/monopoly-server-go/internal/session"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Auditor records committed transaction descriptions. Implementations must
// tolerate being called concurrently.
type Auditor interface {
	Record(ctx context.Context, gameName, description string)
}

// WebSocketServer is the transport collaborator: it upgrades HTTP
// connections, binds each to a session, translates JSON commands into game
// operations and writes events back out. The per-client writer goroutine
// plus the Dispatcher's per-session queue together form the asynchronous
// FIFO delivery primitive the game servers rely on.
type WebSocketServer struct {
	cfg        config.WebSocketConfig
	registry   *Registry
	sessions   *session.Manager
	dispatcher *Dispatcher
	metrics    *Metrics
	auditor    Auditor
	logger     *zap.Logger

	upgrader websocket.Upgrader
}

// NewWebSocketServer wires the gateway. auditor may be nil.
func NewWebSocketServer(
	cfg config.WebSocketConfig,
	registry *Registry,
	sessions *session.Manager,
	dispatcher *Dispatcher,
	metrics *Metrics,
	auditor Auditor,
	logger *zap.Logger,
) *WebSocketServer {
	return &WebSocketServer{
		cfg:        cfg,
		registry:   registry,
		sessions:   sessions,
		dispatcher: dispatcher,
		metrics:    metrics,
		auditor:    auditor,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ListenAndServe blocks serving the websocket endpoint until the listener
// fails or ctx is cancelled.
func (s *WebSocketServer) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("websocket server listening", zap.String("address", s.cfg.Address))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *WebSocketServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	host, _, splitErr := net.SplitHostPort(r.RemoteAddr)
	if splitErr != nil {
		host = r.RemoteAddr
	}

	sess := s.sessions.CreateSession("", host)
	client := newWSClient(sess.ID, conn, s.cfg.SendQueueSize, s.logger)
	stopQueue := s.dispatcher.Register(sess.ID, s.cfg.SendQueueSize, client.close)
	sess.SetCloseFunc(client.close)

	if s.metrics != nil {
		s.metrics.ClientConnected()
	}
	s.logger.Info("client connected", zap.String("session_id", sess.ID), zap.String("host", host))

	go client.writePump()
	s.readLoop(sess, client)

	// Teardown: leave the game, stop the queue, drop the session.
	if gs := client.gameServer; gs != nil {
		gs.Disconnect(client)
		if _, _, playerID, ok := sess.Player(); ok {
			gs.Logout(playerID)
		}
	}
	stopQueue()
	client.close()
	s.sessions.RemoveSession(sess.ID)
	if s.metrics != nil {
		s.metrics.ClientDisconnected()
	}
	s.logger.Info("client disconnected", zap.String("session_id", sess.ID))
}

func (s *WebSocketServer) readLoop(sess *session.Session, client *wsClient) {
	conn := client.conn
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		sess.UpdateActivity()
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read error", zap.String("session_id", sess.ID), zap.Error(err))
			}
			return
		}
		sess.UpdateActivity()
		s.handleCommand(sess, client, cmd)
	}
}

// command is one JSON request from a client.
type command struct {
	Type     string `json:"type"`
	Game     string `json:"game,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`

	Action       string `json:"action,omitempty"`
	Player       *int   `json:"player,omitempty"`
	ToPlayer     int    `json:"to_player,omitempty"`
	Property     string `json:"property,omitempty"`
	Group        string `json:"group,omitempty"`
	Amount       int    `json:"amount,omitempty"`
	Number       int    `json:"number,omitempty"`
	CostPerHouse int    `json:"cost_per_house,omitempty"`
	CostPerHotel int    `json:"cost_per_hotel,omitempty"`
}

// serverMessage is one JSON response or event pushed to a client.
type serverMessage struct {
	Type        string     `json:"type"`
	Kind        string     `json:"kind,omitempty"`
	Description string     `json:"description,omitempty"`
	OK          *bool      `json:"ok,omitempty"`
	Message     string     `json:"message,omitempty"`
	PlayerID    *int       `json:"player_id,omitempty"`
	State       *game.Game `json:"state,omitempty"`
}

func resultMessage(r game.Result) serverMessage {
	ok := r.OK
	return serverMessage{Type: "result", OK: &ok, Message: r.Message}
}

func errorMessage(text string) serverMessage {
	return serverMessage{Type: "error", Message: text}
}

func (s *WebSocketServer) handleCommand(sess *session.Session, client *wsClient, cmd command) {
	switch cmd.Type {
	case "join":
		if cmd.Game == "" {
			client.send(errorMessage("game name is required"))
			return
		}
		if client.gameServer != nil {
			client.send(errorMessage("already joined a game"))
			return
		}
		gs := s.registry.Get(cmd.Game)
		if !gs.Connect(client) {
			client.send(errorMessage("already connected"))
			return
		}
		client.gameServer = gs
		client.send(serverMessage{Type: "joined", Message: cmd.Game})

	case "login":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		if cmd.Username == "" {
			client.send(errorMessage("username is required"))
			return
		}
		playerID, ok := gs.Login(cmd.Username, sess.ID)
		if !ok {
			client.send(resultMessage(game.Result{Message: cmd.Username + " is already logged in"}))
			return
		}
		sess.SetPlayer(gs.Name(), cmd.Username, playerID)
		client.send(serverMessage{Type: "result", OK: boolPtr(true), PlayerID: &playerID})

	case "logout":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		_, username, playerID, ok := sess.Player()
		if !ok {
			client.send(resultMessage(game.Result{Message: "not logged in"}))
			return
		}
		gs.Logout(playerID)
		sess.ClearPlayer()
		client.send(resultMessage(game.Result{OK: true, Message: username + " logged out"}))

	case "chat":
		gs := client.gameServer
		_, username, _, ok := sess.Player()
		if gs == nil || !ok {
			client.send(errorMessage("login first"))
			return
		}
		gs.Post(game.MessageEvent{Sender: username, Text: cmd.Text}, sess.ID)

	case "state":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		client.send(serverMessage{Type: "state", State: gs.Game()})

	case "undo":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		r := gs.Undo()
		if r.OK {
			gs.Post(game.UndoEvent{Outcome: r.Message}, sess.ID)
			s.audit(gs.Name(), r.Message)
		}
		client.send(resultMessage(r))

	case "redo":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		r := gs.Redo()
		if r.OK {
			gs.Post(game.RedoEvent{Outcome: r.Message}, sess.ID)
			s.audit(gs.Name(), r.Message)
		}
		client.send(resultMessage(r))

	case "tx":
		gs := client.gameServer
		if gs == nil {
			client.send(errorMessage("join a game first"))
			return
		}
		t, err := s.buildTransaction(gs, sess, cmd)
		if err != "" {
			client.send(errorMessage(err))
			return
		}
		r := gs.Apply(t)
		if r.OK {
			gs.Post(game.GameEvent{Tx: t, Outcome: r.Message}, sess.ID)
			s.audit(gs.Name(), r.Message)
		}
		client.send(resultMessage(r))

	default:
		client.send(errorMessage("unknown command type"))
	}
}

// buildTransaction translates a tx command into a Transaction value. The
// gateway validates every id here; the engine treats malformed input as a
// programming error.
func (s *WebSocketServer) buildTransaction(gs *GameServer, sess *session.Session, cmd command) (game.Transaction, string) {
	g := gs.Game()

	player := -1
	if _, _, playerID, ok := sess.Player(); ok {
		player = playerID
	}
	if cmd.Player != nil {
		player = *cmd.Player
	}
	needsPlayer := cmd.Action != "raise_interest" && cmd.Action != "lower_interest"
	if needsPlayer && (player < 0 || player >= len(g.Players)) {
		return game.Transaction{}, "unknown player"
	}

	propertyID := -1
	if cmd.Property != "" {
		id, ok := g.PropertyID(cmd.Property)
		if !ok {
			return game.Transaction{}, "unknown property: " + cmd.Property
		}
		propertyID = id
	}

	var group game.PropertySet
	if cmd.Group != "" {
		set, ok := game.GroupByName(cmd.Group)
		if !ok {
			return game.Transaction{}, "unknown group: " + cmd.Group
		}
		group = set
	}

	if cmd.Amount < 0 || cmd.Number < 0 || cmd.CostPerHouse < 0 || cmd.CostPerHotel < 0 {
		return game.Transaction{}, "amounts must not be negative"
	}

	needsProperty := func() (game.Transaction, string) {
		return game.Transaction{}, "property is required"
	}

	switch cmd.Action {
	case "raise_interest":
		return game.RaiseInterest(), ""
	case "lower_interest":
		return game.LowerInterest(), ""
	case "pass_go":
		return game.PassGo(player), ""
	case "buy_property":
		if propertyID < 0 {
			return needsProperty()
		}
		return game.BuyProperty(player, propertyID, cmd.Amount), ""
	case "sell_property":
		if propertyID < 0 {
			return needsProperty()
		}
		return game.SellProperty(player, propertyID), ""
	case "mortgage":
		if propertyID < 0 {
			return needsProperty()
		}
		return game.Mortgage(player, propertyID), ""
	case "unmortgage":
		if propertyID < 0 {
			return needsProperty()
		}
		return game.Unmortgage(player, propertyID), ""
	case "build_houses":
		if group == 0 {
			return game.Transaction{}, "group is required"
		}
		return game.BuildHouses(player, group, cmd.Number), ""
	case "sell_houses":
		if group == 0 {
			return game.Transaction{}, "group is required"
		}
		return game.SellHouses(player, group, cmd.Number), ""
	case "pay_repairs":
		return game.PayRepairs(player, cmd.CostPerHouse, cmd.CostPerHotel), ""
	case "pay_to_bank":
		return game.PayToBank(player, cmd.Amount), ""
	case "pay_to_player":
		return game.PayToPlayer(player, cmd.Amount), ""
	case "transfer":
		if cmd.ToPlayer < 0 || cmd.ToPlayer >= len(g.Players) {
			return game.Transaction{}, "unknown player"
		}
		set := group
		if propertyID >= 0 {
			set |= game.Single(propertyID)
		}
		return game.Transfer(player, cmd.ToPlayer, cmd.Amount, set), ""
	case "take_out_secured_debt":
		return game.TakeOutSecuredDebt(player, cmd.Amount), ""
	case "take_out_unsecured_debt":
		return game.TakeOutUnsecuredDebt(player, cmd.Amount), ""
	case "pay_off_secured_debt":
		return game.PayOffSecuredDebt(player, cmd.Amount), ""
	case "pay_off_unsecured_debt":
		return game.PayOffUnsecuredDebt(player, cmd.Amount), ""
	case "concede_to_player":
		if cmd.ToPlayer < 0 || cmd.ToPlayer >= len(g.Players) {
			return game.Transaction{}, "unknown player"
		}
		return game.ConcedeToPlayer(player, cmd.ToPlayer), ""
	case "concede_to_bank":
		return game.ConcedeToBank(player), ""
	}
	return game.Transaction{}, "unknown action: " + cmd.Action
}

func (s *WebSocketServer) audit(gameName, description string) {
	if s.auditor == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.auditor.Record(ctx, gameName, description)
	}()
}

func boolPtr(b bool) *bool { return &b }

// wsClient is one connected socket. It implements Client: HandleEvent
// enqueues the rendered event to the outbound channel without blocking,
// whether it is called inline by the originating session or from the
// dispatcher's queue goroutine.
type wsClient struct {
	sessionID string
	conn      *websocket.Conn
	logger    *zap.Logger

	gameServer *GameServer

	out       chan serverMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(sessionID string, conn *websocket.Conn, queueSize int, logger *zap.Logger) *wsClient {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &wsClient{
		sessionID: sessionID,
		conn:      conn,
		logger:    logger,
		out:       make(chan serverMessage, queueSize),
		done:      make(chan struct{}),
	}
}

func (c *wsClient) SessionID() string {
	return c.sessionID
}

func (c *wsClient) HandleEvent(e game.Event) {
	c.send(serverMessage{
		Type:        "event",
		Kind:        eventKind(e),
		Description: e.Description(),
	})
}

func (c *wsClient) send(msg serverMessage) {
	select {
	case c.out <- msg:
	case <-c.done:
	default:
		// A client that cannot keep up is cut loose rather than allowed to
		// stall everyone else.
		c.logger.Warn("outbound queue full, closing client", zap.String("session_id", c.sessionID))
		c.close()
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			data, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("marshal outbound message", zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func eventKind(e game.Event) string {
	switch e.(type) {
	case game.NotificationEvent:
		return "notification"
	case game.MessageEvent:
		return "message"
	case game.GameEvent:
		return "game"
	case game.AddPlayerEvent:
		return "add_player"
	case game.UndoEvent:
		return "undo"
	case game.RedoEvent:
		return "redo"
	}
	return "unknown"
}
