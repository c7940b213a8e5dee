package server

import (
	"sync"

	"github.com/monopolyfree/monopoly-server-go/internal/game"
	"go.uber.org/zap"
)

// Registry owns one GameServer per game name, created lazily on first
// access. Different games are fully independent and may be operated
// concurrently.
type Registry struct {
	historyCapacity int
	poster          Poster
	metrics         *Metrics
	logger          *zap.Logger

	mu    sync.Mutex
	games map[string]*GameServer
}

// NewRegistry creates an empty registry. The poster is shared by every
// GameServer it creates.
func NewRegistry(historyCapacity int, poster Poster, metrics *Metrics, logger *zap.Logger) *Registry {
	return &Registry{
		historyCapacity: historyCapacity,
		poster:          poster,
		metrics:         metrics,
		logger:          logger,
		games:           make(map[string]*GameServer),
	}
}

// Get returns the server for the named game, creating it on first use.
func (r *Registry) Get(name string) *GameServer {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.games[name]
	if !ok {
		s = NewGameServer(name, r.historyCapacity, r.poster, r.metrics, r.logger)
		r.games[name] = s
		r.logger.Info("game created", zap.String("game", name))
	}
	return s
}

// Len returns the number of games created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.games)
}

// Broadcast posts an operator notification to every game. No session
// originates it, so every client receives it through their queue.
func (r *Registry) Broadcast(text string) {
	r.mu.Lock()
	servers := make([]*GameServer, 0, len(r.games))
	for _, s := range r.games {
		servers = append(servers, s)
	}
	r.mu.Unlock()

	for _, s := range servers {
		s.Post(game.NotificationEvent{Text: text}, "")
	}
}
