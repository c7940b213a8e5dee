package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one connected caller. Its ID is the opaque identity the game
// servers compare to decide between synchronous and queued event delivery.
type Session struct {
	ID   string
	Host string

	mu           sync.Mutex
	username     string
	gameName     string
	playerID     int
	lastActivity time.Time
	closeFn      func()
}

// SetPlayer records which player this session is logged in as.
func (s *Session) SetPlayer(gameName, username string, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gameName = gameName
	s.username = username
	s.playerID = playerID
}

// Player returns the login recorded on the session, ok=false before login.
func (s *Session) Player() (gameName, username string, playerID int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gameName, s.username, s.playerID, s.username != ""
}

// ClearPlayer wipes the login after logout.
func (s *Session) ClearPlayer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.username = ""
	s.gameName = ""
	s.playerID = 0
}

// SetCloseFunc registers the hook run when the session is closed (lease
// expiry or server shutdown). The transport uses it to drop the connection.
func (s *Session) SetCloseFunc(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeFn = fn
}

// UpdateActivity refreshes the lease.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()
}

func (s *Session) expired(lease time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return now.Sub(s.lastActivity) > lease
}

func (s *Session) close() {
	s.mu.Lock()
	fn := s.closeFn
	s.closeFn = nil
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Manager tracks active sessions and expires the ones that stop pinging.
type Manager struct {
	leasePeriod time.Duration
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager with the given lease period.
func NewManager(leasePeriod time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		leasePeriod: leasePeriod,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// CreateSession registers a new session. An empty id gets a fresh UUID.
func (m *Manager) CreateSession(id, host string) *Session {
	if id == "" {
		id = uuid.NewString()
	}

	s := &Session{
		ID:           id,
		Host:         host,
		playerID:     -1,
		lastActivity: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session_id", id), zap.String("host", host))
	return s
}

// GetSession looks up a session by id.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

// RemoveSession drops a session without running its close hook.
func (m *Manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
}

// UpdateActivity refreshes the lease on a session if it exists.
func (m *Manager) UpdateActivity(id string) {
	if s, ok := m.GetSession(id); ok {
		s.UpdateActivity()
	}
}

// ActiveSessions returns the number of live sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// CleanupExpiredSessions sweeps for expired leases until ctx is cancelled.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.leasePeriod / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

func (m *Manager) expire(now time.Time) {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.expired(m.leasePeriod, now) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.logger.Info("session expired", zap.String("session_id", s.ID))
		s.close()
	}
}

// CloseAll closes every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
