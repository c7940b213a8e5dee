package session

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestManager_CreateAndLookup(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())

	s := m.CreateSession("", "10.0.0.1")
	if s.ID == "" {
		t.Fatal("Expected a generated session id")
	}

	got, ok := m.GetSession(s.ID)
	if !ok || got != s {
		t.Error("Lookup did not return the created session")
	}
	if m.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions = %d, want 1", m.ActiveSessions())
	}

	m.RemoveSession(s.ID)
	if _, ok := m.GetSession(s.ID); ok {
		t.Error("Session still present after removal")
	}
}

func TestManager_CreateSessionKeepsGivenID(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())

	s := m.CreateSession("fixed-id", "")
	if s.ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", s.ID)
	}
}

func TestSession_PlayerLifecycle(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	s := m.CreateSession("", "")

	if _, _, _, ok := s.Player(); ok {
		t.Error("Fresh session must not report a login")
	}

	s.SetPlayer("alpha", "alice", 2)
	gameName, username, playerID, ok := s.Player()
	if !ok || gameName != "alpha" || username != "alice" || playerID != 2 {
		t.Errorf("Player() = %q/%q/%d/%v", gameName, username, playerID, ok)
	}

	s.ClearPlayer()
	if _, _, _, ok := s.Player(); ok {
		t.Error("Login survived ClearPlayer")
	}
}

func TestManager_ExpireClosesIdleSessions(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())

	idle := m.CreateSession("idle", "")
	active := m.CreateSession("active", "")

	idleClosed := false
	idle.SetCloseFunc(func() { idleClosed = true })
	activeClosed := false
	active.SetCloseFunc(func() { activeClosed = true })

	// Backdate the idle session past its lease.
	idle.mu.Lock()
	idle.lastActivity = time.Now().Add(-2 * time.Minute)
	idle.mu.Unlock()

	m.expire(time.Now())

	if !idleClosed {
		t.Error("Idle session not closed")
	}
	if _, ok := m.GetSession("idle"); ok {
		t.Error("Idle session still registered")
	}
	if activeClosed {
		t.Error("Active session closed by sweep")
	}
	if _, ok := m.GetSession("active"); !ok {
		t.Error("Active session removed by sweep")
	}
}

func TestManager_CloseAll(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())

	closed := 0
	for i := 0; i < 3; i++ {
		s := m.CreateSession("", "")
		s.SetCloseFunc(func() { closed++ })
	}

	m.CloseAll()
	if closed != 3 {
		t.Errorf("closed = %d, want 3", closed)
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions = %d, want 0", m.ActiveSessions())
	}
}

func TestSession_CloseRunsHookOnce(t *testing.T) {
	m := NewManager(time.Minute, zap.NewNop())
	s := m.CreateSession("", "")

	calls := 0
	s.SetCloseFunc(func() { calls++ })
	s.close()
	s.close()

	if calls != 1 {
		t.Errorf("close hook ran %d times, want 1", calls)
	}
}
