package server

import (
	"testing"
	"time"

	"github.com/monopolyfree/monopoly-server-go/internal/config"
	"github.com/monopolyfree/monopoly-server-go/internal/game"
	"github.com/monopolyfree/monopoly-server-go/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway() (*WebSocketServer, *session.Session, *wsClient) {
	logger := zap.NewNop()
	dispatcher := NewDispatcher(logger)
	registry := NewRegistry(game.DefaultHistoryCapacity, dispatcher, nil, logger)
	sessions := session.NewManager(time.Minute, logger)

	srv := NewWebSocketServer(
		config.WebSocketConfig{SendQueueSize: 16},
		registry, sessions, dispatcher, nil, nil, logger,
	)
	sess := sessions.CreateSession("", "")
	client := newWSClient(sess.ID, nil, 16, logger)
	return srv, sess, client
}

func drainMessages(c *wsClient) []serverMessage {
	var out []serverMessage
	for {
		select {
		case m := <-c.out:
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestHandleCommand_LogoutAcknowledges(t *testing.T) {
	srv, sess, client := newTestGateway()

	srv.handleCommand(sess, client, command{Type: "join", Game: "alpha"})
	srv.handleCommand(sess, client, command{Type: "login", Username: "alice"})
	drainMessages(client)

	srv.handleCommand(sess, client, command{Type: "logout"})
	msgs := drainMessages(client)
	require.Len(t, msgs, 1)
	assert.Equal(t, "result", msgs[0].Type)
	require.NotNil(t, msgs[0].OK)
	assert.True(t, *msgs[0].OK)
	assert.Equal(t, "alice logged out", msgs[0].Message)
	if _, _, _, ok := sess.Player(); ok {
		t.Error("login survived logout")
	}

	// A second logout reports the session is not logged in.
	srv.handleCommand(sess, client, command{Type: "logout"})
	msgs = drainMessages(client)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].OK)
	assert.False(t, *msgs[0].OK)
}

func TestHandleCommand_LogoutBeforeJoin(t *testing.T) {
	srv, sess, client := newTestGateway()

	srv.handleCommand(sess, client, command{Type: "logout"})
	msgs := drainMessages(client)
	require.Len(t, msgs, 1)
	assert.Equal(t, "error", msgs[0].Type)
}
