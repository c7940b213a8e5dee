package server

import (
	"sync"

	"go.uber.org/zap"
)

// Dispatcher routes queued deliveries to the owning session's task queue.
// Each registered session drains its queue on a single goroutine, so
// deliveries posted to one session run in FIFO order and never on the
// posting goroutine.
type Dispatcher struct {
	logger *zap.Logger

	mu     sync.RWMutex
	queues map[string]*sessionQueue
}

type sessionQueue struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	onDrop func()
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger,
		queues: make(map[string]*sessionQueue),
	}
}

// Register creates the task queue for a session and starts its drain
// goroutine. onDrop (may be nil) runs whenever a delivery cannot be queued;
// the transport uses it to cut the session's connection so the client
// reconnects and resyncs rather than silently missing events. Returns a stop
// function that unregisters the session and lets the goroutine exit; tasks
// still queued at that point are discarded.
func (d *Dispatcher) Register(sessionID string, queueSize int, onDrop func()) (stop func()) {
	q := &sessionQueue{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		onDrop: onDrop,
	}

	d.mu.Lock()
	d.queues[sessionID] = q
	d.mu.Unlock()

	go func() {
		for {
			select {
			case fn := <-q.tasks:
				fn()
			case <-q.done:
				return
			}
		}
	}()

	return func() {
		q.once.Do(func() {
			d.mu.Lock()
			if current, ok := d.queues[sessionID]; ok && current == q {
				delete(d.queues, sessionID)
			}
			d.mu.Unlock()
			close(q.done)
		})
	}
}

// Post hands fn to the session's queue without blocking. Deliveries to an
// unregistered session are dropped; a full queue drops the delivery and runs
// the session's drop hook rather than stalling the poster.
func (d *Dispatcher) Post(sessionID string, fn func()) {
	d.mu.RLock()
	q, ok := d.queues[sessionID]
	d.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case q.tasks <- fn:
	default:
		d.logger.Warn("delivery queue full, dropping event", zap.String("session_id", sessionID))
		if q.onDrop != nil {
			q.onDrop()
		}
	}
}
