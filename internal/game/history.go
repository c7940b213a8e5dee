package game

// DefaultHistoryCapacity is the number of snapshots a history retains.
const DefaultHistoryCapacity = 100

// History wraps one game in a fixed-capacity cyclic buffer of full
// snapshots, giving bounded undo/redo over an unbounded stream of
// transactions. Once the buffer is full the oldest snapshot is silently
// evicted.
//
// History is not safe for concurrent use; the owning GameServer serializes
// access to it.
type History struct {
	snapshots    []*Game
	descriptions []string

	current int
	past    int
	future  int
}

// NewHistory starts a history at the given game. A capacity below two falls
// back to the default.
func NewHistory(g *Game, capacity int) *History {
	if capacity < 2 {
		capacity = DefaultHistoryCapacity
	}
	h := &History{
		snapshots:    make([]*Game, capacity),
		descriptions: make([]string, capacity),
	}
	h.snapshots[0] = g
	h.descriptions[0] = "Game started"
	return h
}

// CurrentGame returns the live snapshot. Callers must treat it as read-only;
// mutations go through Apply so they operate on a private clone.
func (h *History) CurrentGame() *Game {
	return h.snapshots[h.current]
}

// AddPlayer appends a player to the live snapshot and returns their id.
// Earlier snapshots do not know the new id, so both undo and redo history
// are invalidated.
func (h *History) AddPlayer(name string) int {
	id := h.snapshots[h.current].AddPlayer(name)
	h.descriptions[h.current] = "Player " + name + " added to game"

	h.past = 0
	h.future = 0
	return id
}

// Apply clones the current snapshot, runs the transaction on the clone and
// commits the clone as the new current state if it succeeds. A failed
// transaction leaves the history untouched.
func (h *History) Apply(t Transaction) Result {
	next := h.snapshots[h.current].Copy()
	result := t.Apply(next)
	if !result.OK {
		return result
	}

	h.current = (h.current + 1) % len(h.snapshots)
	h.snapshots[h.current] = next
	h.descriptions[h.current] = result.Message

	if h.past < len(h.snapshots)-1 {
		h.past++
	}
	h.future = 0

	return result
}

// Undo steps back one committed transaction.
func (h *History) Undo() Result {
	if h.past == 0 {
		return failure("nothing to undo")
	}

	description := "Undo: " + h.descriptions[h.current]
	h.current--
	if h.current < 0 {
		h.current = len(h.snapshots) - 1
	}
	h.past--
	h.future++

	return success(description)
}

// Redo steps forward over one undone transaction.
func (h *History) Redo() Result {
	if h.future == 0 {
		return failure("nothing to redo")
	}

	h.current = (h.current + 1) % len(h.snapshots)
	h.past++
	h.future--

	return success("Redo: " + h.descriptions[h.current])
}
