package game

// Event is something every connected client of a game should hear about.
// The concrete types below form a closed set; Description is the
// human-readable rendering used for logging and plain-text clients.
type Event interface {
	Description() string
}

// NotificationEvent is raw informational text.
type NotificationEvent struct {
	Text string
}

func (e NotificationEvent) Description() string {
	return "Notification: " + e.Text
}

// MessageEvent is a chat line from a named sender.
type MessageEvent struct {
	Sender string
	Text   string
}

func (e MessageEvent) Description() string {
	return "Message: " + e.Sender + ": " + e.Text
}

// GameEvent announces a committed transaction together with its outcome
// description.
type GameEvent struct {
	Tx      Transaction
	Outcome string
}

func (e GameEvent) Description() string {
	return e.Outcome
}

// AddPlayerEvent announces a player joining the roster.
type AddPlayerEvent struct {
	Name     string
	PlayerID int
}

func (e AddPlayerEvent) Description() string {
	return "Add player: " + e.Name
}

// UndoEvent announces a successful undo, Outcome being the undo description.
type UndoEvent struct {
	Outcome string
}

func (e UndoEvent) Description() string {
	return e.Outcome
}

// RedoEvent announces a successful redo.
type RedoEvent struct {
	Outcome string
}

func (e RedoEvent) Description() string {
	return e.Outcome
}
