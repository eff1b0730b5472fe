package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventGameStart notifies room members that both seats are filled.
	EventGameStart EventKind = iota
	// EventLoadGame delivers the stored snapshot to a joining client.
	EventLoadGame
	// EventMoveReceived relays an opponent's move.
	EventMoveReceived
	// EventPlayerResigned notifies the remaining member of a resignation.
	EventPlayerResigned
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind
	Room string

	// Move is set for EventMoveReceived, relayed unmodified.
	Move json.RawMessage

	// Snapshot is set for EventLoadGame.
	Snapshot string

	// Player is set for EventPlayerResigned. The label is best-effort
	// from the recipient's perspective.
	Player string
}
