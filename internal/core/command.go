package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom requests membership in a room.
	CommandJoinRoom CommandKind = iota
	// CommandSendMove relays an opaque move to the other room members.
	CommandSendMove
	// CommandResign ends the session from the sender's side.
	CommandResign
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	Room string

	// Move is the opaque payload to relay; never inspected.
	Move json.RawMessage

	// Snapshot is the optional position snapshot accompanying a move.
	// Empty means the move carried none.
	Snapshot string
}
