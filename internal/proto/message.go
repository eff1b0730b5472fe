package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom = "join_room"
	InboundTypeSendMove = "send_move"
	InboundTypeResign   = "resign"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// JoinRoomData requests membership in a room.
type JoinRoomData struct {
	Room string `json:"room"`
}

// SendMoveData carries an opaque move to relay. Move is never parsed
// beyond the envelope; FEN, when present, updates the stored snapshot.
type SendMoveData struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
	FEN  string          `json:"fen,omitempty"`
}

// ResignData ends the session from the sender's side.
type ResignData struct {
	Room string `json:"room"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventLoadGame delivers the stored snapshot to a joining connection.
type EventLoadGame struct {
	Room string `json:"room"`
	FEN  string `json:"fen"`
}

// EventGameStart notifies room members that both seats are filled.
type EventGameStart struct {
	Room string `json:"room"`
}

// EventReceiveMove relays an opponent's move unmodified.
type EventReceiveMove struct {
	Room string          `json:"room"`
	Move json.RawMessage `json:"move"`
}

// EventPlayerResigned notifies the remaining member of a resignation.
type EventPlayerResigned struct {
	Room   string `json:"room"`
	Player string `json:"player"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
