package core

// Status is the explicit lifecycle state of a room. A room that does
// not exist in the hub table is implicitly empty.
type Status int

const (
	// StatusWaiting means one seat is filled, waiting for the opponent.
	StatusWaiting Status = iota
	// StatusActive means both seats are filled and moves are relayed.
	StatusActive
	// StatusTerminated means a resignation ended the session.
	StatusTerminated
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Room groups clients attached to the same session.
type Room struct {
	Name    string
	Status  Status
	clients map[*Client]struct{}
}

// NewRoom constructs a waiting room with no clients.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		Status:  StatusWaiting,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Advance applies the join transition given the authoritative post-join
// membership size. Returns true exactly when the game starts: the first
// time size reaches two while the room is still waiting. Later joins
// (spectators) never re-fire the start.
func (r *Room) Advance(size int) bool {
	if r.Status == StatusWaiting && size == 2 {
		r.Status = StatusActive
		return true
	}
	return false
}

// Terminate marks the session as ended by resignation.
func (r *Room) Terminate() {
	r.Status = StatusTerminated
}

// Broadcast sends an event to all clients in the room except the given
// one. Pass nil to reach every member. Delivery is fire-and-forget:
// slow consumers are dropped, never waited on.
func (r *Room) Broadcast(event *Event, except *Client) {
	for client := range r.clients {
		if client == except {
			continue
		}
		select {
		case client.Events <- event:
		default:
			// Drop if slow consumer.
		}
	}
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}

// Size returns the number of attached clients.
func (r *Room) Size() int {
	return len(r.clients)
}
