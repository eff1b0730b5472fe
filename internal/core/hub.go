package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/movewire/movewire-server/internal/archive"
	"github.com/movewire/movewire-server/internal/session"
)

// Hub is the room coordinator. A single Run goroutine owns the room
// table and serializes every mutation, so no per-room locking is
// needed: a read-then-write on a room's state is never torn.
type Hub struct {
	sessions session.Store
	games    archive.Store // optional, nil disables archiving
	log      zerolog.Logger

	rooms map[string]*Room

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub creates a coordinator backed by the given session store.
// The archive store and logger may be nil.
func NewHub(sessions session.Store, games archive.Store, logger *zerolog.Logger) *Hub {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &Hub{
		sessions:   sessions,
		games:      games,
		log:        lg,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
	}
}

// RegisterClient attaches a client to the hub and starts pumping its
// commands into the coordinator loop.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient detaches a client. Rooms the client had joined drop
// its membership; the remaining participant is not notified (transport
// drop is indistinguishable from a silent peer here).
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.handleDisconnect(c)
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// pump forwards one client's commands into the serialized loop. It
// exits when the client's command channel closes or the hub stops.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinRoom:
		h.handleJoin(c, cmd.Room)
	case CommandSendMove:
		h.handleMove(c, cmd)
	case CommandResign:
		h.handleResign(ctx, c, cmd.Room)
	}
}

func (h *Hub) handleJoin(c *Client, name string) {
	room, ok := h.rooms[name]
	if !ok {
		room = NewRoom(name)
		h.rooms[name] = room
	}
	room.AddClient(c)
	c.Rooms[name] = struct{}{}

	// Resync path: a joiner of a room with prior state gets the stored
	// snapshot privately, before any start notification.
	if snapshot, ok := h.sessions.Snapshot(name); ok {
		h.send(c, &Event{Kind: EventLoadGame, Room: name, Snapshot: snapshot})
	}

	size := h.sessions.AddMember(name, c.ID)
	h.log.Debug().Str("client_id", c.ID).Str("name", c.Name).Str("room", name).Int("size", size).Msg("client joined room")

	if room.Advance(size) {
		room.Broadcast(&Event{Kind: EventGameStart, Room: name}, nil)
		h.log.Info().Str("room", name).Msg("game started")
	} else if size > 2 {
		// Extra connections are tolerated but have no defined role.
		h.log.Warn().Str("room", name).Int("size", size).Msg("room is full")
	}
}

func (h *Hub) handleMove(c *Client, cmd *Command) {
	if cmd.Snapshot != "" {
		h.sessions.RecordPosition(cmd.Room, cmd.Snapshot)
	}

	room, ok := h.rooms[cmd.Room]
	if !ok {
		// No members to relay to; moves are fire-and-forget.
		return
	}
	room.Broadcast(&Event{Kind: EventMoveReceived, Room: cmd.Room, Move: cmd.Move}, c)
}

func (h *Hub) handleResign(ctx context.Context, c *Client, name string) {
	snapshot, _ := h.sessions.Snapshot(name)

	if room, ok := h.rooms[name]; ok {
		room.Broadcast(&Event{Kind: EventPlayerResigned, Room: name, Player: "opponent"}, c)
		room.Terminate()
	}

	h.sessions.Remove(name)
	h.log.Info().Str("client_id", c.ID).Str("room", name).Msg("player resigned")

	if h.games != nil {
		record := &archive.Game{
			ID:            uuid.NewString(),
			Room:          name,
			Result:        archive.ResultResignation,
			FinalPosition: snapshot,
			EndedAt:       time.Now().UTC(),
		}
		// The write happens off the coordinator goroutine so a slow
		// database never stalls relay for other rooms.
		go func() {
			if err := h.games.SaveGame(ctx, record); err != nil {
				h.log.Error().Err(err).Str("room", name).Msg("failed to archive game")
			}
		}()
	}
}

// handleDisconnect drops the client from every room it had joined.
// Membership bookkeeping is cleaned up; the remaining participant is
// not notified and stored snapshots stay for resync.
func (h *Hub) handleDisconnect(c *Client) {
	for name := range c.Rooms {
		h.sessions.RemoveMember(name, c.ID)
		room, ok := h.rooms[name]
		if !ok {
			continue
		}
		room.RemoveClient(c)
		if room.Empty() {
			delete(h.rooms, name)
		}
	}
	h.log.Debug().Str("client_id", c.ID).Msg("client disconnected")
}

func (h *Hub) send(c *Client, event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
