package core

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/movewire/movewire-server/internal/archive"
	"github.com/movewire/movewire-server/internal/session"
)

type archiveRecorder struct {
	mu    sync.Mutex
	games []*archive.Game
}

func (a *archiveRecorder) SaveGame(_ context.Context, game *archive.Game) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.games = append(a.games, game)
	return nil
}

func (a *archiveRecorder) ListGames(context.Context, string) ([]*archive.Game, error) {
	return nil, nil
}

func (a *archiveRecorder) Close() error { return nil }

func (a *archiveRecorder) saved() []*archive.Game {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*archive.Game(nil), a.games...)
}

func startHub(t *testing.T, sessions session.Store, games archive.Store) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(sessions, games, nil)
	go hub.Run(ctx)
	return hub
}

func TestHubGameStartFiresOnceAtTwo(t *testing.T) {
	hub := startHub(t, nil, nil)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustNoEvent(t, alice.Events)

	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)

	// A third connection is tolerated but never re-fires the start.
	carol := NewClient("c", "carol")
	hub.RegisterClient(carol)
	carol.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustNoEvent(t, carol.Events)
	mustNoEvent(t, alice.Events)
	mustNoEvent(t, bob.Events)
}

func TestHubMoveRelayExcludesSender(t *testing.T) {
	sessions := session.NewMemoryStore()
	hub := startHub(t, sessions, nil)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)

	move := json.RawMessage(`{"from":"e2","to":"e4"}`)
	alice.Commands <- &Command{
		Kind:     CommandSendMove,
		Room:     "room-1",
		Move:     move,
		Snapshot: "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	}

	ev := mustEvent(t, bob.Events, EventMoveReceived)
	if string(ev.Move) != string(move) {
		t.Fatalf("relayed move must be unmodified, got %s", ev.Move)
	}
	mustNoEvent(t, alice.Events)

	snap, ok := sessions.Snapshot("room-1")
	if !ok || snap != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Fatalf("expected stored snapshot, got %q ok=%v", snap, ok)
	}
}

func TestHubMoveWithoutSnapshotKeepsStoredPosition(t *testing.T) {
	sessions := session.NewMemoryStore()
	hub := startHub(t, sessions, nil)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, bob.Events, EventGameStart)

	alice.Commands <- &Command{Kind: CommandSendMove, Room: "room-1", Move: json.RawMessage(`"e4"`), Snapshot: "pos-1"}
	mustEvent(t, bob.Events, EventMoveReceived)

	bob.Commands <- &Command{Kind: CommandSendMove, Room: "room-1", Move: json.RawMessage(`"e5"`)}
	mustEvent(t, alice.Events, EventGameStart) // from the initial join
	mustEvent(t, alice.Events, EventMoveReceived)

	if snap, _ := sessions.Snapshot("room-1"); snap != "pos-1" {
		t.Fatalf("snapshot must be unchanged by snapshotless move, got %q", snap)
	}
}

func TestHubResyncSnapshotOnJoin(t *testing.T) {
	sessions := session.NewMemoryStore()
	hub := startHub(t, sessions, nil)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	alice.Commands <- &Command{Kind: CommandSendMove, Room: "room-1", Move: json.RawMessage(`"e4"`), Snapshot: "pos-1"}
	waitForSnapshot(t, sessions, "room-1", "pos-1")

	bob := NewClient("b", "bob")
	hub.RegisterClient(bob)
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}

	// The joiner privately receives the stored snapshot, then the start.
	load := mustEvent(t, bob.Events, EventLoadGame)
	if load.Snapshot != "pos-1" {
		t.Fatalf("unexpected snapshot: %q", load.Snapshot)
	}
	mustEvent(t, bob.Events, EventGameStart)

	// The member already present never sees load_game.
	mustEvent(t, alice.Events, EventGameStart)
	mustNoEvent(t, alice.Events)
}

func TestHubResignNotifiesOtherAndClearsState(t *testing.T) {
	sessions := session.NewMemoryStore()
	games := &archiveRecorder{}
	hub := startHub(t, sessions, games)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)

	alice.Commands <- &Command{Kind: CommandSendMove, Room: "room-1", Move: json.RawMessage(`"e4"`), Snapshot: "pos-1"}
	mustEvent(t, bob.Events, EventMoveReceived)

	bob.Commands <- &Command{Kind: CommandResign, Room: "room-1"}

	resigned := mustEvent(t, alice.Events, EventPlayerResigned)
	if resigned.Player != "opponent" {
		t.Fatalf("unexpected resignation label: %q", resigned.Player)
	}
	mustNoEvent(t, bob.Events)

	if _, ok := sessions.Snapshot("room-1"); ok {
		t.Fatal("stored snapshot must be cleared on resign")
	}
	if size := sessions.MembershipSize("room-1"); size != 0 {
		t.Fatalf("session record must be removed, got size %d", size)
	}

	saved := waitForArchived(t, games, 1)
	if saved[0].Room != "room-1" || saved[0].Result != archive.ResultResignation || saved[0].FinalPosition != "pos-1" {
		t.Fatalf("unexpected archive record: %+v", saved[0])
	}
}

func TestHubDoubleResignIsNoOp(t *testing.T) {
	sessions := session.NewMemoryStore()
	hub := startHub(t, sessions, nil)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)

	alice.Commands <- &Command{Kind: CommandResign, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandResign, Room: "room-1"}

	// Each side sees the other's resignation; the second removal of the
	// session record is a silent no-op.
	mustEvent(t, bob.Events, EventPlayerResigned)
	mustEvent(t, alice.Events, EventPlayerResigned)

	if size := sessions.MembershipSize("room-1"); size != 0 {
		t.Fatalf("expected removed session record, got size %d", size)
	}
}

type slowArchive struct {
	archiveRecorder
	delay time.Duration
}

func (a *slowArchive) SaveGame(ctx context.Context, game *archive.Game) error {
	time.Sleep(a.delay)
	return a.archiveRecorder.SaveGame(ctx, game)
}

func TestHubSlowArchiveDoesNotStallRelay(t *testing.T) {
	games := &slowArchive{delay: time.Second}
	hub := startHub(t, nil, games)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	carol := NewClient("c", "carol")
	dave := NewClient("d", "dave")
	for _, c := range []*Client{alice, bob, carol, dave} {
		hub.RegisterClient(c)
	}

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	carol.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-2"}
	dave.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-2"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)
	mustEvent(t, carol.Events, EventGameStart)
	mustEvent(t, dave.Events, EventGameStart)

	alice.Commands <- &Command{Kind: CommandResign, Room: "room-1"}
	mustEvent(t, bob.Events, EventPlayerResigned)

	// A move in an unrelated room must be relayed while the archive
	// write is still in flight.
	start := time.Now()
	carol.Commands <- &Command{Kind: CommandSendMove, Room: "room-2", Move: json.RawMessage(`"d4"`)}
	mustEvent(t, dave.Events, EventMoveReceived)
	if elapsed := time.Since(start); elapsed >= games.delay {
		t.Fatalf("move relay stalled %v behind archive write", elapsed)
	}

	waitForArchived(t, &games.archiveRecorder, 1)
}

func TestHubMoveToUnknownRoomIsNoOp(t *testing.T) {
	hub := startHub(t, nil, nil)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandSendMove, Room: "ghost", Move: json.RawMessage(`"e4"`)}
	mustNoEvent(t, alice.Events)
}

func TestHubDisconnectKeepsSnapshotForResync(t *testing.T) {
	sessions := session.NewMemoryStore()
	hub := startHub(t, sessions, nil)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}
	mustEvent(t, alice.Events, EventGameStart)
	mustEvent(t, bob.Events, EventGameStart)

	alice.Commands <- &Command{Kind: CommandSendMove, Room: "room-1", Move: json.RawMessage(`"e4"`), Snapshot: "pos-1"}
	mustEvent(t, bob.Events, EventMoveReceived)

	hub.UnregisterClient(alice)

	// The remaining member is not notified; membership drops but the
	// snapshot survives for the reconnect.
	mustNoEvent(t, bob.Events)
	waitForSize(t, sessions, "room-1", 1)

	rejoined := NewClient("a2", "alice")
	hub.RegisterClient(rejoined)
	rejoined.Commands <- &Command{Kind: CommandJoinRoom, Room: "room-1"}

	load := mustEvent(t, rejoined.Events, EventLoadGame)
	if load.Snapshot != "pos-1" {
		t.Fatalf("expected stored snapshot on resync, got %q", load.Snapshot)
	}
}

func waitForArchived(t *testing.T, games *archiveRecorder, want int) []*archive.Game {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if saved := games.saved(); len(saved) == want {
			return saved
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d archived games, got %d", want, len(games.saved()))
	return nil
}

func waitForSnapshot(t *testing.T, sessions session.Store, room, want string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := sessions.Snapshot(room); ok && snap == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("snapshot for %s never recorded", room)
}

func waitForSize(t *testing.T, sessions session.Store, room string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sessions.MembershipSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("membership of %s never reached %d", room, want)
}
