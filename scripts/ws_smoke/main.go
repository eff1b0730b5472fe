// Command ws_smoke exercises a running server end to end: two
// connections join the same room, one relays a move, and the received
// events are printed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/movewire/movewire-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	room := flag.String("room", "smoke-room", "room id to join")
	move := flag.String("move", `{"from":"e2","to":"e4","promotion":"q"}`, "move payload to relay")
	fen := flag.String("fen", "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", "snapshot to store with the move")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	white, err := dialAndJoin(ctx, *addr, *room)
	if err != nil {
		return fmt.Errorf("white: %w", err)
	}
	defer white.Close(websocket.StatusNormalClosure, "bye")

	black, err := dialAndJoin(ctx, *addr, *room)
	if err != nil {
		return fmt.Errorf("black: %w", err)
	}
	defer black.Close(websocket.StatusNormalClosure, "bye")

	if err := expectEvent(ctx, white, "game_start"); err != nil {
		return err
	}
	if err := expectEvent(ctx, black, "game_start"); err != nil {
		return err
	}
	log.Printf("game started in %s", *room)

	movePayload, err := json.Marshal(proto.SendMoveData{
		Room: *room,
		Move: json.RawMessage(*move),
		FEN:  *fen,
	})
	if err != nil {
		return fmt.Errorf("marshal move: %w", err)
	}
	if err := wsjson.Write(ctx, white, proto.Inbound{Type: proto.InboundTypeSendMove, Data: movePayload}); err != nil {
		return fmt.Errorf("send move: %w", err)
	}

	if err := expectEvent(ctx, black, "receive_move"); err != nil {
		return err
	}
	log.Printf("move relayed: %s", *move)

	return nil
}

func dialAndJoin(ctx context.Context, addr, room string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	joinPayload, err := json.Marshal(proto.JoinRoomData{Room: room})
	if err != nil {
		conn.Close(websocket.StatusInternalError, "marshal failed")
		return nil, fmt.Errorf("marshal join: %w", err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoinRoom, Data: joinPayload}); err != nil {
		conn.Close(websocket.StatusInternalError, "join failed")
		return nil, fmt.Errorf("send join: %w", err)
	}
	return conn, nil
}

func expectEvent(ctx context.Context, conn *websocket.Conn, want string) error {
	var outbound proto.Outbound
	if err := wsjson.Read(ctx, conn, &outbound); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	if outbound.Type != proto.OutboundTypeEvent || outbound.Event != want {
		return fmt.Errorf("expected %s, got type=%s event=%s", want, outbound.Type, outbound.Event)
	}
	return nil
}
