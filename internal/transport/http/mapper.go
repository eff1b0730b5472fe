package http

import (
	"encoding/json"

	"github.com/movewire/movewire-server/internal/core"
	"github.com/movewire/movewire-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoinRoom:
		var join proto.JoinRoomData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandJoinRoom,
			Room: join.Room,
		}, nil, nil
	case proto.InboundTypeSendMove:
		var move proto.SendMoveData
		if err := json.Unmarshal(inbound.Data, &move); err != nil {
			return nil, nil, err
		}
		if move.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		// The move itself is relayed as-is, never parsed.
		return &core.Command{
			Kind:     core.CommandSendMove,
			Room:     move.Room,
			Move:     move.Move,
			Snapshot: move.FEN,
		}, nil, nil
	case proto.InboundTypeResign:
		var resign proto.ResignData
		if err := json.Unmarshal(inbound.Data, &resign); err != nil {
			return nil, nil, err
		}
		if resign.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandResign,
			Room: resign.Room,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoadGame:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "load_game",
			Data: proto.EventLoadGame{
				Room: event.Room,
				FEN:  event.Snapshot,
			},
		}
	case core.EventGameStart:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "game_start",
			Data: proto.EventGameStart{
				Room: event.Room,
			},
		}
	case core.EventMoveReceived:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "receive_move",
			Data: proto.EventReceiveMove{
				Room: event.Room,
				Move: event.Move,
			},
		}
	case core.EventPlayerResigned:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "player_resigned",
			Data: proto.EventPlayerResigned{
				Room:   event.Room,
				Player: event.Player,
			},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
