package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/registry"
	"github.com/mvasilevs/zole/go/internal/room"
)

// Intent is the client→server envelope. Every intent is acknowledged.
type Intent struct {
	RequestID string          `json:"requestId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Intent types accepted over the websocket.
const (
	IntentCreateRoom = "createRoom"
	IntentJoinRoom   = "joinRoom"
	IntentSetReady   = "setReady"
	IntentBid        = "bid"
	IntentDiscard    = "discard"
	IntentPlayCard   = "playCard"
	IntentLeaveRoom  = "leaveRoom"
)

// Ack is the server's answer to one intent.
type Ack struct {
	Type      string    `json:"type"`
	RequestID string    `json:"requestId"`
	OK        bool      `json:"ok"`
	RoomID    string    `json:"roomId,omitempty"`
	Seat      *int      `json:"seat,omitempty"`
	Error     *AckError `json:"error,omitempty"`
}

// AckError carries the rejection code and a human-readable reason.
type AckError struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type createRoomPayload struct {
	RoomID string `json:"roomId,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type setReadyPayload struct {
	Ready bool `json:"ready"`
}

type bidPayload struct {
	Value game.BidValue `json:"bid"`
}

type discardPayload struct {
	Cards []game.Card `json:"cards"`
}

type playCardPayload struct {
	Card game.Card `json:"card"`
}

// IntentRouter validates and dispatches client intents against the room
// registry. One router serves every connection.
type IntentRouter struct {
	registry *registry.Registry
	manager  *ConnectionManager
}

// NewIntentRouter creates a router over the registry. The connection
// manager attaches itself during construction.
func NewIntentRouter(reg *registry.Registry) *IntentRouter {
	return &IntentRouter{registry: reg}
}

func (ir *IntentRouter) handleMessage(c *Connection, message []byte) {
	var intent Intent
	if err := json.Unmarshal(message, &intent); err != nil {
		log.Debug().
			Str("connection_id", c.ID).
			Err(err).
			Msg("unparseable client message")
		ir.nack(c, "", room.CodeValidation, "malformed intent envelope")
		return
	}

	switch intent.Type {
	case IntentCreateRoom:
		ir.createRoom(c, intent)
	case IntentJoinRoom:
		ir.joinRoom(c, intent)
	case IntentSetReady:
		ir.setReady(c, intent)
	case IntentBid:
		ir.bid(c, intent)
	case IntentDiscard:
		ir.discard(c, intent)
	case IntentPlayCard:
		ir.playCard(c, intent)
	case IntentLeaveRoom:
		ir.leaveRoom(c, intent)
	default:
		ir.nack(c, intent.RequestID, room.CodeValidation, "unknown intent type "+intent.Type)
	}
}

// handleDisconnect marks the seat disconnected when a bound socket dies.
// The seat survives so the player can rejoin; the turn timer keeps the
// round moving meanwhile.
func (ir *IntentRouter) handleDisconnect(c *Connection) {
	roomID, seat := ir.manager.boundRoom(c)
	if roomID == "" {
		return
	}
	if rm, err := ir.registry.Get(roomID); err == nil {
		rm.MarkDisconnected(seat)
	}
}

func (ir *IntentRouter) createRoom(c *Connection, intent Intent) {
	var p createRoomPayload
	if intent.Payload != nil {
		if err := json.Unmarshal(intent.Payload, &p); err != nil {
			ir.nack(c, intent.RequestID, room.CodeValidation, "malformed createRoom payload")
			return
		}
	}
	rm, err := ir.registry.Create(p.RoomID, p.Seed)
	if err != nil {
		ir.nackErr(c, intent.RequestID, err)
		return
	}

	// The creator takes the first seat of its own room.
	seat, err := rm.Join(c.Username, c.AvatarURL)
	if err != nil {
		ir.nackErr(c, intent.RequestID, err)
		return
	}
	ir.manager.bindRoom(c, rm.ID(), seat)
	ir.sendAck(c, Ack{Type: "ack", RequestID: intent.RequestID, OK: true, RoomID: rm.ID(), Seat: &seat})
	ir.sendPrivate(c, StateMessage{Type: "roomState", RoomID: rm.ID(), State: rm.Snapshot()})
}

func (ir *IntentRouter) joinRoom(c *Connection, intent Intent) {
	var p joinRoomPayload
	if err := json.Unmarshal(intent.Payload, &p); err != nil {
		ir.nack(c, intent.RequestID, room.CodeValidation, "malformed joinRoom payload")
		return
	}
	rm, err := ir.registry.Get(p.RoomID)
	if err != nil {
		ir.nackErr(c, intent.RequestID, err)
		return
	}
	seat, err := rm.Join(c.Username, c.AvatarURL)
	if err != nil {
		ir.nackErr(c, intent.RequestID, err)
		return
	}
	ir.manager.bindRoom(c, rm.ID(), seat)
	ir.sendAck(c, Ack{Type: "ack", RequestID: intent.RequestID, OK: true, RoomID: rm.ID(), Seat: &seat})

	// A rejoining player needs its private view back.
	if hand := rm.HandOf(seat); hand != nil {
		ir.sendPrivate(c, HandMessage{Type: "hand", RoomID: rm.ID(), Seat: seat, Cards: hand})
	}
	ir.sendPrivate(c, StateMessage{Type: "roomState", RoomID: rm.ID(), State: rm.Snapshot()})
}

func (ir *IntentRouter) setReady(c *Connection, intent Intent) {
	var p setReadyPayload
	if err := json.Unmarshal(intent.Payload, &p); err != nil {
		ir.nack(c, intent.RequestID, room.CodeValidation, "malformed setReady payload")
		return
	}
	ir.inRoom(c, intent.RequestID, func(rm *room.Room, seat int) error {
		return rm.SetReady(seat, p.Ready)
	})
}

func (ir *IntentRouter) bid(c *Connection, intent Intent) {
	var p bidPayload
	if err := json.Unmarshal(intent.Payload, &p); err != nil {
		ir.nack(c, intent.RequestID, room.CodeValidation, "malformed bid payload")
		return
	}
	ir.inRoom(c, intent.RequestID, func(rm *room.Room, seat int) error {
		return rm.Bid(seat, p.Value)
	})
}

func (ir *IntentRouter) discard(c *Connection, intent Intent) {
	var p discardPayload
	if err := json.Unmarshal(intent.Payload, &p); err != nil {
		ir.nack(c, intent.RequestID, room.CodeValidation, "malformed discard payload")
		return
	}
	ir.inRoom(c, intent.RequestID, func(rm *room.Room, seat int) error {
		return rm.Discard(seat, p.Cards)
	})
}

func (ir *IntentRouter) playCard(c *Connection, intent Intent) {
	var p playCardPayload
	if err := json.Unmarshal(intent.Payload, &p); err != nil {
		ir.nack(c, intent.RequestID, room.CodeValidation, "malformed playCard payload")
		return
	}
	ir.inRoom(c, intent.RequestID, func(rm *room.Room, seat int) error {
		return rm.Play(seat, p.Card)
	})
}

func (ir *IntentRouter) leaveRoom(c *Connection, intent Intent) {
	roomID, seat := ir.manager.boundRoom(c)
	if roomID == "" {
		ir.nack(c, intent.RequestID, room.CodeValidation, "not in a room")
		return
	}
	rm, err := ir.registry.Get(roomID)
	if err == nil {
		err = rm.Leave(seat)
	}
	ir.manager.unbindRoom(c)
	if err != nil {
		ir.nackErr(c, intent.RequestID, err)
		return
	}
	ir.sendAck(c, Ack{Type: "ack", RequestID: intent.RequestID, OK: true})
}

// inRoom runs op against the connection's bound room and acknowledges the
// outcome.
func (ir *IntentRouter) inRoom(c *Connection, requestID string, op func(rm *room.Room, seat int) error) {
	roomID, seat := ir.manager.boundRoom(c)
	if roomID == "" {
		ir.nack(c, requestID, room.CodeValidation, "not in a room")
		return
	}
	rm, err := ir.registry.Get(roomID)
	if err != nil {
		ir.nackErr(c, requestID, err)
		return
	}
	if err := op(rm, seat); err != nil {
		ir.nackErr(c, requestID, err)
		return
	}
	ir.sendAck(c, Ack{Type: "ack", RequestID: requestID, OK: true, RoomID: roomID, Seat: &seat})
}

func (ir *IntentRouter) nack(c *Connection, requestID string, code room.Code, reason string) {
	ir.sendAck(c, Ack{
		Type:      "ack",
		RequestID: requestID,
		Error:     &AckError{Code: string(code), Reason: reason},
	})
}

func (ir *IntentRouter) nackErr(c *Connection, requestID string, err error) {
	code := room.ErrCode(err)
	if code == "" {
		code = room.CodeValidation
	}
	ir.nack(c, requestID, code, err.Error())
}

func (ir *IntentRouter) sendAck(c *Connection, ack Ack) {
	ir.sendPrivate(c, ack)
}

func (ir *IntentRouter) sendPrivate(c *Connection, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal outbound message")
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping message")
	}
}
