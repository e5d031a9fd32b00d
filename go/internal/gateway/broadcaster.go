package gateway

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/room"
)

// StateMessage carries a public room snapshot to clients.
type StateMessage struct {
	Type   string     `json:"type"`
	RoomID string     `json:"roomId"`
	State  room.State `json:"state"`
}

// HandMessage carries one seat's private cards. It is only ever sent to
// that seat's connection.
type HandMessage struct {
	Type   string      `json:"type"`
	RoomID string      `json:"roomId"`
	Seat   int         `json:"seat"`
	Cards  []game.Card `json:"cards"`
}

// SettledMessage carries a finished round's settlement to the whole room.
type SettledMessage struct {
	Type       string                 `json:"type"`
	RoomID     string                 `json:"roomId"`
	Settlement room.SettlementSummary `json:"settlement"`
}

// Broadcaster fans room output out to websocket clients. Its methods run
// inside the room's serialized section and only enqueue onto the
// manager's broadcast channel.
type Broadcaster struct {
	manager *ConnectionManager
}

// NewBroadcaster wraps the connection manager as a room emitter.
func NewBroadcaster(manager *ConnectionManager) *Broadcaster {
	return &Broadcaster{manager: manager}
}

func (b *Broadcaster) RoomChanged(st room.State) {
	b.broadcast(st.RoomID, StateMessage{Type: "roomState", RoomID: st.RoomID, State: st})
}

func (b *Broadcaster) HandDealt(roomID string, seat int, username string, hand []game.Card) {
	data, err := json.Marshal(HandMessage{Type: "hand", RoomID: roomID, Seat: seat, Cards: hand})
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal hand message")
		return
	}
	b.manager.BroadcastToUser(roomID, username, data)
}

func (b *Broadcaster) RoundSettled(roomID string, s room.SettlementSummary) {
	b.broadcast(roomID, SettledMessage{Type: "roundSettled", RoomID: roomID, Settlement: s})
}

func (b *Broadcaster) broadcast(roomID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal broadcast message")
		return
	}
	b.manager.BroadcastToRoom(roomID, data)
}
