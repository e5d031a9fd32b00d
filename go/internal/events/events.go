package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mvasilevs/zole/go/internal/game"
)

// Event types published on the room stream.
const (
	TypeRoomChanged  = "room.changed"
	TypeHandDealt    = "hand.dealt"
	TypeRoundSettled = "round.settled"
)

// RoomEvent is the envelope every published event shares.
type RoomEvent struct {
	ID        uuid.UUID       `json:"eventId"`
	Type      string          `json:"eventType"`
	RoomID    string          `json:"roomId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// HandDealtPayload carries one seat's private deal. It is published so a
// consumer can rebuild a player's view; the gateway never broadcasts it.
type HandDealtPayload struct {
	Seat     int         `json:"seat"`
	Username string      `json:"username"`
	Hand     []game.Card `json:"hand"`
}
