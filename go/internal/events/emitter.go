package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/room"
)

// Publisher is the sink the emitter drains into.
type Publisher interface {
	Publish(ctx context.Context, event RoomEvent) error
}

// Emitter adapts room output into published events. Room callbacks run
// inside the room's serialized section, so they only enqueue; a worker
// goroutine does the actual publishing.
type Emitter struct {
	publisher Publisher
	queue     chan RoomEvent
	done      chan struct{}
}

// NewEmitter creates an emitter draining into publisher. Call Start before
// wiring it to a room.
func NewEmitter(publisher Publisher) *Emitter {
	return &Emitter{
		publisher: publisher,
		queue:     make(chan RoomEvent, 1024),
		done:      make(chan struct{}),
	}
}

// Start drains the queue until ctx is cancelled.
func (e *Emitter) Start(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-e.queue:
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := e.publisher.Publish(pubCtx, ev); err != nil {
				log.Error().Err(err).Str("event_type", ev.Type).Str("room_id", ev.RoomID).
					Msg("failed to publish room event")
			}
			cancel()
		}
	}
}

// Done is closed once Start has returned.
func (e *Emitter) Done() <-chan struct{} { return e.done }

func (e *Emitter) enqueue(roomID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	ev := RoomEvent{
		ID:        uuid.New(),
		Type:      eventType,
		RoomID:    roomID,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}
	select {
	case e.queue <- ev:
	default:
		log.Warn().Str("event_type", eventType).Str("room_id", roomID).
			Msg("event queue full, dropping event")
	}
}

func (e *Emitter) RoomChanged(st room.State) {
	e.enqueue(st.RoomID, TypeRoomChanged, st)
}

func (e *Emitter) HandDealt(roomID string, seat int, username string, hand []game.Card) {
	e.enqueue(roomID, TypeHandDealt, HandDealtPayload{Seat: seat, Username: username, Hand: hand})
}

func (e *Emitter) RoundSettled(roomID string, s room.SettlementSummary) {
	e.enqueue(roomID, TypeRoundSettled, s)
}
