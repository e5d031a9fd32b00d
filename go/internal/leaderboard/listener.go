package leaderboard

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/room"
)

// Store is what the listener needs from persistence.
type Store interface {
	ApplyRoundResult(ctx context.Context, roomID string, s room.SettlementSummary) error
}

type settledRound struct {
	roomID  string
	summary room.SettlementSummary
}

// Listener folds settled rounds into the store. Room callbacks run inside
// the room's serialized section, so they only enqueue; a worker goroutine
// does the database writes.
type Listener struct {
	store Store
	queue chan settledRound
	done  chan struct{}
}

// NewListener creates a listener draining into store.
func NewListener(store Store) *Listener {
	return &Listener{
		store: store,
		queue: make(chan settledRound, 256),
		done:  make(chan struct{}),
	}
}

// Start drains the queue until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case sr := <-l.queue:
			applyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := l.store.ApplyRoundResult(applyCtx, sr.roomID, sr.summary); err != nil {
				log.Error().Err(err).Str("room_id", sr.roomID).Msg("failed to persist round result")
			}
			cancel()
		}
	}
}

// Done is closed once Start has returned.
func (l *Listener) Done() <-chan struct{} { return l.done }

func (l *Listener) RoomChanged(room.State) {}

func (l *Listener) HandDealt(string, int, string, []game.Card) {}

func (l *Listener) RoundSettled(roomID string, s room.SettlementSummary) {
	select {
	case l.queue <- settledRound{roomID: roomID, summary: s}:
	default:
		log.Warn().Str("room_id", roomID).Msg("leaderboard queue full, dropping round result")
	}
}
