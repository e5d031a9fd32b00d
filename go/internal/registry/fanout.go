package registry

import (
	"sync"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/room"
)

// Fanout forwards room output to several sinks in order. Sinks can be
// added after construction, which lets the registry be built before the
// transports that listen to it. Calls happen inside the room's serialized
// section, so each sink must hand slow work off to its own goroutine.
type Fanout struct {
	mu    sync.RWMutex
	sinks []room.Emitter
}

// NewFanout creates a fanout over the given sinks.
func NewFanout(sinks ...room.Emitter) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink.
func (f *Fanout) Add(e room.Emitter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, e)
}

func (f *Fanout) RoomChanged(st room.State) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.sinks {
		e.RoomChanged(st)
	}
}

func (f *Fanout) HandDealt(roomID string, seat int, username string, hand []game.Card) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.sinks {
		e.HandDealt(roomID, seat, username, hand)
	}
}

func (f *Fanout) RoundSettled(roomID string, s room.SettlementSummary) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, e := range f.sinks {
		e.RoundSettled(roomID, s)
	}
}
