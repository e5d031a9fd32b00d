package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
	"github.com/mvasilevs/zole/go/internal/room"
)

// Registry owns every live room in the process. Rooms are created and
// removed here; gameplay goes directly to the room.
type Registry struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	cfg     room.Config
	emitter room.Emitter
	rooms   map[string]*room.Room
	closed  bool
}

// New creates an empty registry. Every room it creates shares the clock,
// config, and emitter.
func New(clock clockwork.Clock, cfg room.Config, emitter room.Emitter) *Registry {
	if emitter == nil {
		emitter = room.NopEmitter{}
	}
	return &Registry{
		clock:   clock,
		cfg:     cfg,
		emitter: emitter,
		rooms:   make(map[string]*room.Room),
	}
}

// Create makes a new room. An empty id gets a generated UUID; a taken id is
// rejected with ROOM_EXISTS. A nil seed falls back to a secure random one.
func (g *Registry) Create(id string, seed *int64) (*room.Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, &room.Error{Code: room.CodeRoomNotFound, Reason: "registry shut down"}
	}
	if id == "" {
		id = uuid.New().String()
	}
	if _, ok := g.rooms[id]; ok {
		return nil, &room.Error{Code: room.CodeRoomExists, Reason: fmt.Sprintf("room %s already exists", id)}
	}

	dealSeed := game.RandomSeed()
	if seed != nil {
		dealSeed = *seed
	}
	rm := room.New(id, dealSeed, g.clock, g.cfg, g.emitter)
	g.rooms[id] = rm
	log.Info().Str("room_id", id).Int("total_rooms", len(g.rooms)).Msg("room created")

	// Lobby listeners learn about the new room the same way they learn
	// about occupancy changes.
	g.emitter.RoomChanged(rm.Snapshot())
	return rm, nil
}

// Get looks up a live room.
func (g *Registry) Get(id string) (*room.Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rm, ok := g.rooms[id]
	if !ok {
		return nil, &room.Error{Code: room.CodeRoomNotFound, Reason: fmt.Sprintf("room %s not found", id)}
	}
	return rm, nil
}

// Remove closes the room and drops it from the registry.
func (g *Registry) Remove(id string) error {
	g.mu.Lock()
	rm, ok := g.rooms[id]
	if ok {
		delete(g.rooms, id)
	}
	g.mu.Unlock()

	if !ok {
		return &room.Error{Code: room.CodeRoomNotFound, Reason: fmt.Sprintf("room %s not found", id)}
	}
	rm.Close()
	log.Info().Str("room_id", id).Msg("room removed")
	return nil
}

// List snapshots every live room, ordered by creation time.
func (g *Registry) List() []room.State {
	g.mu.RLock()
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, rm := range g.rooms {
		rooms = append(rooms, rm)
	}
	g.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt().Before(rooms[j].CreatedAt())
	})
	states := make([]room.State, len(rooms))
	for i, rm := range rooms {
		states[i] = rm.Snapshot()
	}
	return states
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Shutdown closes every room and refuses further creates.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	rooms := make([]*room.Room, 0, len(g.rooms))
	for _, rm := range g.rooms {
		rooms = append(rooms, rm)
	}
	g.rooms = make(map[string]*room.Room)
	g.mu.Unlock()

	for _, rm := range rooms {
		rm.Close()
	}
	log.Info().Int("rooms_closed", len(rooms)).Msg("registry shut down")
}
