package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mvasilevs/zole/go/internal/events"
	"github.com/mvasilevs/zole/go/internal/gateway"
	"github.com/mvasilevs/zole/go/internal/leaderboard"
	"github.com/mvasilevs/zole/go/internal/registry"
)

type Services struct {
	Registry     *registry.Registry
	Gateway      *gateway.Service
	EventEmitter *events.Emitter
	Leaderboard  *leaderboard.Listener
}

// setupServices wires the dependency chain: registry → gateway transport,
// with optional NATS and Postgres sinks fanned out behind the rooms.
// pool and publisher may be nil when their backends are disabled.
func setupServices(cfg *Config, pool *pgxpool.Pool, publisher *events.JetStreamPublisher) *Services {
	fanout := registry.NewFanout()
	reg := registry.New(clockwork.NewRealClock(), cfg.RoomConfig(), fanout)

	var standings gateway.Standings
	var lbListener *leaderboard.Listener
	if pool != nil {
		repo := leaderboard.NewRepository(pool)
		standings = repo
		lbListener = leaderboard.NewListener(repo)
		fanout.Add(lbListener)
	}

	var eventEmitter *events.Emitter
	if publisher != nil {
		eventEmitter = events.NewEmitter(publisher)
		fanout.Add(eventEmitter)
	}

	gw := gateway.NewService(gateway.DefaultConnectionConfig(), reg, standings)
	fanout.Add(gateway.NewBroadcaster(gw.Manager()))

	return &Services{
		Registry:     reg,
		Gateway:      gw,
		EventEmitter: eventEmitter,
		Leaderboard:  lbListener,
	}
}
