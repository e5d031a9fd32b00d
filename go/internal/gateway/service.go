package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/leaderboard"
	"github.com/mvasilevs/zole/go/internal/registry"
)

// Standings is what the leaderboard endpoint needs from persistence.
type Standings interface {
	TopN(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Service is the client-facing edge: the websocket endpoint plus the
// read-only HTTP API.
type Service struct {
	manager   *ConnectionManager
	intents   *IntentRouter
	registry  *registry.Registry
	standings Standings
}

// NewService wires the websocket transport over the registry. standings may
// be nil when the process runs without Postgres.
func NewService(config ConnectionConfig, reg *registry.Registry, standings Standings) *Service {
	intents := NewIntentRouter(reg)
	manager := NewConnectionManager(config, intents)
	return &Service{
		manager:   manager,
		intents:   intents,
		registry:  reg,
		standings: standings,
	}
}

// Manager exposes the connection manager for emitter wiring.
func (s *Service) Manager() *ConnectionManager { return s.manager }

// Start runs the broadcast loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.manager.Start(ctx)
}

// RegisterRoutes registers the websocket and HTTP endpoints.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/rooms", s.handleRooms)
	mux.HandleFunc("/api/leaderboard", s.handleLeaderboard)
	log.Info().Msg("gateway routes registered")
}

func (s *Service) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "username query parameter is required", http.StatusBadRequest)
		return
	}
	avatarURL := r.URL.Query().Get("avatarUrl")

	if err := s.manager.UpgradeConnection(w, r, username, avatarURL); err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Error().Err(err).Str("username", username).Msg("websocket upgrade failed")
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

func (s *Service) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"rooms": s.registry.List()})
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.standings == nil {
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := s.standings.TopN(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, map[string]any{"entries": entries})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
