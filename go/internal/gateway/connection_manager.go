package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager owns every websocket client and the per-room pools
// broadcasts fan out over. A connection starts unbound and enters a room
// pool when its joinRoom intent is accepted.
type ConnectionManager struct {
	mu              sync.RWMutex
	roomConnections map[string]map[*Connection]bool
	connections     map[*Connection]bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
	intents  *IntentRouter

	broadcastCh chan BroadcastMessage
}

// Connection is one websocket client.
type Connection struct {
	ID        string
	Username  string
	AvatarURL string
	Conn      *websocket.Conn
	Send      chan []byte
	Manager   *ConnectionManager

	// Bound room, guarded by the manager mutex.
	roomID string
	seat   int

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds websocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one outbound payload aimed at a room pool, optionally
// narrowed to a single username.
type BroadcastMessage struct {
	RoomID   string
	Username string
	Data     []byte
}

// DefaultConnectionConfig returns the stock websocket settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a manager routing intents through router.
func NewConnectionManager(config ConnectionConfig, intents *IntentRouter) *ConnectionManager {
	cm := &ConnectionManager{
		roomConnections: make(map[string]map[*Connection]bool),
		connections:     make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		intents:     intents,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
	intents.manager = cm
	return cm
}

// Start processes broadcasts until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a websocket client.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, username, avatarURL string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Username:    username,
		AvatarURL:   avatarURL,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		seat:        -1,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("username", username).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true
}

// bindRoom moves the connection into a room pool after an accepted join.
func (cm *ConnectionManager) bindRoom(conn *Connection, roomID string, seat int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.unbindRoomLocked(conn)
	conn.roomID = roomID
	conn.seat = seat
	if cm.roomConnections[roomID] == nil {
		cm.roomConnections[roomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[roomID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room_id", roomID).
		Int("seat", seat).
		Int("room_connections", len(cm.roomConnections[roomID])).
		Msg("connection bound to room")
}

// unbindRoom detaches the connection from its room pool, keeping the socket.
func (cm *ConnectionManager) unbindRoom(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.unbindRoomLocked(conn)
}

func (cm *ConnectionManager) unbindRoomLocked(conn *Connection) {
	if conn.roomID == "" {
		return
	}
	if pool, ok := cm.roomConnections[conn.roomID]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(cm.roomConnections, conn.roomID)
		}
	}
	conn.roomID = ""
	conn.seat = -1
}

// boundRoom returns the connection's room and seat.
func (cm *ConnectionManager) boundRoom(conn *Connection) (string, int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return conn.roomID, conn.seat
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	registered := cm.connections[conn]
	if registered {
		delete(cm.connections, conn)
		cm.unbindRoomLocked(conn)
		close(conn.Send)
	}
	cm.mu.Unlock()

	if registered {
		log.Info().
			Str("connection_id", conn.ID).
			Str("username", conn.Username).
			Msg("connection unregistered")
	}
}

// BroadcastToRoom queues data for every connection in the room pool.
func (cm *ConnectionManager) BroadcastToRoom(roomID string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{RoomID: roomID, Data: data}:
	default:
		log.Warn().Str("room_id", roomID).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastToUser queues data for one username inside the room pool.
func (cm *ConnectionManager) BroadcastToUser(roomID, username string, data []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{RoomID: roomID, Username: username, Data: data}:
	default:
		log.Warn().
			Str("room_id", roomID).
			Str("username", username).
			Msg("broadcast channel full, dropping user message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	pool, exists := cm.roomConnections[message.RoomID]
	if !exists {
		cm.mu.RUnlock()
		return
	}
	var targets []*Connection
	for conn := range pool {
		if message.Username != "" && conn.Username != message.Username {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		select {
		case conn.Send <- message.Data:
		default:
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("username", conn.Username).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}
}

// GetConnectionStats returns counts of active connections per room.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	roomCounts := make(map[string]int)
	for roomID, pool := range cm.roomConnections {
		roomCounts[roomID] = len(pool)
	}
	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"active_rooms":      len(cm.roomConnections),
		"room_connections":  roomCounts,
	}
}

// writePump drains the send channel onto the socket and keeps pings going.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump reads client intents until the socket dies.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.intents.handleDisconnect(c)
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.Manager.intents.handleMessage(c, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
