package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matteolinarello/Web-App-SIGEP/pkg/logger"
)

// TimeoutConfig holds the keepalive settings for panel connections
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts pings a little before the pong deadline
var DefaultTimeouts = TimeoutConfig{
	PongWait:   60 * time.Second,
	PingPeriod: 54 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Manager tracks open WebSocket panels and the assistant session each one
// drives.
type Manager struct {
	connections sync.Map // *websocket.Conn -> session ID
	timeouts    TimeoutConfig
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		timeouts: timeouts,
	}
}

// AddConnection registers conn as the panel for sessionID
func (m *Manager) AddConnection(conn *websocket.Conn, sessionID string) {
	m.connections.Store(conn, sessionID)
}

func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.connections.Delete(conn)
}

// SessionID returns the session driven by conn
func (m *Manager) SessionID(conn *websocket.Conn) (string, bool) {
	v, ok := m.connections.Load(conn)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (m *Manager) GetConnectionCount() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

func (m *Manager) HasConnection(conn *websocket.Conn) bool {
	_, exists := m.connections.Load(conn)
	return exists
}

// CloseAll sends a going-away close frame to every panel and forgets it.
// Used on shutdown; read loops notice the closed socket and clean up.
func (m *Manager) CloseAll() int {
	closed := 0
	m.connections.Range(func(key, value interface{}) bool {
		conn := key.(*websocket.Conn)
		deadline := time.Now().Add(m.timeouts.WriteWait)
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			logger.Debug(logger.WEBSOCKET, "Close frame to session %v failed: %v", value, err)
		}
		_ = conn.Close()
		m.connections.Delete(key)
		closed++
		return true
	})
	return closed
}

func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}
