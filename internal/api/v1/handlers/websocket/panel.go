package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/matteolinarello/Web-App-SIGEP/internal/connections"
	"github.com/matteolinarello/Web-App-SIGEP/internal/services/assistant"
)

const (
	FrameSubmit = "submit"
	FrameClose  = "close"

	EventSnapshot = "snapshot"
	EventError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientFrame is a message sent by the panel UI
type ClientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerEvent is a message pushed to the panel UI
type ServerEvent struct {
	Type     string              `json:"type"`
	Snapshot *assistant.Snapshot `json:"snapshot,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type panelConn struct {
	conn     *websocket.Conn
	timeouts connections.TimeoutConfig
	writeMu  sync.Mutex
}

func (p *panelConn) send(event ServerEvent) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.sendLocked(event)
}

func (p *panelConn) sendLocked(event ServerEvent) error {
	_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeouts.WriteWait))
	return p.conn.WriteJSON(event)
}

func snapshotEvent(s assistant.Snapshot) ServerEvent {
	return ServerEvent{Type: EventSnapshot, Snapshot: &s}
}

// HandlePanelWebSocket opens an assistant panel for the lifetime of the
// connection. After each submit the client receives the waiting snapshot
// followed by the snapshot carrying the reply.
func HandlePanelWebSocket(assistantService *assistant.Service, manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Could not upgrade panel connection")
		return
	}

	panel := assistantService.Open()
	manager.AddConnection(conn, panel.ID())

	// turns still in flight are abandoned when the connection goes away
	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		manager.RemoveConnection(conn)
		_ = assistantService.Close(panel.ID())
		conn.Close()
		log.Info().Str("session_id", panel.ID()).Msg("Panel connection closed")
	}()

	log.Info().Str("session_id", panel.ID()).Str("remote", r.RemoteAddr).Msg("Panel connection opened")

	timeouts := manager.GetTimeouts()
	pc := &panelConn{conn: conn, timeouts: timeouts}

	_ = conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	// a live connection keeps its panel out of idle eviction
	conn.SetPongHandler(func(string) error {
		panel.Touch()
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepalive(conn, timeouts, done)

	if err := pc.send(snapshotEvent(panel.Snapshot())); err != nil {
		return
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", panel.ID()).Msg("Unexpected panel closure")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))

		var frame ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			if err := pc.send(ServerEvent{Type: EventError, Error: "invalid_frame"}); err != nil {
				return
			}
			continue
		}

		switch frame.Type {
		case FrameSubmit:
			if err := submit(ctx, pc, panel, frame.Text); err != nil {
				return
			}
		case FrameClose:
			deadline := time.Now().Add(timeouts.WriteWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "panel closed"), deadline)
			return
		default:
			if err := pc.send(ServerEvent{Type: EventError, Error: "unknown_frame_type"}); err != nil {
				return
			}
		}
	}
}

// submit holds the write lock until the waiting snapshot is out so the reply
// snapshot can never overtake it.
func submit(ctx context.Context, pc *panelConn, panel *assistant.Session, text string) error {
	pc.writeMu.Lock()
	defer pc.writeMu.Unlock()

	waiting, err := panel.SubmitAsync(ctx, text, func(assistant.Message) {
		if err := pc.send(snapshotEvent(panel.Snapshot())); err != nil {
			log.Debug().Err(err).Str("session_id", panel.ID()).Msg("Reply snapshot not delivered")
		}
	})
	switch {
	case errors.Is(err, assistant.ErrBlankInput):
		return nil
	case errors.Is(err, assistant.ErrTurnInProgress):
		return pc.sendLocked(ServerEvent{Type: EventError, Error: "turn_in_progress"})
	case err != nil:
		return pc.sendLocked(ServerEvent{Type: EventError, Error: "session_closed"})
	}

	return pc.sendLocked(snapshotEvent(waiting))
}

func keepalive(conn *websocket.Conn, timeouts connections.TimeoutConfig, done <-chan struct{}) {
	ticker := time.NewTicker(timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(timeouts.WriteWait)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
