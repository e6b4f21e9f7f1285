package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

type session struct {
	conn Conn
	info ConnInfo
	mu   sync.Mutex // serializes writes to conn
}

// Hub maps user ids to their live connection. At most one connection per
// user; a new register for the same user replaces the old handle.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int]*session
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{sessions: make(map[int]*session)}
}

// Register records the user's live connection, closing any replaced handle.
func (h *Hub) Register(userID int, conn Conn, info ConnInfo) {
	h.mu.Lock()
	old := h.sessions[userID]
	h.sessions[userID] = &session{conn: conn, info: info}
	h.mu.Unlock()

	if old != nil {
		old.conn.Close()
	}
}

// Unregister removes the user's entry if it still refers to conn. A stale
// disconnect racing a fresh register must not evict the newer connection.
func (h *Hub) Unregister(userID int, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[userID]; ok && s.conn == conn {
		delete(h.sessions, userID)
	}
}

// Lookup returns the user's live connection, if any.
func (h *Hub) Lookup(userID int) (Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.conn, true
}

// PushNewMessage delivers msg to the user's live connection if one is
// registered. Best effort: a write failure closes the handle and is swallowed.
// Reports whether the push was written.
func (h *Hub) PushNewMessage(userID int, msg models.Message) bool {
	h.mu.RLock()
	s := h.sessions[userID]
	h.mu.RUnlock()
	if s == nil {
		return false
	}

	event := models.MessageEvent{Type: models.EventNewMessage, Message: &msg}
	payload, _ := json.Marshal(event)

	s.mu.Lock()
	err := s.conn.WriteMessage(websocket.TextMessage, payload)
	s.mu.Unlock()
	if err != nil {
		log.Printf("websocket push error: %v", err)
		s.conn.Close()
		h.Unregister(userID, s.conn)
		observability.IncPushFailure()
		h.publishPushError(s.info, err)
		return false
	}
	return true
}

func (h *Hub) publishPushError(info ConnInfo, err error) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.messages", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}
