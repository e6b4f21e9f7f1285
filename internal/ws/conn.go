package ws

import "time"

// Conn is the subset of *websocket.Conn the hub needs. The hub records
// handles only; it never owns the connection lifecycle.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type ConnInfo struct {
	ConnID      string
	UserID      int
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
