package models

import "time"

// Message is a direct message between two users. Immutable after creation
// except for Seen, which only ever flips false to true.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Text       string    `db:"text" json:"text,omitempty"`
	ImageURL   string    `db:"image_url" json:"image_url,omitempty"`
	Seen       bool      `db:"seen" json:"seen"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EventNewMessage is the event type pushed to a receiver's live connection.
const EventNewMessage = "newMessage"

// MessageEvent is emitted over WebSocket connections.
type MessageEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
