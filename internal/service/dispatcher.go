package service

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/trace"

	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	"messaging-service/internal/repositories"
)

// Uploader is the asset collaborator contract.
type Uploader interface {
	Upload(ctx context.Context, data string) (string, error)
}

// Pusher delivers a stored message to a live connection, best effort.
type Pusher interface {
	PushNewMessage(userID int, msg models.Message) bool
}

// Dispatcher persists outgoing messages and pushes them to the receiver's
// live connection when one is registered. Persistence is the durability
// boundary; push and event publishing never affect the result.
type Dispatcher struct {
	messages repositories.MessageRepository
	uploader Uploader
	presence Pusher
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(messages repositories.MessageRepository, uploader Uploader, presence Pusher) *Dispatcher {
	return &Dispatcher{messages: messages, uploader: uploader, presence: presence}
}

// Send uploads the image payload if present, stores the message, then pushes
// it to the receiver. An upload failure aborts the send with nothing stored.
func (d *Dispatcher) Send(ctx context.Context, senderID, receiverID int, text, imageData string) (models.Message, error) {
	var imageURL string
	if imageData != "" {
		url, err := d.uploader.Upload(ctx, imageData)
		if err != nil {
			return models.Message{}, fmt.Errorf("upload image: %w", err)
		}
		imageURL = url
	}

	msg, err := d.messages.Insert(ctx, senderID, receiverID, text, imageURL)
	if err != nil {
		return models.Message{}, fmt.Errorf("store message: %w", err)
	}

	if !d.presence.PushNewMessage(receiverID, msg) {
		log.Printf("message %d not pushed: receiver %d has no live connection", msg.ID, receiverID)
	}

	traceID := ""
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	_ = observability.PublishEvent(ctx, "messages.sent", observability.EventEnvelope{
		EventType: "message_events",
		EventName: "message_sent",
		Payload: map[string]interface{}{
			"message_id":  msg.ID,
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"has_image":   msg.ImageURL != "",
		},
	}, observability.BuildHeaders("", traceID))

	return msg, nil
}
