package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messaging-service/internal/clients"
	"messaging-service/internal/service"
)

// MessageHandler exposes the messaging core over HTTP. Every response
// carries the success envelope.
type MessageHandler struct {
	conversations *service.ConversationService
	dispatcher    *service.Dispatcher
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(conversations *service.ConversationService, dispatcher *service.Dispatcher) *MessageHandler {
	return &MessageHandler{conversations: conversations, dispatcher: dispatcher}
}

// Sidebar returns all other users plus the sparse unseen-count map.
func (h *MessageHandler) Sidebar(c *gin.Context) {
	userID := c.GetInt("userID")

	users, unseen, err := h.conversations.Sidebar(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"users":          users,
		"unseenMessages": unseen,
	})
}

// GetConversation returns the history with a peer, marking the peer's
// messages seen as a side effect.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	peerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.conversations.OpenConversation(c.Request.Context(), userID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

// MarkMessageSeen marks a single message as seen.
func (h *MessageHandler) MarkMessageSeen(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid message id"})
		return
	}

	if err := h.conversations.MarkOneSeen(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to mark message seen"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendMessage stores a message for the receiver and pushes it to their live
// connection if they have one.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	receiverID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	if receiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "cannot message yourself"})
		return
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if req.Text == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "message content required"})
		return
	}

	msg, err := h.dispatcher.Send(c.Request.Context(), userID, receiverID, req.Text, req.Image)
	if err != nil {
		if errors.Is(err, clients.ErrUploadFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "image upload failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "newMessage": msg})
}
