package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/chat"
	"github.com/ammar1510/chatflow/internal/models"
)

// MessageHandler handles message-related routes
type MessageHandler struct {
	App *app.App
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(a *app.App) *MessageHandler {
	return &MessageHandler{App: a}
}

// SendMessage appends to the selected conversation. Empty text or no
// selection is ignored with 204.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.App.SendMessage(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// GetMessages returns the working log of the selected conversation
func (h *MessageHandler) GetMessages(c *gin.Context) {
	conv, messages, err := h.App.Messages()
	if errors.Is(err, chat.ErrNoActiveConversation) {
		c.JSON(http.StatusOK, gin.H{"conversation": nil, "messages": []models.Message{}})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}
