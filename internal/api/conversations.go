package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/models"
)

// ConversationHandler handles conversation routes
type ConversationHandler struct {
	App *app.App
}

func NewConversationHandler(a *app.App) *ConversationHandler {
	return &ConversationHandler{App: a}
}

// List returns the conversations of the signed-in identity
func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.App.Conversations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// Create adds a conversation and selects it
func (h *ConversationHandler) Create(c *gin.Context) {
	var req models.ConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, messages, err := h.App.CreateConversation(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv, "messages": messages})
}

// Select makes a conversation the active one and returns its log
func (h *ConversationHandler) Select(c *gin.Context) {
	conv, messages, err := h.App.SelectConversation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": messages})
}
