package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/models"
)

// FriendHandler handles the friend set and the request ledger
type FriendHandler struct {
	App *app.App
}

func NewFriendHandler(a *app.App) *FriendHandler {
	return &FriendHandler{App: a}
}

func (h *FriendHandler) List(c *gin.Context) {
	list, err := h.App.Friends()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Add expects {"to": userID}
func (h *FriendHandler) Add(c *gin.Context) {
	var input models.FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.App.AddFriend(input.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *FriendHandler) Remove(c *gin.Context) {
	removed, err := h.App.RemoveFriend(c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not in your friends list"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FriendHandler) Requests(c *gin.Context) {
	pending, err := h.App.PendingRequests()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// SendRequest expects {"to": userID} and optionally "from"
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var input models.FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.App.SendFriendRequest(input.From, input.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// Accept expects {"from": userID} and removes every request from that user
func (h *FriendHandler) Accept(c *gin.Context) {
	var input models.FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accepted, err := h.App.AcceptRequest(input.From)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accepted": len(accepted)})
}

// Reject removes the request whose id matches :id exactly. Requests from
// older clients carry numeric ids, stored as their shortest decimal text
// (0.4213 is "0.4213"), and only that text matches.
func (h *FriendHandler) Reject(c *gin.Context) {
	if _, err := h.App.RejectRequest(models.RequestID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
