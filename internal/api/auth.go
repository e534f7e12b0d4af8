package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/models"
)

// AuthHandler handles authentication routes
type AuthHandler struct {
	App *app.App
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(a *app.App) *AuthHandler {
	return &AuthHandler{App: a}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.UserRegistration
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.App.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusCreated, id)
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.UserLogin
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.App.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondWithToken(c, http.StatusOK, id)
}

// Logout ends the session
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.App.Logout(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMe returns the signed-in identity
func (h *AuthHandler) GetMe(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, id)
}

// respondWithToken returns the identity along with a relay handshake token
func (h *AuthHandler) respondWithToken(c *gin.Context, status int, id *models.Identity) {
	token, expiry, err := auth.GenerateToken(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(status, gin.H{
		"token":  token,
		"expiry": expiry,
		"user":   id,
	})
}
