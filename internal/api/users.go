package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
)

// UserHandler handles directory lookups
type UserHandler struct {
	App *app.App
}

func NewUserHandler(a *app.App) *UserHandler {
	return &UserHandler{App: a}
}

// Search returns directory users whose name contains ?q=
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.App.SearchUsers(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
