package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/auth"
	"github.com/ammar1510/chatflow/internal/chat"
	"github.com/ammar1510/chatflow/internal/friends"
	"github.com/ammar1510/chatflow/internal/logger"
)

var log = logger.New("api")

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, chat.ErrEmptyName),
		errors.Is(err, friends.ErrMissingUser):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, chat.ErrConversationNotFound),
		errors.Is(err, friends.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, app.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, friends.ErrAlreadyFriends):
		return http.StatusConflict
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrNoActiveConversation):
		return http.StatusNoContent
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusNoContent:
		c.Status(status)
		return
	case http.StatusInternalServerError:
		log.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
