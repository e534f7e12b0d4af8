package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ammar1510/chatflow/internal/app"
	"github.com/ammar1510/chatflow/internal/models"
)

const identityKey = "identity"

// RequireSession aborts with 401 unless someone is signed in, and puts
// the identity in the context
func RequireSession(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := a.Current()
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}
