package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/velvoice/companiond/internal/models"
	"github.com/velvoice/companiond/pkg/response"
)

// identityHeader carries the verified user identity set by the auth proxy in
// front of this service. Authentication mechanics are out of scope here;
// requests without the header are rejected.
const identityHeader = "X-User-ID"

// RequireUser resolves the forwarded identity into a local user row and
// attaches it to the request context.
func (h *Handlers) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := c.GetHeader(identityHeader)
		if externalID == "" {
			response.FailWithStatus(c, http.StatusUnauthorized, "unauthorized", "missing identity")
			c.Abort()
			return
		}
		user, err := models.GetUserByExternalID(h.db, externalID)
		if err != nil {
			response.FailWithStatus(c, http.StatusUnauthorized, "unauthorized", err.Error())
			c.Abort()
			return
		}
		c.Set(models.UserContextKey, user)
		c.Next()
	}
}
