package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requireRequester extracts the requester identity from the X-Requester-ID
// header and stores it on the request context. Requests without a valid
// identity are rejected with 401 before reaching a handler.
func (s *Server) requireRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := c.GetHeader(headerRequesterID)
		if rawID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + headerRequesterID + " header"})
			return
		}

		requesterID, err := uuid.Parse(rawID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid " + headerRequesterID + " header"})
			return
		}

		c.Set(contextKeyRequesterID, requesterID)
		c.Next()
	}
}

// requireAdmin rejects requests whose X-Requester-Role header is not admin.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(headerRequesterRole) != roleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}

		c.Next()
	}
}

// requesterID returns the identity stored by requireRequester.
func requesterID(c *gin.Context) uuid.UUID {
	return c.MustGet(contextKeyRequesterID).(uuid.UUID)
}
