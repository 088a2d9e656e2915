package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tripsync/tripsync-api/internal/middleware"
	"github.com/tripsync/tripsync-api/internal/models"
)

// claimsFromContext returns the authenticated claims, or nil for anonymous
// requests behind OptionalJWT.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
