package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterSessionRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/sessions", middleWares...)
	g.GET("current", handleCurrentSession)
}

// handleCurrentSession echoes the verified identity so clients can render
// role-dependent UI without a second identity-provider round trip.
func handleCurrentSession(c *gin.Context) {
	s := ExtractSessionFromGinContext(c)
	if s.Identity.Subject == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "common.unauthenticated", "message": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, &s.Identity)
}
