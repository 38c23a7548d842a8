package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Liveness returns a handler for liveness probes.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "service": serviceName})
	}
}
