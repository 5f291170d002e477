package handler

import (
	"arb-client/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports liveness. It does not call the node.
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": "1.0.0",
		"service": "arb-server",
	})
}
