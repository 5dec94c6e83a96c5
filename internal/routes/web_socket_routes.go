package routes

import (
	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine, h Handlers) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/notifications", h.WebSocket.HandleNotificationWebSocket)
	}
}
