package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/hub"
	"campus_cruiser/internal/middleware"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketController struct {
	hub  *hub.NotificationHub
	auth *middleware.Auth
}

func NewWebSocketController(h *hub.NotificationHub, auth *middleware.Auth) *WebSocketController {
	return &WebSocketController{hub: h, auth: auth}
}

// HandleNotificationWebSocket streams new notifications to any signed-in
// user. Browsers cannot set headers on a websocket handshake, so the JWT
// travels in the token query parameter.
func (wc *WebSocketController) HandleNotificationWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		logrus.Warn("WebSocket connection attempt: Missing token query parameter.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication token"})
		return
	}
	claims, err := wc.auth.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithFields(logrus.Fields{
		"user_id":  claims.UserID,
		"role":     claims.Role,
		"conn_ptr": fmt.Sprintf("%p", conn),
	})
	log.Info("Notification WebSocket connection established.")

	wc.hub.Register(conn)
	defer wc.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("Notification WebSocket closed.")
			} else {
				log.WithError(err).Warn("Error reading from notification WebSocket.")
			}
			return
		}
		log.Debug("Client sent unexpected message. Ignoring.")
	}
}
