package routes

import (
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/controllers"
	"campus_cruiser/internal/middleware"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth          *middleware.Auth
	Login         *controllers.AuthController
	Routes        *controllers.RouteController
	Students      *controllers.StudentController
	Notifications *controllers.NotificationController
	WebSocket     *controllers.WebSocketController
	CORSOrigins   []string
}

func SetupRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(
		ginlog.WithUTC(true),
		ginlog.WithWriter(logrus.StandardLogger().Out),
		ginlog.WithSkipPath([]string{"/health"}),
	))
	r.Use(middleware.CORS(h.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	AuthRoutes(r, h)
	AdminRoutes(r, h)
	StudentRoutes(r, h)
	SharedRoutes(r, h)
	WebSocketRoutes(r, h)

	logrus.WithField("routes", len(r.Routes())).Debug("Router configured")
	return r
}
