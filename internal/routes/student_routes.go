package routes

import (
	"github.com/gin-gonic/gin"

	"campus_cruiser/internal/models"
)

func StudentRoutes(r *gin.Engine, h Handlers) {
	student := r.Group("/student")
	student.Use(h.Auth.RequireAuthWithRole(models.RoleStudent))
	{
		student.GET("/route", h.Students.MyRoute)
		student.PUT("/profile", h.Students.UpdateProfile)
		student.PUT("/password", h.Students.ChangePassword)
	}
}

// SharedRoutes are open to any signed-in user.
func SharedRoutes(r *gin.Engine, h Handlers) {
	shared := r.Group("/")
	shared.Use(h.Auth.RequireAuth())
	{
		shared.GET("/routes/:id/geojson", h.Routes.RouteGeoJSON)
		shared.GET("/notifications", h.Notifications.ListNotifications)
	}
}
