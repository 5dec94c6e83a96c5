package routes

import (
	"github.com/gin-gonic/gin"

	"campus_cruiser/internal/models"
)

func AdminRoutes(r *gin.Engine, h Handlers) {
	admin := r.Group("/admin")
	admin.Use(h.Auth.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/students", h.Students.ListStudents)
		admin.POST("/students", h.Students.CreateStudent)
		admin.DELETE("/students", h.Students.DeleteAllStudents)
		admin.DELETE("/students/:id", h.Students.DeleteStudent)

		admin.GET("/routes", h.Routes.ListRoutes)
		admin.POST("/routes", h.Routes.CreateRoute)
		admin.GET("/routes/:id", h.Routes.GetRoute)
		admin.DELETE("/routes/:id", h.Routes.DeleteRoute)
		admin.PATCH("/routes/:id/capacity", h.Routes.UpdateCapacity)
		admin.POST("/routes/:id/stops", h.Routes.AddStop)
		admin.PUT("/routes/:id/stops/:stopId", h.Routes.EditStop)
		admin.DELETE("/routes/:id/stops/:stopId", h.Routes.DeleteStop)

		admin.POST("/stops/sync-names", h.Routes.SyncStudentNames)
		admin.GET("/stops/orphaned", h.Routes.OrphanedStops)

		admin.POST("/notifications", h.Notifications.SendNotification)
	}
}
