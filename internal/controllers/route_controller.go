package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus_cruiser/internal/models"
	"campus_cruiser/internal/services"
)

// RouteController serves route and stop management.
type RouteController struct {
	reconciler *services.Reconciler
}

func NewRouteController(reconciler *services.Reconciler) *RouteController {
	return &RouteController{reconciler: reconciler}
}

// CreateRoute creates a route with its initial stops. Nothing is written
// unless every stop validates and geocodes.
func (rc *RouteController) CreateRoute(c *gin.Context) {
	var input services.RouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	route, err := rc.reconciler.CreateRoute(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Route created successfully.", "route": route})
}

func (rc *RouteController) ListRoutes(c *gin.Context) {
	routes, err := rc.reconciler.ListRoutes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

func (rc *RouteController) GetRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, err := rc.reconciler.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

func (rc *RouteController) DeleteRoute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := rc.reconciler.DeleteRoute(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully."})
}

func (rc *RouteController) UpdateCapacity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Capacity models.Capacity `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	if err := rc.reconciler.UpdateCapacity(c.Request.Context(), id, body.Capacity); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Capacity updated.", "capacity": body.Capacity})
}

func (rc *RouteController) AddStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.StopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	stop, err := rc.reconciler.AddStop(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Stop added successfully.", "stop": stop})
}

func (rc *RouteController) EditStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input services.EditStopInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body format: " + err.Error()})
		return
	}
	stop, err := rc.reconciler.EditStop(c.Request.Context(), id, c.Param("stopId"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stop updated successfully.", "stop": stop})
}

// DeleteStop succeeds whether or not the stop still exists; "deleted"
// reports whether this call removed it.
func (rc *RouteController) DeleteStop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deleted, err := rc.reconciler.DeleteStop(c.Request.Context(), id, c.Param("stopId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (rc *RouteController) SyncStudentNames(c *gin.Context) {
	n, err := rc.reconciler.SyncStudentNames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (rc *RouteController) OrphanedStops(c *gin.Context) {
	orphans, err := rc.reconciler.OrphanedStops(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stops": orphans})
}

// RouteGeoJSON returns the route's stops and path as a GeoJSON FeatureCollection.
func (rc *RouteController) RouteGeoJSON(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fc, err := rc.reconciler.RouteGeoJSON(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}
