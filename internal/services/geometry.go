package services

import (
	"context"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"campus_cruiser/internal/models"
)

// RouteGeoJSON loads a route and renders it for map clients.
func (r *Reconciler) RouteGeoJSON(ctx context.Context, routeID uint) (*geojson.FeatureCollection, error) {
	route, err := r.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return routeFeatures(route), nil
}

// routeFeatures emits one Point per stop in order and, when there are at
// least two stops, a LineString through them carrying its length in meters.
func routeFeatures(route *models.Route) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(route.Stops)+1)}
	coords := make([]float64, 0, 2*len(route.Stops))
	for _, s := range route.Stops {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.StopID,
			Geometry: geom.NewPointFlat(geom.XY, []float64{s.Position.Lng, s.Position.Lat}),
			Properties: map[string]interface{}{
				"id":          s.StopID,
				"studentName": s.StudentName,
				"rollNumber":  s.RollNumber,
				"time":        s.Time,
				"landmark":    s.Landmark,
			},
		})
		coords = append(coords, s.Position.Lng, s.Position.Lat)
	}
	if len(route.Stops) < 2 {
		return fc
	}

	var length float64
	for i := 1; i < len(route.Stops); i++ {
		a, b := route.Stops[i-1].Position, route.Stops[i].Position
		length += calculateDistance(a.Lat, a.Lng, b.Lat, b.Lng)
	}
	fc.Features = append(fc.Features, &geojson.Feature{
		Geometry: geom.NewLineStringFlat(geom.XY, coords),
		Properties: map[string]interface{}{
			"name":     route.Name,
			"length_m": math.Round(length),
		},
	})
	return fc
}

// calculateDistance returns the great-circle distance in meters.
func calculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
