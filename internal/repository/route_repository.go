package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"campus_cruiser/internal/models"
)

// RouteRepository persists routes together with their embedded stop lists.
//
// A route and its stops are one unit of mutation: creation and whole-list
// replacement run in a single transaction, and appendStop is a single insert.
// Replacing the stop list is last-writer-wins; nothing detects a stale read.
type RouteRepository struct {
	db *gorm.DB
}

func NewRouteRepository(db *gorm.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

func orderedStops(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

// CreateRoute writes the route and all of its stops, or nothing.
// Duplicate names and bus numbers are allowed.
func (r *RouteRepository) CreateRoute(ctx context.Context, route *models.Route) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stops := route.Stops
		if err := tx.Omit("Stops").Create(route).Error; err != nil {
			return err
		}
		if len(stops) == 0 {
			route.Stops = []models.Stop{}
			return nil
		}
		for i := range stops {
			stops[i].Seq = 0
			stops[i].RouteID = route.ID
		}
		if err := tx.Create(&stops).Error; err != nil {
			return err
		}
		route.Stops = stops
		return nil
	})
}

// ListRoutes returns every route with its stops. Route order is unspecified.
func (r *RouteRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	var routes []models.Route
	if err := r.db.WithContext(ctx).Preload("Stops", orderedStops).Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

// GetRoute returns the route with its stops in insertion order.
func (r *RouteRepository) GetRoute(ctx context.Context, routeID uint) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).Preload("Stops", orderedStops).First(&route, routeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}
	if route.Stops == nil {
		route.Stops = []models.Stop{}
	}
	return &route, nil
}

// FindRoute returns the route attributes without loading its stops.
func (r *RouteRepository) FindRoute(ctx context.Context, routeID uint) (*models.Route, error) {
	var route models.Route
	err := r.db.WithContext(ctx).First(&route, routeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// AppendStop adds one stop to the end of the route's list without reading or
// rewriting the other stops, so concurrent appends never lose each other.
func (r *RouteRepository) AppendStop(ctx context.Context, routeID uint, stop *models.Stop) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Route{}).Where("id = ?", routeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrRouteNotFound
		}
		stop.Seq = 0
		stop.RouteID = routeID
		return tx.Create(stop).Error
	})
}

// UpdateRouteStops replaces the route's whole stop list with stops, in order.
func (r *RouteRepository) UpdateRouteStops(ctx context.Context, routeID uint, stops []models.Stop) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Route{}).Where("id = ?", routeID).Update("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRouteNotFound
		}
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		if len(stops) == 0 {
			return nil
		}
		fresh := make([]models.Stop, len(stops))
		for i, s := range stops {
			s.Seq = 0
			s.RouteID = routeID
			fresh[i] = s
		}
		return tx.Create(&fresh).Error
	})
}

// DeleteRoute removes the route and all of its stops. Deleting a route that
// does not exist succeeds.
func (r *RouteRepository) DeleteRoute(ctx context.Context, routeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id = ?", routeID).Delete(&models.Stop{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("id = ?", routeID).Delete(&models.Route{}).Error
	})
}

// UpdateCapacity sets the route's capacity level.
func (r *RouteRepository) UpdateCapacity(ctx context.Context, routeID uint, capacity models.Capacity) error {
	res := r.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", routeID).Update("capacity", capacity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// FindStopByRollNumber returns the first stop (by insertion order) assigned to
// rollNumber, compared case-insensitively against the upper-cased stored
// value, together with its route.
// It returns ErrRouteNotFound when no stop matches.
func (r *RouteRepository) FindStopByRollNumber(ctx context.Context, rollNumber string) (*models.Route, *models.Stop, error) {
	var stop models.Stop
	err := r.db.WithContext(ctx).
		Where("roll_number = ?", strings.ToUpper(strings.TrimSpace(rollNumber))).
		Order("seq ASC").
		First(&stop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrRouteNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	route, err := r.GetRoute(ctx, stop.RouteID)
	if err != nil {
		return nil, nil, err
	}
	for i := range route.Stops {
		if route.Stops[i].Seq == stop.Seq {
			return route, &route.Stops[i], nil
		}
	}
	return route, &stop, nil
}
