package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"campus_cruiser/internal/geocoding"
	"campus_cruiser/internal/models"
	"campus_cruiser/internal/repository"
)

// RouteStore is the persistence the reconciler needs for routes and their stops.
type RouteStore interface {
	CreateRoute(ctx context.Context, route *models.Route) error
	ListRoutes(ctx context.Context) ([]models.Route, error)
	GetRoute(ctx context.Context, routeID uint) (*models.Route, error)
	FindRoute(ctx context.Context, routeID uint) (*models.Route, error)
	AppendStop(ctx context.Context, routeID uint, stop *models.Stop) error
	UpdateRouteStops(ctx context.Context, routeID uint, stops []models.Stop) error
	DeleteRoute(ctx context.Context, routeID uint) error
	UpdateCapacity(ctx context.Context, routeID uint, capacity models.Capacity) error
}

// StudentLookup is the read-only view of the student directory used when
// assigning students to stops.
type StudentLookup interface {
	FindStudentByRollNumber(ctx context.Context, rollNumber string) (*models.User, error)
	ListByRole(ctx context.Context, role string) ([]models.User, error)
}

// RouteInput is an admin's route-creation submission.
type RouteInput struct {
	Name         string      `json:"name" validate:"required"`
	BusNumber    string      `json:"busNumber" validate:"required"`
	DriverName   string      `json:"driverName" validate:"required"`
	DriverMobile string      `json:"driverMobile" validate:"required,numeric,len=10"`
	Stops        []StopInput `json:"stops" validate:"-"`
}

// StopInput assigns one student to a pickup point.
type StopInput struct {
	RollNumber string `json:"rollNumber" validate:"required"`
	Location   string `json:"location" validate:"required"`
	Landmark   string `json:"landmark"`
	Time       string `json:"time" validate:"required,hhmm"`
}

func (in *StopInput) normalize() {
	trimAll(&in.RollNumber, &in.Location, &in.Landmark, &in.Time)
	in.RollNumber = strings.ToUpper(in.RollNumber)
}

// EditStopInput holds the stop fields an edit may change.
type EditStopInput struct {
	Location string `json:"location" validate:"required"`
	Landmark string `json:"landmark"`
	Time     string `json:"time" validate:"required,hhmm"`
}

// OrphanedStop is a stop whose roll number matches no student.
type OrphanedStop struct {
	RouteID   uint        `json:"routeId"`
	RouteName string      `json:"routeName"`
	Stop      models.Stop `json:"stop"`
}

// Reconciler keeps routes' stop lists consistent with the student directory.
// Every stop it writes has been validated, assigned to an existing student and
// geocoded; a batch is written only once every stop in it has resolved.
type Reconciler struct {
	routes      RouteStore
	students    StudentLookup
	geocoder    geocoding.Geocoder
	maxParallel int
	newSuffix   func() string
}

func NewReconciler(routes RouteStore, students StudentLookup, geocoder geocoding.Geocoder) *Reconciler {
	return &Reconciler{
		routes:      routes,
		students:    students,
		geocoder:    geocoder,
		maxParallel: 4,
		newSuffix:   randomSuffix,
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}

// stopID derives a readable identifier from the route and student names.
// The random suffix makes collisions unlikely, not impossible.
func (r *Reconciler) stopID(routeName, studentName string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{slug.Make(routeName), slug.Make(studentName)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, r.newSuffix())
	return strings.Join(parts, "-")
}

func (r *Reconciler) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return r.routes.ListRoutes(ctx)
}

func (r *Reconciler) GetRoute(ctx context.Context, routeID uint) (*models.Route, error) {
	return r.routes.GetRoute(ctx, routeID)
}

// lookupStudent resolves the student a stop is assigned to.
func (r *Reconciler) lookupStudent(ctx context.Context, rollNumber string) (*models.User, error) {
	student, err := r.students.FindStudentByRollNumber(ctx, rollNumber)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, newValidationError("rollNumber", "Student not found: %s", rollNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("look up student %s: %w", rollNumber, err)
	}
	return student, nil
}

func (r *Reconciler) resolve(ctx context.Context, address string) (models.Position, error) {
	pos, err := r.geocoder.Resolve(ctx, address)
	if err != nil {
		return models.Position{}, geocoding.Wrap(address, err)
	}
	if !pos.Valid() {
		return models.Position{}, geocoding.Wrap(address, fmt.Errorf("coordinate out of range: %v,%v", pos.Lat, pos.Lng))
	}
	return pos, nil
}

// CreateRoute validates every stop, resolves all of their addresses and then
// writes the route with its stops in one step. Any failure leaves nothing
// persisted.
func (r *Reconciler) CreateRoute(ctx context.Context, in RouteInput) (*models.Route, error) {
	trimAll(&in.Name, &in.BusNumber, &in.DriverName, &in.DriverMobile)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	stops := make([]StopInput, len(in.Stops))
	for i, s := range in.Stops {
		s.normalize()
		if err := validateStruct(s); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, newValidationError(fmt.Sprintf("stops[%d].%s", i, ve.Field), "Stop %d: %s", i+1, ve.Message)
			}
			return nil, err
		}
		stops[i] = s
	}

	students := make([]*models.User, len(stops))
	for i, s := range stops {
		student, err := r.lookupStudent(ctx, s.RollNumber)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, newValidationError(fmt.Sprintf("stops[%d].%s", i, ve.Field), "Stop %d: %s", i+1, ve.Message)
			}
			return nil, err
		}
		students[i] = student
	}

	positions := make([]models.Position, len(stops))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)
	for i := range stops {
		g.Go(func() error {
			pos, err := r.resolve(gctx, stops[i].Location)
			if err != nil {
				return err
			}
			positions[i] = pos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logrus.WithError(err).WithField("route_name", in.Name).Warn("CreateRoute: geocoding failed, route not written")
		return nil, err
	}

	route := &models.Route{
		Name:         in.Name,
		BusNumber:    in.BusNumber,
		DriverName:   in.DriverName,
		DriverMobile: in.DriverMobile,
		Stops:        make([]models.Stop, len(stops)),
	}
	for i, s := range stops {
		route.Stops[i] = models.Stop{
			StopID:      r.stopID(in.Name, students[i].FullName),
			StudentName: students[i].FullName,
			RollNumber:  strings.ToUpper(students[i].RollNumber),
			Location:    s.Location,
			Landmark:    s.Landmark,
			Time:        s.Time,
			Position:    positions[i],
		}
	}

	if err := r.routes.CreateRoute(ctx, route); err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"route_id": route.ID,
		"stops":    len(route.Stops),
	}).Info("Route created")
	return route, nil
}

// AddStop appends one stop to an existing route.
func (r *Reconciler) AddStop(ctx context.Context, routeID uint, in StopInput) (*models.Stop, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	route, err := r.routes.FindRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	student, err := r.lookupStudent(ctx, in.RollNumber)
	if err != nil {
		return nil, err
	}
	pos, err := r.resolve(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	stop := &models.Stop{
		StopID:      r.stopID(route.Name, student.FullName),
		StudentName: student.FullName,
		RollNumber:  strings.ToUpper(student.RollNumber),
		Location:    in.Location,
		Landmark:    in.Landmark,
		Time:        in.Time,
		Position:    pos,
	}
	if err := r.routes.AppendStop(ctx, routeID, stop); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"route_id":    routeID,
		"stop_id":     stop.StopID,
		"roll_number": stop.RollNumber,
	}).Info("Stop added")
	return stop, nil
}

// DeleteStop removes the stop from the route. It reports whether a stop was
// removed; a missing route or stop already satisfies the request and is not
// an error.
//
// The route's stop list is read, edited and written back whole, so a
// concurrent edit of the same route between the read and the write is lost.
func (r *Reconciler) DeleteStop(ctx context.Context, routeID uint, stopID string) (bool, error) {
	if strings.TrimSpace(stopID) == "" {
		return false, newValidationError("stopId", "Stop ID is required")
	}
	log := logrus.WithFields(logrus.Fields{"route_id": routeID, "stop_id": stopID})

	route, err := r.routes.GetRoute(ctx, routeID)
	if errors.Is(err, repository.ErrRouteNotFound) {
		log.Warn("DeleteStop: route not found, nothing to delete")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	idx := route.FindStop(stopID)
	if idx < 0 {
		log.Warn("DeleteStop: stop not found, likely already deleted")
		return false, nil
	}

	remaining := make([]models.Stop, 0, len(route.Stops)-1)
	remaining = append(remaining, route.Stops[:idx]...)
	remaining = append(remaining, route.Stops[idx+1:]...)

	err = r.routes.UpdateRouteStops(ctx, routeID, remaining)
	if errors.Is(err, repository.ErrRouteNotFound) {
		log.Warn("DeleteStop: route deleted concurrently")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	log.Info("Stop deleted")
	return true, nil
}

// EditStop re-geocodes the stop's location and replaces its location,
// landmark, time and position. The stop keeps its identifier, student name
// and roll number. It has the same lost-update window as DeleteStop.
func (r *Reconciler) EditStop(ctx context.Context, routeID uint, stopID string, in EditStopInput) (*models.Stop, error) {
	trimAll(&in.Location, &in.Landmark, &in.Time)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	route, err := r.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	idx := route.FindStop(stopID)
	if idx < 0 {
		return nil, ErrStopNotFound
	}

	pos, err := r.resolve(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	stops := make([]models.Stop, len(route.Stops))
	copy(stops, route.Stops)
	stops[idx].Location = in.Location
	stops[idx].Landmark = in.Landmark
	stops[idx].Time = in.Time
	stops[idx].Position = pos

	if err := r.routes.UpdateRouteStops(ctx, routeID, stops); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"route_id": routeID, "stop_id": stopID}).Info("Stop updated")
	edited := stops[idx]
	return &edited, nil
}

// DeleteRoute removes the route and its stops. Deleting a missing route succeeds.
func (r *Reconciler) DeleteRoute(ctx context.Context, routeID uint) error {
	if err := r.routes.DeleteRoute(ctx, routeID); err != nil {
		return fmt.Errorf("delete route %d: %w", routeID, err)
	}
	logrus.WithField("route_id", routeID).Info("Route deleted")
	return nil
}

func (r *Reconciler) UpdateCapacity(ctx context.Context, routeID uint, capacity models.Capacity) error {
	if !capacity.Valid() {
		return newValidationError("capacity", "Capacity must be one of Low, Medium, Full")
	}
	return r.routes.UpdateCapacity(ctx, routeID, capacity)
}

func (r *Reconciler) studentNames(ctx context.Context) (map[string]string, error) {
	students, err := r.students.ListByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[strings.ToUpper(s.RollNumber)] = s.FullName
	}
	return names, nil
}

// SyncStudentNames copies each student's current full name into every stop
// assigned to them and returns how many stops changed. Routes are rewritten
// one at a time; stops of deleted students are left as they are.
func (r *Reconciler) SyncStudentNames(ctx context.Context) (int, error) {
	names, err := r.studentNames(ctx)
	if err != nil {
		return 0, err
	}
	routes, err := r.routes.ListRoutes(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, route := range routes {
		changed := 0
		for i := range route.Stops {
			name, ok := names[strings.ToUpper(route.Stops[i].RollNumber)]
			if ok && name != route.Stops[i].StudentName {
				route.Stops[i].StudentName = name
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		if err := r.routes.UpdateRouteStops(ctx, route.ID, route.Stops); err != nil {
			if errors.Is(err, repository.ErrRouteNotFound) {
				continue
			}
			return updated, fmt.Errorf("sync route %d: %w", route.ID, err)
		}
		updated += changed
	}
	logrus.WithField("stops_updated", updated).Info("Student names synced")
	return updated, nil
}

// OrphanedStops lists stops whose roll number no longer matches any student,
// typically left behind when a student is deleted.
func (r *Reconciler) OrphanedStops(ctx context.Context) ([]OrphanedStop, error) {
	names, err := r.studentNames(ctx)
	if err != nil {
		return nil, err
	}
	routes, err := r.routes.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}

	orphans := []OrphanedStop{}
	for _, route := range routes {
		for _, stop := range route.Stops {
			if _, ok := names[strings.ToUpper(stop.RollNumber)]; !ok {
				orphans = append(orphans, OrphanedStop{RouteID: route.ID, RouteName: route.Name, Stop: stop})
			}
		}
	}
	return orphans, nil
}
