package services

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"campus_cruiser/internal/geocoding"
	"campus_cruiser/internal/models"
	"campus_cruiser/internal/repository"
	"campus_cruiser/internal/testutil"
)

// countingStore counts every write that reaches the route store.
type countingStore struct {
	*repository.RouteRepository
	writes atomic.Int32
}

func (s *countingStore) CreateRoute(ctx context.Context, route *models.Route) error {
	s.writes.Add(1)
	return s.RouteRepository.CreateRoute(ctx, route)
}

func (s *countingStore) AppendStop(ctx context.Context, routeID uint, stop *models.Stop) error {
	s.writes.Add(1)
	return s.RouteRepository.AppendStop(ctx, routeID, stop)
}

func (s *countingStore) UpdateRouteStops(ctx context.Context, routeID uint, stops []models.Stop) error {
	s.writes.Add(1)
	return s.RouteRepository.UpdateRouteStops(ctx, routeID, stops)
}

// fixedGeocoder resolves known addresses and reports every other one as not found.
func fixedGeocoder(known map[string]models.Position) geocoding.Geocoder {
	return geocoding.GeocoderFunc(func(_ context.Context, address string) (models.Position, error) {
		if p, ok := known[address]; ok {
			return p, nil
		}
		return models.Position{}, &geocoding.NotFoundError{Address: address}
	})
}

type fixture struct {
	store      *countingStore
	users      *repository.UserRepository
	reconciler *Reconciler
}

func newFixture(t *testing.T, geocoder geocoding.Geocoder) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		store: &countingStore{RouteRepository: repository.NewRouteRepository(db)},
		users: repository.NewUserRepository(db),
	}
	f.reconciler = NewReconciler(f.store, f.users, geocoder)
	f.reconciler.newSuffix = func() string { return "abcde" }
	return f
}

func (f *fixture) addStudent(t *testing.T, name, roll string) *models.User {
	t.Helper()
	u := &models.User{FullName: name, Email: strings.ToLower(roll) + "@example.com", Role: models.RoleStudent, RollNumber: roll}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

var (
	mainGate = models.Position{Lat: 17.40, Lng: 78.50}
	library  = models.Position{Lat: 17.41, Lng: 78.52}
	hostel   = models.Position{Lat: 17.43, Lng: 78.49}
)

func campusGeocoder() geocoding.Geocoder {
	return fixedGeocoder(map[string]models.Position{
		"Main Gate, City": mainGate,
		"Library":         library,
		"Hostel Block":    hostel,
		"Null Island":     {Lat: 0, Lng: 0},
	})
}
