package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus_cruiser/internal/geocoding"
	"campus_cruiser/internal/models"
	"campus_cruiser/internal/repository"
)

func validRoute(stops ...StopInput) RouteInput {
	return RouteInput{
		Name:         "Campus Express",
		BusNumber:    "TS09 UA 1234",
		DriverName:   "Ravi Kumar",
		DriverMobile: "9876543210",
		Stops:        stops,
	}
}

func TestCreateRouteSingleStop(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	ctx := context.Background()

	route, err := f.reconciler.CreateRoute(ctx, validRoute(StopInput{
		RollNumber: "23B81A0501",
		Location:   "Main Gate, City",
		Time:       "08:00",
	}))
	require.NoError(t, err)

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 1)
	s := stored.Stops[0]
	assert.Equal(t, mainGate, s.Position)
	assert.Equal(t, "campus-express-jane-doe-abcde", s.StopID)
	assert.Contains(t, s.StopID, "campus-express")
	assert.Contains(t, s.StopID, "jane-doe")
	assert.Equal(t, "Jane Doe", s.StudentName)
	assert.Equal(t, "23B81A0501", s.RollNumber)
}

func TestCreateRouteKeepsStopOrder(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	f.addStudent(t, "John Roe", "23B81A0502")
	f.addStudent(t, "Ana Poe", "23B81A0503")

	route, err := f.reconciler.CreateRoute(context.Background(), validRoute(
		StopInput{RollNumber: "23b81a0503", Location: "Hostel Block", Time: "07:40"},
		StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "07:50"},
		StopInput{RollNumber: "23B81A0502", Location: "Library", Time: "08:00"},
	))
	require.NoError(t, err)

	stored, err := f.reconciler.GetRoute(context.Background(), route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 3)
	assert.Equal(t, "Ana Poe", stored.Stops[0].StudentName)
	assert.Equal(t, "23B81A0503", stored.Stops[0].RollNumber)
	assert.Equal(t, hostel, stored.Stops[0].Position)
	assert.Equal(t, library, stored.Stops[2].Position)
}

func TestCreateRouteIsAllOrNothing(t *testing.T) {
	cases := []struct {
		name      string
		bad       StopInput
		wantField string
		wantMsg   string
		geocode   bool
	}{
		{
			name:      "missing location",
			bad:       StopInput{RollNumber: "23B81A0502", Time: "08:10"},
			wantField: "stops[2].location",
			wantMsg:   "Stop 3: Location is missing",
		},
		{
			name:      "malformed time",
			bad:       StopInput{RollNumber: "23B81A0502", Location: "Library", Time: "8am"},
			wantField: "stops[2].time",
			wantMsg:   "Stop 3: Time must be in HH:MM format",
		},
		{
			name:      "unknown student",
			bad:       StopInput{RollNumber: "23B81A0599", Location: "Library", Time: "08:10"},
			wantField: "stops[2].rollNumber",
			wantMsg:   "Stop 3: Student not found: 23B81A0599",
		},
		{
			name:    "address not found",
			bad:     StopInput{RollNumber: "23B81A0502", Location: "Nowhere Lane", Time: "08:10"},
			geocode: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, campusGeocoder())
			f.addStudent(t, "Jane Doe", "23B81A0501")
			f.addStudent(t, "John Roe", "23B81A0502")
			ctx := context.Background()

			_, err := f.reconciler.CreateRoute(ctx, validRoute(
				StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "07:50"},
				StopInput{RollNumber: "23B81A0502", Location: "Library", Time: "08:00"},
				tc.bad,
			))
			require.Error(t, err)
			if tc.geocode {
				var nf *geocoding.NotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "Nowhere Lane", nf.Address)
			} else {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tc.wantField, ve.Field)
				assert.Equal(t, tc.wantMsg, ve.Message)
			}

			assert.Zero(t, f.store.writes.Load())
			routes, err := f.reconciler.ListRoutes(ctx)
			require.NoError(t, err)
			assert.Empty(t, routes)
		})
	}
}

func TestCreateRouteValidatesRouteFields(t *testing.T) {
	f := newFixture(t, campusGeocoder())

	in := validRoute()
	in.DriverMobile = "98765"
	_, err := f.reconciler.CreateRoute(context.Background(), in)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "driverMobile", ve.Field)
	assert.Equal(t, "Mobile number must be 10 digits.", ve.Message)

	in = validRoute()
	in.Name = "   "
	_, err = f.reconciler.CreateRoute(context.Background(), in)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Route name is required", ve.Message)
	assert.Zero(t, f.store.writes.Load())
}

func TestCreateRouteProviderFailure(t *testing.T) {
	boom := errors.New("connection refused")
	f := newFixture(t, geocoding.GeocoderFunc(func(context.Context, string) (models.Position, error) {
		return models.Position{}, boom
	}))
	f.addStudent(t, "Jane Doe", "23B81A0501")

	_, err := f.reconciler.CreateRoute(context.Background(), validRoute(
		StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "08:00"},
	))
	var pe *geocoding.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, boom)
	assert.False(t, geocoding.IsNotFound(err))
	assert.Zero(t, f.store.writes.Load())
}

func TestAddStopWithEmptyLocation(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	route, err := f.reconciler.CreateRoute(context.Background(), validRoute())
	require.NoError(t, err)
	writes := f.store.writes.Load()

	_, err = f.reconciler.AddStop(context.Background(), route.ID, StopInput{
		RollNumber: "23B81A0501",
		Location:   "  ",
		Time:       "08:00",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Location is missing", ve.Message)
	assert.Equal(t, "location", ve.Field)
	assert.Equal(t, writes, f.store.writes.Load())
}

func TestAddStopAppends(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	f.addStudent(t, "John Roe", "23B81A0502")
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute(
		StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "07:50"},
	))
	require.NoError(t, err)

	stop, err := f.reconciler.AddStop(ctx, route.ID, StopInput{
		RollNumber: "23b81a0502",
		Location:   "Library",
		Landmark:   "Opposite the canteen",
		Time:       "08:05",
	})
	require.NoError(t, err)
	assert.Equal(t, "John Roe", stop.StudentName)
	assert.Equal(t, "23B81A0502", stop.RollNumber)

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 2)
	assert.Equal(t, stop.StopID, stored.Stops[1].StopID)
	assert.Equal(t, "Opposite the canteen", stored.Stops[1].Landmark)
}

func TestAddStopErrors(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute())
	require.NoError(t, err)

	_, err = f.reconciler.AddStop(ctx, route.ID+100, StopInput{RollNumber: "23B81A0501", Location: "Library", Time: "08:00"})
	assert.ErrorIs(t, err, repository.ErrRouteNotFound)

	_, err = f.reconciler.AddStop(ctx, route.ID, StopInput{Location: "Library", Time: "08:00"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Please select a student.", ve.Message)

	_, err = f.reconciler.AddStop(ctx, route.ID, StopInput{RollNumber: "23B81A0501", Location: "Library"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Time is missing", ve.Message)

	_, err = f.reconciler.AddStop(ctx, route.ID, StopInput{RollNumber: "23B81A0501", Location: "Atlantis", Time: "08:00"})
	assert.True(t, geocoding.IsNotFound(err))

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Stops, "no stop with a missing position is written")
}

func TestAddStopAcceptsOriginCoordinate(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute())
	require.NoError(t, err)

	stop, err := f.reconciler.AddStop(ctx, route.ID, StopInput{RollNumber: "23B81A0501", Location: "Null Island", Time: "08:00"})
	require.NoError(t, err)
	assert.Equal(t, models.Position{}, stop.Position)
}

func TestConcurrentAddStopKeepsBoth(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	f.addStudent(t, "Jane Doe", "23B81A0501")
	f.addStudent(t, "John Roe", "23B81A0502")
	suffix := 0
	var mu sync.Mutex
	f.reconciler.newSuffix = func() string {
		mu.Lock()
		defer mu.Unlock()
		suffix++
		return string(rune('a'+suffix)) + "0000"
	}
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, roll := range []string{"23B81A0501", "23B81A0502"} {
		wg.Add(1)
		go func(i int, roll string) {
			defer wg.Done()
			_, errs[i] = f.reconciler.AddStop(ctx, route.ID, StopInput{RollNumber: roll, Location: "Library", Time: "08:00"})
		}(i, roll)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 2)
	rolls := []string{stored.Stops[0].RollNumber, stored.Stops[1].RollNumber}
	assert.ElementsMatch(t, []string{"23B81A0501", "23B81A0502"}, rolls)
}

// seedStops creates a route whose stops have the identifiers ids, in order.
func seedStops(t *testing.T, f *fixture, ids ...string) *models.Route {
	t.Helper()
	route := &models.Route{Name: "Campus Express", BusNumber: "TS09", DriverName: "Ravi", DriverMobile: "9876543210"}
	for _, id := range ids {
		route.Stops = append(route.Stops, models.Stop{
			StopID:      id,
			StudentName: "Student " + id,
			RollNumber:  "ROLL" + id,
			Location:    "Main Gate, City",
			Time:        "08:00",
			Position:    mainGate,
		})
	}
	require.NoError(t, f.store.RouteRepository.CreateRoute(context.Background(), route))
	return route
}

func storedIDs(t *testing.T, f *fixture, routeID uint) []string {
	t.Helper()
	route, err := f.reconciler.GetRoute(context.Background(), routeID)
	require.NoError(t, err)
	ids := make([]string, len(route.Stops))
	for i, s := range route.Stops {
		ids[i] = s.StopID
	}
	return ids
}

func TestDeleteMissingStopIsNoOp(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f, "a", "b")

	deleted, err := f.reconciler.DeleteStop(context.Background(), route.ID, "x")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []string{"a", "b"}, storedIDs(t, f, route.ID))
	assert.Zero(t, f.store.writes.Load())
}

func TestDeleteStop(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f, "a", "b", "c")
	ctx := context.Background()

	deleted, err := f.reconciler.DeleteStop(ctx, route.ID, "b")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"a", "c"}, storedIDs(t, f, route.ID))

	deleted, err = f.reconciler.DeleteStop(ctx, route.ID, "b")
	require.NoError(t, err)
	assert.False(t, deleted, "second delete of the same stop is benign")
	assert.Equal(t, []string{"a", "c"}, storedIDs(t, f, route.ID))
}

func TestDeleteStopOnMissingRoute(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	deleted, err := f.reconciler.DeleteStop(context.Background(), 404, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestEditStopPreservesIdentity(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f, "a", "b")
	ctx := context.Background()

	edited, err := f.reconciler.EditStop(ctx, route.ID, "b", EditStopInput{
		Location: "Library",
		Landmark: "Near the fountain",
		Time:     "08:15",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", edited.StopID)

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 2)
	s := stored.Stops[1]
	assert.Equal(t, "b", s.StopID)
	assert.Equal(t, "Student b", s.StudentName)
	assert.Equal(t, "ROLLb", s.RollNumber)
	assert.Equal(t, "Library", s.Location)
	assert.Equal(t, "Near the fountain", s.Landmark)
	assert.Equal(t, "08:15", s.Time)
	assert.Equal(t, library, s.Position)

	assert.Equal(t, route.Stops[0].Location, stored.Stops[0].Location, "other stops untouched")
	assert.Equal(t, mainGate, stored.Stops[0].Position)
}

func TestEditStopErrors(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f, "a")
	ctx := context.Background()

	_, err := f.reconciler.EditStop(ctx, route.ID, "zzz", EditStopInput{Location: "Library", Time: "08:00"})
	assert.ErrorIs(t, err, ErrStopNotFound)

	_, err = f.reconciler.EditStop(ctx, route.ID+1, "a", EditStopInput{Location: "Library", Time: "08:00"})
	assert.ErrorIs(t, err, repository.ErrRouteNotFound)

	_, err = f.reconciler.EditStop(ctx, route.ID, "a", EditStopInput{Location: "Atlantis", Time: "08:00"})
	assert.True(t, geocoding.IsNotFound(err))

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, mainGate, stored.Stops[0].Position, "failed geocode leaves the stop as it was")
	assert.Zero(t, f.store.writes.Load())
}

// Concurrent edits read the whole stop list and write it back whole, so when
// both read before either writes, the later write discards the earlier edit.
func TestConcurrentEditsLoseOneUpdate(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	geocoder := geocoding.GeocoderFunc(func(ctx context.Context, address string) (models.Position, error) {
		arrived.Done()
		arrived.Wait()
		if address == "Library" {
			return library, nil
		}
		return hostel, nil
	})
	f := newFixture(t, geocoder)
	route := seedStops(t, f, "a", "b")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	edits := []struct {
		stopID   string
		location string
	}{{"a", "Library"}, {"b", "Hostel Block"}}
	for i, e := range edits {
		wg.Add(1)
		go func(i int, stopID, location string) {
			defer wg.Done()
			_, errs[i] = f.reconciler.EditStop(ctx, route.ID, stopID, EditStopInput{Location: location, Time: "09:00"})
		}(i, e.stopID, e.location)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	require.Len(t, stored.Stops, 2)
	aEdited := stored.Stops[0].Location == "Library"
	bEdited := stored.Stops[1].Location == "Hostel Block"
	assert.True(t, aEdited != bEdited, "exactly one of the two edits survives, got a=%v b=%v", aEdited, bEdited)
}

func TestUpdateCapacity(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f)
	ctx := context.Background()

	require.NoError(t, f.reconciler.UpdateCapacity(ctx, route.ID, models.CapacityMedium))
	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CapacityMedium, stored.Capacity)

	err = f.reconciler.UpdateCapacity(ctx, route.ID, "Overflowing")
	assert.True(t, IsValidation(err))
}

func TestDeleteRoute(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	route := seedStops(t, f, "a")
	ctx := context.Background()

	require.NoError(t, f.reconciler.DeleteRoute(ctx, route.ID))
	_, err := f.reconciler.GetRoute(ctx, route.ID)
	assert.ErrorIs(t, err, repository.ErrRouteNotFound)
	assert.NoError(t, f.reconciler.DeleteRoute(ctx, route.ID))
}

func TestSyncStudentNames(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	jane := f.addStudent(t, "Jane Doe", "23B81A0501")
	f.addStudent(t, "John Roe", "23B81A0502")
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute(
		StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "07:50"},
		StopInput{RollNumber: "23B81A0502", Location: "Library", Time: "08:00"},
	))
	require.NoError(t, err)

	require.NoError(t, f.users.UpdateFields(ctx, jane.ID, map[string]interface{}{"full_name": "Jane Smith"}))

	n, err := f.reconciler.SyncStudentNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", stored.Stops[0].StudentName)
	assert.Equal(t, route.Stops[0].StopID, stored.Stops[0].StopID)
	assert.Equal(t, "John Roe", stored.Stops[1].StudentName)

	n, err = f.reconciler.SyncStudentNames(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOrphanedStops(t *testing.T) {
	f := newFixture(t, campusGeocoder())
	jane := f.addStudent(t, "Jane Doe", "23B81A0501")
	f.addStudent(t, "John Roe", "23B81A0502")
	ctx := context.Background()
	route, err := f.reconciler.CreateRoute(ctx, validRoute(
		StopInput{RollNumber: "23B81A0501", Location: "Main Gate, City", Time: "07:50"},
		StopInput{RollNumber: "23B81A0502", Location: "Library", Time: "08:00"},
	))
	require.NoError(t, err)

	orphans, err := f.reconciler.OrphanedStops(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	require.NoError(t, f.users.DeleteStudent(ctx, jane.ID))

	orphans, err = f.reconciler.OrphanedStops(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, route.ID, orphans[0].RouteID)
	assert.Equal(t, "Campus Express", orphans[0].RouteName)
	assert.Equal(t, "23B81A0501", orphans[0].Stop.RollNumber)

	stored, err := f.reconciler.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Stops, 2, "deleting a student leaves their stop in place")
}
