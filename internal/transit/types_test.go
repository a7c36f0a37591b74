package transit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slugstop.org/tracker/internal/geo"
)

func campusLoop() Route {
	return Route{
		ID:      "LOOP",
		Name:    "Campus Loop",
		Headway: 15,
		Stops: []RouteStop{
			{StopID: "main-gate", Sequence: 1, TravelTimeFromPrevious: 0},
			{StopID: "library", Sequence: 2, TravelTimeFromPrevious: 4},
			{StopID: "science-hill", Sequence: 3, TravelTimeFromPrevious: 6},
		},
		OperatingHours: OperatingHours{
			Weekday: ServiceWindow{Start: "07:00", End: "23:00"},
			Weekend: ServiceWindow{Start: "09:00", End: "18:00"},
		},
		Active: true,
	}
}

func TestRouteValidate(t *testing.T) {
	t.Run("accepts a well formed route", func(t *testing.T) {
		assert.NoError(t, campusLoop().Validate())
	})

	t.Run("rejects gaps in the stop sequence", func(t *testing.T) {
		r := campusLoop()
		r.Stops[2].Sequence = 4
		err := r.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.FieldErrors, "stops")
	})

	t.Run("rejects non positive headway and negative travel", func(t *testing.T) {
		r := campusLoop()
		r.Headway = 0
		r.Stops[1].TravelTimeFromPrevious = -1
		var verr *ValidationError
		require.True(t, errors.As(r.Validate(), &verr))
		assert.Contains(t, verr.FieldErrors, "headway")
		assert.Contains(t, verr.FieldErrors, "stops")
	})

	t.Run("rejects duplicate stops", func(t *testing.T) {
		r := campusLoop()
		r.Stops[2].StopID = "library"
		assert.ErrorIs(t, r.Validate(), ErrValidationFailed)
	})

	t.Run("rejects malformed operating hours", func(t *testing.T) {
		r := campusLoop()
		r.OperatingHours.Weekday.End = "25:00"
		var verr *ValidationError
		require.True(t, errors.As(r.Validate(), &verr))
		assert.Contains(t, verr.FieldErrors, "operatingHours.weekday")
	})
}

func TestRouteTravelTime(t *testing.T) {
	r := campusLoop()

	seq, err := r.SequenceOf("science-hill")
	require.NoError(t, err)
	assert.Equal(t, 3, seq)

	total, err := r.TravelTimeTo(seq)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	first, err := r.TravelTimeTo(1)
	require.NoError(t, err)
	assert.Equal(t, 0, first)

	_, err = r.SequenceOf("nowhere")
	assert.ErrorIs(t, err, ErrStopNotOnRoute)

	_, err = r.TravelTimeTo(9)
	assert.ErrorIs(t, err, ErrStopNotOnRoute)
}

func TestRouteInService(t *testing.T) {
	r := campusLoop()
	// 2026-10-14 is a Wednesday.
	assert.True(t, r.InService(time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC)))
	assert.False(t, r.InService(time.Date(2026, 10, 14, 6, 59, 0, 0, time.UTC)))
	assert.False(t, r.InService(time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC)))
	// Saturday uses the weekend window.
	assert.False(t, r.InService(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)))
	assert.True(t, r.InService(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)))

	t.Run("overnight window wraps midnight", func(t *testing.T) {
		r := campusLoop()
		r.OperatingHours.Weekday = ServiceWindow{Start: "20:00", End: "02:00"}
		assert.True(t, r.InService(time.Date(2026, 10, 14, 1, 30, 0, 0, time.UTC)))
		assert.True(t, r.InService(time.Date(2026, 10, 14, 21, 0, 0, 0, time.UTC)))
		assert.False(t, r.InService(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("no configured window means always in service", func(t *testing.T) {
		r := campusLoop()
		r.OperatingHours = OperatingHours{}
		assert.True(t, r.InService(time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC)))
	})
}

func TestStopValidate(t *testing.T) {
	s := Stop{ID: "library", Name: "McHenry Library", Location: geo.Point{Lat: 36.9957, Lon: -122.0590}, Active: true}
	assert.NoError(t, s.Validate())

	s.Location.Lat = 120
	var verr *ValidationError
	require.True(t, errors.As(s.Validate(), &verr))
	assert.Contains(t, verr.FieldErrors, "latitude")
}

func TestErrorCode(t *testing.T) {
	verr := NewValidationError()
	verr.Add("vehicleId", "vehicleId is required")

	assert.Equal(t, "VALIDATION_FAILED", ErrorCode(verr))
	assert.Equal(t, "INVALID_COORDINATE", ErrorCode(geo.ErrInvalidCoordinate))
	assert.Equal(t, "ROUTE_NOT_FOUND", ErrorCode(ErrRouteNotFound))
	assert.Equal(t, "STOP_NOT_ON_ROUTE", ErrorCode(ErrStopNotOnRoute))
	assert.Equal(t, "NO_STOPS_AVAILABLE", ErrorCode(ErrNoStopsAvailable))
	assert.Equal(t, "INTERNAL", ErrorCode(errors.New("boom")))
	assert.Equal(t, "validation failed: vehicleId vehicleId is required", verr.Error())
}
