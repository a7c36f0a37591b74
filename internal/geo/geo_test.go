package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		points := []Point{
			{Lat: 36.9741, Lon: -122.0308},
			{Lat: 0, Lon: 0},
			{Lat: -89.9, Lon: 179.9},
		}
		for _, p := range points {
			d, err := Distance(p, p)
			require.NoError(t, err)
			assert.Equal(t, 0.0, d)
		}
	})

	t.Run("is symmetric", func(t *testing.T) {
		pairs := [][2]Point{
			{{Lat: 36.9741, Lon: -122.0308}, {Lat: 36.9916, Lon: -122.0584}},
			{{Lat: 51.5074, Lon: -0.1278}, {Lat: 40.7128, Lon: -74.0060}},
			{{Lat: -33.8688, Lon: 151.2093}, {Lat: 35.6762, Lon: 139.6503}},
		}
		for _, pair := range pairs {
			ab, err := Distance(pair[0], pair[1])
			require.NoError(t, err)
			ba, err := Distance(pair[1], pair[0])
			require.NoError(t, err)
			assert.InDelta(t, ab, ba, 1e-9)
		}
	})

	t.Run("campus regression value", func(t *testing.T) {
		d, err := Distance(Point{Lat: 36.9741, Lon: -122.0308}, Point{Lat: 36.9916, Lon: -122.0584})
		require.NoError(t, err)
		assert.InDelta(t, 1.9, KmToMiles(d), 0.1)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		_, err := Distance(Point{Lat: 91, Lon: 0}, Point{Lat: 0, Lon: 0})
		assert.ErrorIs(t, err, ErrInvalidCoordinate)

		_, err = Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: -180.5})
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	})

	t.Run("accepts boundary values", func(t *testing.T) {
		_, err := Distance(Point{Lat: 90, Lon: 180}, Point{Lat: -90, Lon: -180})
		assert.NoError(t, err)
	})
}

func TestBearingToCompass(t *testing.T) {
	tests := []struct {
		bearing  float64
		expected string
	}{
		{0, "N"},
		{44, "NE"},
		{90, "E"},
		{180, "S"},
		{270, "W"},
		{337.6, "N"},
		{360, "N"},
		{-90, "W"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, BearingToCompass(tt.bearing), "bearing %v", tt.bearing)
	}
}

func TestBearing(t *testing.T) {
	north := Bearing(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
	assert.InDelta(t, 0, north, 1e-6)

	east := Bearing(Point{Lat: 0, Lon: 0}, Point{Lat: 0, Lon: 1})
	assert.InDelta(t, 90, east, 1e-6)
}
