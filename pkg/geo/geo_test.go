package geo_test

import (
	"math"
	"testing"

	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/stretchr/testify/assert"
)

// latOffset converts a distance in meters to a latitude offset in degrees.
// Along a meridian the haversine distance is exactly earthRadius * dLat.
func latOffset(meters float64) float64 {
	return meters / 6371000.0 * (180.0 / math.Pi)
}

func TestHaversine(t *testing.T) {
	cases := []struct {
		latOne, longOne, latTwo, longTwo float64
		expectedDist                     float64
	}{
		{
			latOne:       -7.557155997491524,
			longOne:      110.77170252731288,
			latTwo:       -7.550209300671982,
			longTwo:      110.78942094938256,
			expectedDist: 2.1,
		},
		{
			latOne:       -7.759889166547908,
			longOne:      110.36689459108496,
			latTwo:       -7.760335932763678,
			longTwo:      110.37671195413539,
			expectedDist: 1.08,
		},
	}

	t.Run("success haversine distance", func(t *testing.T) {
		for _, c := range cases {
			dist := geo.CalculateHaversineDistance(c.latOne, c.longOne, c.latTwo, c.longTwo)
			assert.InDelta(t, c.expectedDist, dist, 0.1)
		}
	})
}

func TestPolylineLength(t *testing.T) {
	t.Run("meridian polyline has exact length", func(t *testing.T) {
		coords := []geo.Coordinate{
			{Lat: 47.6, Lon: -122.3},
			{Lat: 47.6 + latOffset(10), Lon: -122.3},
			{Lat: 47.6 + latOffset(25), Lon: -122.3},
		}
		assert.InDelta(t, 25.0, geo.PolylineLength(coords), 0.01)
	})

	t.Run("single point has zero length", func(t *testing.T) {
		coords := []geo.Coordinate{{Lat: 47.6, Lon: -122.3}}
		assert.Equal(t, 0.0, geo.PolylineLength(coords))
	})
}

func TestTrimPolyline(t *testing.T) {
	coords := []geo.Coordinate{
		{Lat: 47.6, Lon: -122.3},
		{Lat: 47.6 + latOffset(100), Lon: -122.3},
	}

	t.Run("trims both ends", func(t *testing.T) {
		trimmed, ok := geo.TrimPolyline(coords, 20, 30)
		assert.True(t, ok)
		assert.InDelta(t, 50.0, geo.PolylineLength(trimmed), 0.01)
	})

	t.Run("collapses when trims cross", func(t *testing.T) {
		_, ok := geo.TrimPolyline(coords, 60, 60)
		assert.False(t, ok)
	})

	t.Run("collapses when trims consume exactly the whole line", func(t *testing.T) {
		_, ok := geo.TrimPolyline(coords, 50, 50)
		assert.False(t, ok)
	})

	t.Run("zero trim returns original geometry", func(t *testing.T) {
		trimmed, ok := geo.TrimPolyline(coords, 0, 0)
		assert.True(t, ok)
		assert.InDelta(t, 100.0, geo.PolylineLength(trimmed), 0.01)
	})
}

func TestBearing(t *testing.T) {
	t.Run("due north", func(t *testing.T) {
		b := geo.Bearing(47.6, -122.3, 47.7, -122.3)
		assert.InDelta(t, 0.0, b, 0.01)
	})

	t.Run("due south", func(t *testing.T) {
		b := geo.Bearing(47.7, -122.3, 47.6, -122.3)
		assert.InDelta(t, 180.0, b, 0.01)
	})
}

func TestApproxParallel(t *testing.T) {
	cases := []struct {
		name     string
		a, b     float64
		expected bool
	}{
		{"same bearing", 10, 10, true},
		{"within tolerance", 10, 35, true},
		{"beyond tolerance", 10, 50, false},
		{"anti-parallel counts as parallel", 10, 190, true},
		{"perpendicular is not parallel", 0, 90, false},
		{"wraps around north", 355, 15, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, geo.ApproxParallel(c.a, c.b, 30.0))
		})
	}
}

func TestDistanceToPolyline(t *testing.T) {
	coords := []geo.Coordinate{
		{Lat: 47.6, Lon: -122.3},
		{Lat: 47.6 + latOffset(100), Lon: -122.3},
	}
	t.Run("point on the line", func(t *testing.T) {
		d := geo.DistanceToPolyline(geo.NewCoordinate(47.6+latOffset(50), -122.3), coords)
		assert.InDelta(t, 0.0, d, 0.5)
	})
}
