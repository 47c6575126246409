package datastructure_test

import (
	"math"
	"testing"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/stretchr/testify/assert"
)

func latOffset(meters float64) float64 {
	return meters / 6371000.0 * (180.0 / math.Pi)
}

func meridianRoad(id datastructure.RoadID, baseLat float64, meters float64) *datastructure.Road {
	return datastructure.NewRoad(id, "residential", []geo.Coordinate{
		{Lat: baseLat, Lon: -122.3},
		{Lat: baseLat + latOffset(meters), Lon: -122.3},
	})
}

func TestAddRoadPanicsOnMissingIntersection(t *testing.T) {
	g := datastructure.NewRawGraph("test")
	g.AddIntersection(datastructure.NewIntersection(1, datastructure.IntersectionPlain, geo.NewCoordinate(47.6, -122.3)))

	assert.Panics(t, func() {
		g.AddRoad(meridianRoad(datastructure.NewRoadID(1, 2, 0), 47.6, 10))
	})
}

func TestRoadsPerIntersection(t *testing.T) {
	g := datastructure.NewRawGraph("test")
	for i := datastructure.NodeID(1); i <= 4; i++ {
		g.AddIntersection(datastructure.NewIntersection(i, datastructure.IntersectionPlain, geo.NewCoordinate(47.6, -122.3)))
	}
	g.AddRoad(meridianRoad(datastructure.NewRoadID(1, 2, 0), 47.6, 10))
	g.AddRoad(meridianRoad(datastructure.NewRoadID(2, 3, 0), 47.6, 10))
	g.AddRoad(meridianRoad(datastructure.NewRoadID(2, 4, 0), 47.6, 10))

	incident := g.RoadsPerIntersection(2)
	assert.Len(t, incident, 3)
	assert.Equal(t, datastructure.NewRoadID(1, 2, 0), incident[0])

	assert.Len(t, g.RoadsPerIntersection(1), 1)
	assert.Empty(t, g.RoadsPerIntersection(99))
}

func TestTrimmedRoadGeometry(t *testing.T) {
	g := datastructure.NewRawGraph("test")
	g.AddIntersection(datastructure.NewIntersection(1, datastructure.IntersectionPlain, geo.NewCoordinate(47.6, -122.3)))
	g.AddIntersection(datastructure.NewIntersection(2, datastructure.IntersectionPlain, geo.NewCoordinate(47.7, -122.3)))

	road := meridianRoad(datastructure.NewRoadID(1, 2, 0), 47.6, 30)
	road.TrimStart = 5
	road.TrimEnd = 5
	g.AddRoad(road)

	t.Run("trimmed length excludes intersection geometry", func(t *testing.T) {
		pl, ok := g.TrimmedRoadGeometry(road.ID)
		assert.True(t, ok)
		assert.InDelta(t, 20.0, geo.PolylineLength(pl), 0.01)
	})

	t.Run("collapsed road reports no geometry", func(t *testing.T) {
		road.TrimStart = 20
		road.TrimEnd = 20
		_, ok := g.TrimmedRoadGeometry(road.ID)
		assert.False(t, ok)
	})

	t.Run("unknown road reports no geometry", func(t *testing.T) {
		_, ok := g.TrimmedRoadGeometry(datastructure.NewRoadID(8, 9, 0))
		assert.False(t, ok)
	})
}

func TestIsDriveable(t *testing.T) {
	g := datastructure.NewRawGraph("test")

	cases := []struct {
		name      string
		roadClass string
		access    string
		expected  bool
	}{
		{"residential", "residential", "", true},
		{"primary", "primary", "", true},
		{"cycleway", "cycleway", "", false},
		{"footway", "footway", "", false},
		{"private access", "residential", "private", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			road := datastructure.NewRoad(datastructure.NewRoadID(1, 2, 0), c.roadClass, nil)
			if c.access != "" {
				road.Tags.Insert("access", c.access)
			}
			assert.Equal(t, c.expected, g.IsDriveable(road))
		})
	}
}

func TestTags(t *testing.T) {
	tags := make(datastructure.Tags)
	assert.False(t, tags.Is(datastructure.TagJunction, datastructure.TagValueIntersection))

	tags.Insert(datastructure.TagJunction, datastructure.TagValueIntersection)
	assert.True(t, tags.Is(datastructure.TagJunction, datastructure.TagValueIntersection))
	assert.Equal(t, datastructure.TagValueIntersection, tags.Find(datastructure.TagJunction))
}
