package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"
	"github.com/mapfold/roadweld/pkg/server/rest/service"
	"github.com/mapfold/roadweld/pkg/shortroads"
	"github.com/mapfold/roadweld/pkg/snap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph() *datastructure.RawGraph {
	g := datastructure.NewRawGraph("test")
	g.AddIntersection(datastructure.NewIntersection(1, datastructure.IntersectionPlain, geo.NewCoordinate(47.6000, -122.3)))
	g.AddIntersection(datastructure.NewIntersection(2, datastructure.IntersectionPlain, geo.NewCoordinate(47.60003, -122.3)))
	g.AddIntersection(datastructure.NewIntersection(3, datastructure.IntersectionPlain, geo.NewCoordinate(47.6100, -122.3)))

	short := datastructure.NewRoad(datastructure.NewRoadID(1, 2, 0), "residential", []geo.Coordinate{
		{Lat: 47.6000, Lon: -122.3},
		{Lat: 47.60003, Lon: -122.3},
	})
	g.AddRoad(short)

	long := datastructure.NewRoad(datastructure.NewRoadID(2, 3, 0), "primary", []geo.Coordinate{
		{Lat: 47.60003, Lon: -122.3},
		{Lat: 47.6100, Lon: -122.3},
	})
	g.AddRoad(long)
	return g
}

func newService(t *testing.T, g *datastructure.RawGraph) *service.ShortRoadService {
	t.Helper()
	snapper := snap.NewRoadSnapper()
	snapper.Build(g)
	return service.NewShortRoadService(g, snapper)
}

func TestShortRoadsListsTaggedRoads(t *testing.T) {
	g := buildGraph()
	g.Roads[datastructure.NewRoadID(1, 2, 0)].Tags.Insert(datastructure.TagJunction, datastructure.TagValueIntersection)
	svc := newService(t, g)

	details, err := svc.ShortRoads(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, datastructure.NewRoadID(1, 2, 0), details[0].ID)
	assert.Equal(t, "residential", details[0].RoadClass)
	assert.NotEmpty(t, details[0].Polyline)
}

func TestClassifyFlagsAndCommits(t *testing.T) {
	g := buildGraph()
	svc := newService(t, g)

	flagged, err := svc.Classify(context.Background(), shortroads.Options{
		ConsolidateAll: true,
		OverridePath:   filepath.Join(t.TempDir(), "none.json"),
	})
	require.NoError(t, err)
	// the 1-2 road is about 3m long
	assert.Equal(t, []datastructure.RoadID{datastructure.NewRoadID(1, 2, 0)}, flagged)

	details, err := svc.ShortRoads(context.Background())
	require.NoError(t, err)
	assert.Len(t, details, 1)
}

func TestNearestRoads(t *testing.T) {
	svc := newService(t, buildGraph())

	nearby, err := svc.NearestRoads(context.Background(), 47.6000, -122.3, 1)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, datastructure.NewRoadID(1, 2, 0), nearby[0].ID)
}
