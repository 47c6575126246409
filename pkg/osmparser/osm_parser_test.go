package osmparser

import (
	"testing"

	"github.com/mapfold/roadweld/pkg/datastructure"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
)

func TestAcceptOsmWay(t *testing.T) {
	cases := []struct {
		name     string
		tags     osm.Tags
		expected bool
	}{
		{"residential road", osm.Tags{{Key: "highway", Value: "residential"}}, true},
		{"cycleway is kept for topology", osm.Tags{{Key: "highway", Value: "cycleway"}}, true},
		{"bus stop is a point feature", osm.Tags{{Key: "highway", Value: "bus_stop"}}, false},
		{"route road without highway tag", osm.Tags{{Key: "route", Value: "road"}}, true},
		{"roundabout junction", osm.Tags{{Key: "junction", Value: "roundabout"}}, true},
		{"untagged way", osm.Tags{}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, acceptOsmWay(&osm.Way{Tags: c.tags}))
		})
	}
}

func TestProcessWaySplitsAtJunctions(t *testing.T) {
	p := NewOsmParser()
	// nodes 1..4 along a way; node 2 shared with another way
	p.wayNodeMap[1] = END_NODE
	p.wayNodeMap[2] = JUNCTION_NODE
	p.wayNodeMap[3] = BETWEEN_NODE
	p.wayNodeMap[4] = END_NODE
	p.nodeCoords[1] = nodeCoord{lat: 47.600, lon: -122.300}
	p.nodeCoords[2] = nodeCoord{lat: 47.601, lon: -122.300}
	p.nodeCoords[3] = nodeCoord{lat: 47.602, lon: -122.300}
	p.nodeCoords[4] = nodeCoord{lat: 47.603, lon: -122.300}
	p.signalNodes[2] = struct{}{}

	g := datastructure.NewRawGraph("test")
	way := &osm.Way{
		ID:    10,
		Nodes: osm.WayNodes{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		Tags: osm.Tags{
			{Key: "highway", Value: "residential"},
			{Key: "name", Value: "Main St"},
			{Key: "source", Value: "import"},
		},
	}
	p.processWay(way, g)

	assert.Len(t, g.Roads, 2)
	assert.Len(t, g.Intersections, 3)

	first := g.Roads[datastructure.NewRoadID(1, 2, 0)]
	second := g.Roads[datastructure.NewRoadID(2, 4, 0)]
	assert.NotNil(t, first)
	assert.NotNil(t, second)

	assert.Len(t, first.Geometry, 2)
	// node 3 is not a junction, it stays interior geometry
	assert.Len(t, second.Geometry, 3)

	assert.Equal(t, "residential", first.RoadClass)
	assert.Equal(t, "Main St", first.Tags.Find("name"))
	assert.Equal(t, "", first.Tags.Find("source"))

	assert.Equal(t, datastructure.IntersectionTrafficSignal, g.Intersections[2].Type)
	assert.Equal(t, datastructure.IntersectionPlain, g.Intersections[1].Type)
}

func TestParallelWaysGetDistinctOrdinals(t *testing.T) {
	p := NewOsmParser()
	p.wayNodeMap[1] = JUNCTION_NODE
	p.wayNodeMap[2] = JUNCTION_NODE
	p.nodeCoords[1] = nodeCoord{lat: 47.600, lon: -122.300}
	p.nodeCoords[2] = nodeCoord{lat: 47.601, lon: -122.300}

	g := datastructure.NewRawGraph("test")
	tags := osm.Tags{{Key: "highway", Value: "residential"}}
	p.processWay(&osm.Way{ID: 10, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}}, Tags: tags}, g)
	p.processWay(&osm.Way{ID: 11, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}}, Tags: tags}, g)

	assert.Len(t, g.Roads, 2)
	assert.NotNil(t, g.Roads[datastructure.NewRoadID(1, 2, 0)])
	assert.NotNil(t, g.Roads[datastructure.NewRoadID(1, 2, 1)])
}

func TestMarkBorders(t *testing.T) {
	p := NewOsmParser()
	p.wayNodeMap[1] = END_NODE
	p.wayNodeMap[2] = JUNCTION_NODE
	p.wayNodeMap[3] = END_NODE
	p.wayNodeMap[4] = END_NODE
	// node 1 sits on the west clip edge; node 4 dead-ends inside the extract
	p.nodeCoords[1] = nodeCoord{lat: 47.601, lon: -122.300}
	p.nodeCoords[2] = nodeCoord{lat: 47.601, lon: -122.295}
	p.nodeCoords[3] = nodeCoord{lat: 47.610, lon: -122.290}
	p.nodeCoords[4] = nodeCoord{lat: 47.605, lon: -122.294}

	g := datastructure.NewRawGraph("test")
	tags := osm.Tags{{Key: "highway", Value: "residential"}}
	p.processWay(&osm.Way{ID: 10, Nodes: osm.WayNodes{{ID: 1}, {ID: 2}}, Tags: tags}, g)
	p.processWay(&osm.Way{ID: 11, Nodes: osm.WayNodes{{ID: 2}, {ID: 3}}, Tags: tags}, g)
	p.processWay(&osm.Way{ID: 12, Nodes: osm.WayNodes{{ID: 2}, {ID: 4}}, Tags: tags}, g)

	p.markBorders(g)

	assert.Equal(t, datastructure.IntersectionBorder, g.Intersections[1].Type)
	assert.Equal(t, datastructure.IntersectionPlain, g.Intersections[4].Type)
	// a junction node on the edge is still not a border
	assert.Equal(t, datastructure.IntersectionPlain, g.Intersections[2].Type)
}
