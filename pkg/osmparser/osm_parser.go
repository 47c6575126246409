package osmparser

import (
	"context"
	"io"
	"log"
	"math"
	"os"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

type NodeType int

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

type nodeCoord struct {
	lat float64
	lon float64
}

// Endpoints of clipped extracts sit on the bounding box edge. A dead-end node
// this close to the box is treated as a map border, never a merge target.
const borderSnapDegrees = 1e-4

// Point features that carry a highway tag but are not traversable ways.
var skipHighway = map[string]struct{}{
	"construction":           {},
	"street_lamp":            {},
	"bus_stop":               {},
	"crossing":               {},
	"cyclist_waiting_aid":    {},
	"elevator":               {},
	"emergency_bay":          {},
	"emergency_access_point": {},
	"give_way":               {},
	"phone":                  {},
	"ladder":                 {},
	"milestone":              {},
	"passing_place":          {},
	"platform":               {},
	"speed_camera":           {},
	"proposed":               {},
	"speed_display":          {},
	"stop":                   {},
	"toll_gantry":            {},
	"traffic_mirror":         {},
	"traffic_signals":        {},
	"trailhead":              {},
}

// Way tags worth carrying onto roads. Everything else (created_by, notes,
// import metadata) is dropped.
var keptWayTags = map[string]struct{}{
	"junction": {},
	"name":     {},
	"access":   {},
	"oneway":   {},
	"lanes":    {},
}

type OsmParser struct {
	wayNodeMap   map[int64]NodeType
	nodeCoords   map[int64]nodeCoord
	signalNodes  map[int64]struct{}
	stopNodes    map[int64]struct{}
	segmentCount map[[2]int64]int
}

func NewOsmParser() *OsmParser {
	return &OsmParser{
		wayNodeMap:   make(map[int64]NodeType),
		nodeCoords:   make(map[int64]nodeCoord),
		signalNodes:  make(map[int64]struct{}),
		stopNodes:    make(map[int64]struct{}),
		segmentCount: make(map[[2]int64]int),
	}
}

// Parse reads an .osm.pbf extract and builds the raw road graph: roads split
// at junction nodes, intersections classified from node tags, border
// intersections detected at the extract's clip edge.
func (p *OsmParser) Parse(mapFile string) (*datastructure.RawGraph, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// first scan: find which way nodes are junctions
	scanner := osmpbf.New(context.Background(), f, 0)
	countWays := 0
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			log.Printf("reading openstreetmap ways: %d...", countWays+1)
		}
		countWays++

		for i, node := range way.Nodes {
			if _, ok := p.wayNodeMap[int64(node.ID)]; !ok {
				if i == 0 || i == len(way.Nodes)-1 {
					p.wayNodeMap[int64(node.ID)] = END_NODE
				} else {
					p.wayNodeMap[int64(node.ID)] = BETWEEN_NODE
				}
			} else {
				p.wayNodeMap[int64(node.ID)] = JUNCTION_NODE
			}
		}
	}
	scanner.Close()

	// second scan: node coordinates and intersection-control tags
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeNode {
			continue
		}
		node := o.(*osm.Node)
		if _, ok := p.wayNodeMap[int64(node.ID)]; !ok {
			continue
		}
		p.nodeCoords[int64(node.ID)] = nodeCoord{lat: node.Lat, lon: node.Lon}

		switch node.Tags.Find("highway") {
		case "traffic_signals":
			p.signalNodes[int64(node.ID)] = struct{}{}
		case "stop":
			p.stopNodes[int64(node.ID)] = struct{}{}
		}
	}
	scanner.Close()

	// third scan: cut ways into roads between junction nodes
	g := datastructure.NewRawGraph(mapFile)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	scanner = osmpbf.New(context.Background(), f, 0)
	defer scanner.Close()
	countWays = 0
	for scanner.Scan() {
		o := scanner.Object()
		if o.ObjectID().Type() != osm.TypeWay {
			continue
		}
		way := o.(*osm.Way)
		if len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			log.Printf("processing openstreetmap ways: %d...", countWays+1)
		}
		countWays++
		p.processWay(way, g)
	}

	p.markBorders(g)

	log.Printf("total roads: %d", len(g.Roads))
	log.Printf("total intersections: %d", len(g.Intersections))
	return g, nil
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	if highway != "" {
		if _, ok := skipHighway[highway]; !ok {
			return true
		}
		return false
	}
	if way.Tags.Find("route") == "road" {
		return true
	}
	return way.Tags.Find("junction") != ""
}

func (p *OsmParser) processWay(way *osm.Way, g *datastructure.RawGraph) {
	segment := make([]osm.WayNode, 0, len(way.Nodes))
	for i, wayNode := range way.Nodes {
		segment = append(segment, wayNode)
		last := i == len(way.Nodes)-1
		if len(segment) > 1 && (p.isJunctionNode(int64(wayNode.ID)) || last) {
			p.addRoad(segment, way, g)
			segment = []osm.WayNode{wayNode}
		}
	}
}

func (p *OsmParser) addRoad(segment []osm.WayNode, way *osm.Way, g *datastructure.RawGraph) {
	i1 := int64(segment[0].ID)
	i2 := int64(segment[len(segment)-1].ID)
	if i1 == i2 && len(segment) == 2 {
		return
	}

	p.ensureIntersection(g, i1)
	p.ensureIntersection(g, i2)

	pair := [2]int64{i1, i2}
	idx := p.segmentCount[pair]
	p.segmentCount[pair]++

	geometry := make([]geo.Coordinate, 0, len(segment))
	for _, wayNode := range segment {
		coord := p.nodeCoords[int64(wayNode.ID)]
		geometry = append(geometry, geo.NewCoordinate(coord.lat, coord.lon))
	}

	road := datastructure.NewRoad(
		datastructure.NewRoadID(datastructure.NodeID(i1), datastructure.NodeID(i2), idx),
		way.Tags.Find("highway"),
		geometry,
	)
	for _, tag := range way.Tags {
		if _, ok := keptWayTags[tag.Key]; ok {
			road.Tags.Insert(tag.Key, tag.Value)
		}
	}
	g.AddRoad(road)
}

func (p *OsmParser) ensureIntersection(g *datastructure.RawGraph, nodeID int64) {
	id := datastructure.NodeID(nodeID)
	if _, ok := g.Intersections[id]; ok {
		return
	}
	coord := p.nodeCoords[nodeID]
	itype := datastructure.IntersectionPlain
	if _, ok := p.signalNodes[nodeID]; ok {
		itype = datastructure.IntersectionTrafficSignal
	} else if _, ok := p.stopNodes[nodeID]; ok {
		itype = datastructure.IntersectionStopSign
	}
	g.AddIntersection(datastructure.NewIntersection(id, itype, geo.NewCoordinate(coord.lat, coord.lon)))
}

// markBorders reclassifies dead-end intersections sitting on the extract's
// bounding box as borders.
func (p *OsmParser) markBorders(g *datastructure.RawGraph) {
	minLat, minLon := math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon := -math.MaxFloat64, -math.MaxFloat64
	for _, i := range g.Intersections {
		minLat = math.Min(minLat, i.Coord.Lat)
		maxLat = math.Max(maxLat, i.Coord.Lat)
		minLon = math.Min(minLon, i.Coord.Lon)
		maxLon = math.Max(maxLon, i.Coord.Lon)
	}

	borders := 0
	for _, i := range g.Intersections {
		if len(g.RoadsPerIntersection(i.ID)) != 1 {
			continue
		}
		onEdge := math.Abs(i.Coord.Lat-minLat) < borderSnapDegrees ||
			math.Abs(i.Coord.Lat-maxLat) < borderSnapDegrees ||
			math.Abs(i.Coord.Lon-minLon) < borderSnapDegrees ||
			math.Abs(i.Coord.Lon-maxLon) < borderSnapDegrees
		if onEdge {
			i.Type = datastructure.IntersectionBorder
			borders++
		}
	}
	log.Printf("marked %d border intersections", borders)
}

func (p *OsmParser) isJunctionNode(nodeID int64) bool {
	return p.wayNodeMap[nodeID] == JUNCTION_NODE
}
