package datastructure

import (
	"fmt"
	"sort"

	"github.com/mapfold/roadweld/pkg/geo"
)

// Tag key/value recording that a road is really part of a junction rather
// than a traversable segment. Set upstream by OSM mapping or manual
// overrides, and written back by the short-road classifier commit.
const (
	TagJunction          = "junction"
	TagValueIntersection = "intersection"
)

type NodeID int64

// RoadID identifies a road by its two endpoint intersections plus an ordinal
// disambiguating multiple segments between the same pair (loops, dual ways).
type RoadID struct {
	I1  NodeID `json:"i1"`
	I2  NodeID `json:"i2"`
	Idx int    `json:"idx"`
}

func NewRoadID(i1, i2 NodeID, idx int) RoadID {
	return RoadID{I1: i1, I2: i2, Idx: idx}
}

func (r RoadID) String() string {
	return fmt.Sprintf("%d-%d/%d", r.I1, r.I2, r.Idx)
}

type IntersectionType int

const (
	IntersectionPlain IntersectionType = iota
	IntersectionTrafficSignal
	IntersectionStopSign
	IntersectionBorder
)

func (it IntersectionType) String() string {
	return [...]string{"plain", "traffic_signal", "stop_sign", "border"}[it]
}

type Tags map[string]string

func (t Tags) Is(key, value string) bool {
	return t[key] == value
}

func (t Tags) Find(key string) string {
	return t[key]
}

func (t Tags) Insert(key, value string) {
	t[key] = value
}

type Road struct {
	ID        RoadID
	Tags      Tags
	RoadClass string
	// Geometry is the untrimmed centerline.
	Geometry []geo.Coordinate
	// TrimStart/TrimEnd are the meters consumed by the intersection polygons
	// at each end, set during map construction.
	TrimStart float64
	TrimEnd   float64
}

func NewRoad(id RoadID, roadClass string, geometry []geo.Coordinate) *Road {
	return &Road{
		ID:        id,
		Tags:      make(Tags),
		RoadClass: roadClass,
		Geometry:  geometry,
	}
}

type Intersection struct {
	ID    NodeID
	Type  IntersectionType
	Coord geo.Coordinate
}

func NewIntersection(id NodeID, itype IntersectionType, coord geo.Coordinate) *Intersection {
	return &Intersection{ID: id, Type: itype, Coord: coord}
}

func (i *Intersection) IsBorder() bool {
	return i.Type == IntersectionBorder
}

// RawGraph is the arena for all roads and intersections of one map. Roads
// reference intersections by identifier only; heuristics read the graph and
// return identifier sets, and the single commit step is the only mutation.
type RawGraph struct {
	Name          string
	Roads         map[RoadID]*Road
	Intersections map[NodeID]*Intersection

	adjacency map[NodeID][]RoadID
}

func NewRawGraph(name string) *RawGraph {
	return &RawGraph{
		Name:          name,
		Roads:         make(map[RoadID]*Road),
		Intersections: make(map[NodeID]*Intersection),
		adjacency:     make(map[NodeID][]RoadID),
	}
}

func (g *RawGraph) AddIntersection(i *Intersection) {
	g.Intersections[i.ID] = i
}

// AddRoad panics when an endpoint intersection is missing. A road referencing
// an absent intersection is a malformed graph and the source is expected to
// uphold that invariant.
func (g *RawGraph) AddRoad(r *Road) {
	if _, ok := g.Intersections[r.ID.I1]; !ok {
		panic(fmt.Sprintf("road %s references missing intersection %d", r.ID, r.ID.I1))
	}
	if _, ok := g.Intersections[r.ID.I2]; !ok {
		panic(fmt.Sprintf("road %s references missing intersection %d", r.ID, r.ID.I2))
	}
	g.Roads[r.ID] = r
	g.adjacency[r.ID.I1] = append(g.adjacency[r.ID.I1], r.ID)
	if r.ID.I2 != r.ID.I1 {
		g.adjacency[r.ID.I2] = append(g.adjacency[r.ID.I2], r.ID)
	}
}

// RoadsPerIntersection returns the roads incident to an intersection in a
// deterministic order.
func (g *RawGraph) RoadsPerIntersection(id NodeID) []RoadID {
	incident := make([]RoadID, len(g.adjacency[id]))
	copy(incident, g.adjacency[id])
	sort.Slice(incident, func(a, b int) bool {
		if incident[a].I1 != incident[b].I1 {
			return incident[a].I1 < incident[b].I1
		}
		if incident[a].I2 != incident[b].I2 {
			return incident[a].I2 < incident[b].I2
		}
		return incident[a].Idx < incident[b].Idx
	})
	return incident
}

// TrimmedRoadGeometry returns the centerline after trimming for intersection
// geometry. ok is false when the trims collapse the road, which happens after
// adjacent merges; callers must treat that as "cannot classify".
func (g *RawGraph) TrimmedRoadGeometry(id RoadID) ([]geo.Coordinate, bool) {
	road, ok := g.Roads[id]
	if !ok {
		return nil, false
	}
	return geo.TrimPolyline(road.Geometry, road.TrimStart, road.TrimEnd)
}

var nonDriveableRoadClass = map[string]struct{}{
	"cycleway":     {},
	"footway":      {},
	"path":         {},
	"pedestrian":   {},
	"steps":        {},
	"bridleway":    {},
	"corridor":     {},
	"construction": {},
	"track":        {},
	"busway":       {},
	"bus_guideway": {},
	"platform":     {},
}

var restrictedAccess = map[string]struct{}{
	"no":         {},
	"restricted": {},
	"military":   {},
	"emergency":  {},
	"private":    {},
	"permit":     {},
}

// IsDriveable reports whether general motor traffic can use the road.
func (g *RawGraph) IsDriveable(r *Road) bool {
	if _, ok := nonDriveableRoadClass[r.RoadClass]; ok {
		return false
	}
	if _, ok := restrictedAccess[r.Tags.Find("access")]; ok {
		return false
	}
	return true
}
