package shortroads

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"

	"golang.org/x/exp/maps"
)

const (
	// Any road anywhere shorter than this should get merged.
	ShortRoadThresholdMeters = 5.0
	// Roads connecting clustered traffic signals get a looser threshold.
	SignalClusterThresholdMeters = 20.0

	nearlyParallelToleranceDegrees = 30.0
)

var (
	ErrOverrideRoadNotFound = errors.New("flagged road not present in the graph")
)

// Options selects which heuristic passes run. The zero value runs only the
// tag pass plus overrides, matching the default pipeline behavior.
type Options struct {
	// ConsolidateAll enables the experimental distance heuristic on every road.
	ConsolidateAll bool
	// SignalClusters and DogLegs are off by default, pending gradual rollout.
	SignalClusters bool
	DogLegs        bool
	// RejectNearlyParallel skips dog-leg candidates whose three incident
	// roads run nearly parallel, which marks the start of a dual-carriageway
	// split rather than a spurious four-way. Not validated yet.
	RejectNearlyParallel bool
	// OverridePath points at the manual curation file. Empty means the
	// well-known OverrideFilename relative to the working directory.
	OverridePath string
}

type RoadSet map[datastructure.RoadID]struct{}

// Heuristic is one pass of the classifier pipeline: a pure scan over the
// graph returning the roads it wants merged.
type Heuristic struct {
	Name    string
	Enabled bool
	Run     func(g *datastructure.RawGraph) RoadSet
}

func pipeline(opts Options) []Heuristic {
	return []Heuristic{
		{Name: "tagged-junction", Enabled: true, Run: taggedJunctions},
		{Name: "distance", Enabled: opts.ConsolidateAll, Run: shortDistanceRoads},
		{Name: "signal-cluster", Enabled: opts.SignalClusters, Run: trafficSignalClusters},
		{Name: "dog-leg", Enabled: opts.DogLegs, Run: func(g *datastructure.RawGraph) RoadSet {
			return dogLegs(g, opts.RejectNearlyParallel)
		}},
	}
}

// FindShortRoads combines a few different sources/methods to decide which
// roads are short, and marks them for merging:
//
//  1. Anything already tagged junction=intersection
//  2. The enabled heuristic passes
//  3. Anything in a local merge_osm_ways.json file
//
// Override identifiers may reference already-merged roads, so they are merged
// after every other pass. The commit is all-or-nothing: an override
// referencing a road absent from the graph fails the whole call before any
// tag is written.
func FindShortRoads(g *datastructure.RawGraph, opts Options) ([]datastructure.RoadID, error) {
	flagged := make(RoadSet)
	for _, h := range pipeline(opts) {
		if !h.Enabled {
			continue
		}
		hits := h.Run(g)
		for id := range hits {
			flagged[id] = struct{}{}
		}
		log.Printf("short-road pass %s flagged %d roads", h.Name, len(hits))
	}

	overrides := LoadOverrides(opts.OverridePath)
	for _, id := range overrides {
		flagged[id] = struct{}{}
	}

	result, err := MarkShortRoads(g, flagged)
	if err != nil {
		return nil, err
	}
	log.Printf("short road classification: %d roads flagged (%d overrides)", len(result), len(overrides))
	return result, nil
}

// MarkShortRoads commits a flagged set into the graph by tagging every road
// junction=intersection. Re-tagging an already flagged road is a no-op, so
// the commit is idempotent. Any identifier not present in the graph aborts
// the commit before the first mutation; stale curation data must not half
// apply.
func MarkShortRoads(g *datastructure.RawGraph, flagged RoadSet) ([]datastructure.RoadID, error) {
	ids := maps.Keys(flagged)
	sortRoadIDs(ids)
	for _, id := range ids {
		if _, ok := g.Roads[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrOverrideRoadNotFound, id)
		}
	}
	for _, id := range ids {
		g.Roads[id].Tags.Insert(datastructure.TagJunction, datastructure.TagValueIntersection)
	}
	return ids, nil
}

func taggedJunctions(g *datastructure.RawGraph) RoadSet {
	result := make(RoadSet)
	for id, road := range g.Roads {
		if road.Tags.Is(datastructure.TagJunction, datastructure.TagValueIntersection) {
			result[id] = struct{}{}
		}
	}
	return result
}

func shortDistanceRoads(g *datastructure.RawGraph) RoadSet {
	result := make(RoadSet)
	for id := range g.Roads {
		if distanceHeuristic(g, id) {
			result[id] = struct{}{}
		}
	}
	return result
}

func distanceHeuristic(g *datastructure.RawGraph, id datastructure.RoadID) bool {
	pl, ok := g.TrimmedRoadGeometry(id)
	if !ok {
		// The road or something near it collapsed down into a single point.
		// This can happen while merging several short roads around a single
		// junction.
		return false
	}
	return geo.PolylineLength(pl) < ShortRoadThresholdMeters
}

// trafficSignalClusters finds short roads connected to traffic signals.
//
// This will miss sequences of short roads with stop signs in between a
// cluster of traffic signals. What we really want is to find clumps of 2 or 4
// signals, find all the segments between them, and merge those.
func trafficSignalClusters(g *datastructure.RawGraph) RoadSet {
	result := make(RoadSet)
	for id, road := range g.Roads {
		if road.Tags.Is(datastructure.TagJunction, datastructure.TagValueIntersection) {
			continue
		}
		i1 := g.Intersections[id.I1]
		i2 := g.Intersections[id.I2]
		if i1.IsBorder() || i2.IsBorder() {
			continue
		}
		if i1.Type != datastructure.IntersectionTrafficSignal &&
			i2.Type != datastructure.IntersectionTrafficSignal {
			continue
		}
		pl, ok := g.TrimmedRoadGeometry(id)
		if !ok {
			continue
		}
		if geo.PolylineLength(pl) <= SignalClusterThresholdMeters {
			result[id] = struct{}{}
		}
	}
	return result
}

// dogLegs finds short roads in places that would otherwise be a normal
// four-way intersection:
//
//	      |
//	      |
//	---X~~X----
//	   |
//	   |
//
// The ~~ is the short road we want to detect: both of its endpoints are
// 3-ways of driveable roads, away from any border.
func dogLegs(g *datastructure.RawGraph, rejectNearlyParallel bool) RoadSet {
	result := make(RoadSet)

ROAD:
	for id := range g.Roads {
		pl, ok := g.TrimmedRoadGeometry(id)
		if !ok {
			continue
		}
		if geo.PolylineLength(pl) > ShortRoadThresholdMeters {
			continue
		}

		for _, i := range []datastructure.NodeID{id.I1, id.I2} {
			connections := g.RoadsPerIntersection(i)
			if len(connections) != 3 {
				continue ROAD
			}
			for _, r := range connections {
				// Don't even attempt cycleways yet.
				if !g.IsDriveable(g.Roads[r]) {
					continue ROAD
				}
				// Don't do anything near border intersections.
				if g.Intersections[r.I1].IsBorder() || g.Intersections[r.I2].IsBorder() {
					continue ROAD
				}
			}

			// Are these 3 roads nearly parallel? We're near the start of a
			// dual-carriageway split if so, and merging there makes a mess.
			if rejectNearlyParallel && nearlyParallel(g, connections, i) {
				continue ROAD
			}
		}

		result[id] = struct{}{}
	}
	return result
}

func nearlyParallel(g *datastructure.RawGraph, roads []datastructure.RoadID, i datastructure.NodeID) bool {
	angles := make([]float64, 0, len(roads))
	for _, id := range roads {
		pl, ok := g.TrimmedRoadGeometry(id)
		if !ok {
			// Unknown geometry: assume parallel and leave the road alone.
			return true
		}
		if id.I1 == i {
			angles = append(angles, geo.FirstLineBearing(pl))
		} else {
			angles = append(angles, geo.LastLineBearing(pl))
		}
	}

	return geo.ApproxParallel(angles[0], angles[1], nearlyParallelToleranceDegrees) &&
		geo.ApproxParallel(angles[0], angles[2], nearlyParallelToleranceDegrees) &&
		geo.ApproxParallel(angles[1], angles[2], nearlyParallelToleranceDegrees)
}

// FindTrafficSignalClusters runs the signal-cluster pass standalone and
// commits the result.
func FindTrafficSignalClusters(g *datastructure.RawGraph) []datastructure.RoadID {
	ids, err := MarkShortRoads(g, trafficSignalClusters(g))
	if err != nil {
		// The pass only produces identifiers taken from the graph.
		panic(err)
	}
	return ids
}

// FindDogLegs runs the dog-leg pass standalone and commits the result.
func FindDogLegs(g *datastructure.RawGraph, rejectNearlyParallel bool) []datastructure.RoadID {
	ids, err := MarkShortRoads(g, dogLegs(g, rejectNearlyParallel))
	if err != nil {
		panic(err)
	}
	return ids
}

func sortRoadIDs(ids []datastructure.RoadID) {
	sort.Slice(ids, func(a, b int) bool {
		if ids[a].I1 != ids[b].I1 {
			return ids[a].I1 < ids[b].I1
		}
		if ids[a].I2 != ids[b].I2 {
			return ids[a].I2 < ids[b].I2
		}
		return ids[a].Idx < ids[b].Idx
	})
}
