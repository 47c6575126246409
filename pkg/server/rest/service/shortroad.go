package service

import (
	"context"
	"sync"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/shortroads"
	"github.com/mapfold/roadweld/pkg/snap"
)

type RoadSnapper interface {
	NearestRoads(lat, lon float64, k int) []snap.NearbyRoad
}

// ShortRoadDetail is one flagged road with enough context to audit the
// classification visually.
type ShortRoadDetail struct {
	ID        datastructure.RoadID
	RoadClass string
	Polyline  string
}

type ShortRoadService struct {
	graph   *datastructure.RawGraph
	snapper RoadSnapper

	// classification mutates the graph; callers must not interleave passes
	mu sync.Mutex
}

func NewShortRoadService(graph *datastructure.RawGraph, snapper RoadSnapper) *ShortRoadService {
	return &ShortRoadService{graph: graph, snapper: snapper}
}

// ShortRoads lists every road currently tagged as a merge candidate.
func (s *ShortRoadService) ShortRoads(ctx context.Context) ([]ShortRoadDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ShortRoadDetail, 0)
	for id, road := range s.graph.Roads {
		if !road.Tags.Is(datastructure.TagJunction, datastructure.TagValueIntersection) {
			continue
		}
		result = append(result, ShortRoadDetail{
			ID:        id,
			RoadClass: road.RoadClass,
			Polyline:  datastructure.RenderPath(road.Geometry),
		})
	}
	return result, nil
}

// Classify re-runs the short-road classifier on the live graph.
func (s *ShortRoadService) Classify(ctx context.Context, opts shortroads.Options) ([]datastructure.RoadID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shortroads.FindShortRoads(s.graph, opts)
}

// NearestRoads finds the roads closest to a coordinate, for turning a point
// of interest into an override entry.
func (s *ShortRoadService) NearestRoads(ctx context.Context, lat, lon float64, k int) ([]snap.NearbyRoad, error) {
	return s.snapper.NearestRoads(lat, lon, k), nil
}
