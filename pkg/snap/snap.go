package snap

import (
	"sort"

	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/dhconnelly/rtreego"
)

// boundsPadDegrees keeps degenerate bounding boxes (straight north-south or
// east-west roads) valid for the r-tree.
const boundsPadDegrees = 1e-7

type roadItem struct {
	id       datastructure.RoadID
	geometry []geo.Coordinate
	bounds   rtreego.Rect
}

func (r *roadItem) Bounds() rtreego.Rect {
	return r.bounds
}

type NearbyRoad struct {
	ID             datastructure.RoadID
	DistanceMeters float64
}

// RoadSnapper locates the roads nearest to a coordinate. Curation tooling
// uses it to turn a clicked point into a merge_osm_ways.json entry, and the
// audit server exposes it directly.
type RoadSnapper struct {
	rtree *rtreego.Rtree
	items map[datastructure.RoadID]*roadItem
}

func NewRoadSnapper() *RoadSnapper {
	return &RoadSnapper{
		rtree: rtreego.NewTree(2, 25, 50),
		items: make(map[datastructure.RoadID]*roadItem),
	}
}

// Build indexes every road centerline by its bounding box.
func (rs *RoadSnapper) Build(g *datastructure.RawGraph) {
	for id, road := range g.Roads {
		if len(road.Geometry) == 0 {
			continue
		}
		minLat, maxLat := road.Geometry[0].Lat, road.Geometry[0].Lat
		minLon, maxLon := road.Geometry[0].Lon, road.Geometry[0].Lon
		for _, c := range road.Geometry[1:] {
			if c.Lat < minLat {
				minLat = c.Lat
			}
			if c.Lat > maxLat {
				maxLat = c.Lat
			}
			if c.Lon < minLon {
				minLon = c.Lon
			}
			if c.Lon > maxLon {
				maxLon = c.Lon
			}
		}
		bounds, err := rtreego.NewRect(
			rtreego.Point{minLat, minLon},
			[]float64{maxLat - minLat + boundsPadDegrees, maxLon - minLon + boundsPadDegrees},
		)
		if err != nil {
			continue
		}
		item := &roadItem{id: id, geometry: road.Geometry, bounds: bounds}
		rs.items[id] = item
		rs.rtree.Insert(item)
	}
}

// NearestRoads returns up to k roads closest to the query point, nearest
// first, with great-circle distances to each centerline.
func (rs *RoadSnapper) NearestRoads(lat, lon float64, k int) []NearbyRoad {
	query := geo.NewCoordinate(lat, lon)
	neighbors := rs.rtree.NearestNeighbors(k, rtreego.Point{lat, lon})

	result := make([]NearbyRoad, 0, len(neighbors))
	for _, n := range neighbors {
		if n == nil {
			continue
		}
		item := n.(*roadItem)
		result = append(result, NearbyRoad{
			ID:             item.id,
			DistanceMeters: geo.DistanceToPolyline(query, item.geometry),
		})
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].DistanceMeters < result[b].DistanceMeters
	})
	return result
}
