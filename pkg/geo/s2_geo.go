package geo

import (
	"github.com/golang/geo/s2"
)

// ProjectPointToLineCoord projects a query point onto the great-circle
// segment between two road-centerline points.
func ProjectPointToLineCoord(segStart, segEnd, query Coordinate) Coordinate {
	segStartS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segStart.Lat, segStart.Lon))
	segEndS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(segEnd.Lat, segEnd.Lon))
	queryS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(query.Lat, query.Lon))
	projection := s2.Project(queryS2, segStartS2, segEndS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return Coordinate{Lat: projectLatLng.Lat.Degrees(), Lon: projectLatLng.Lng.Degrees()}
}

// DistanceToPolyline returns the distance in meters from a query point to the
// nearest point on a polyline.
func DistanceToPolyline(query Coordinate, coords []Coordinate) float64 {
	if len(coords) == 1 {
		return HaversineMeters(query.Lat, query.Lon, coords[0].Lat, coords[0].Lon)
	}
	best := -1.0
	for i := 1; i < len(coords); i++ {
		proj := ProjectPointToLineCoord(coords[i-1], coords[i], query)
		dist := HaversineMeters(query.Lat, query.Lon, proj.Lat, proj.Lon)
		if best < 0 || dist < best {
			best = dist
		}
	}
	return best
}
