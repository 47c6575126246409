package datastructure

import (
	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/twpayne/go-polyline"
)

// RenderPath encodes a centerline as a google encoded polyline for audit
// output and API responses.
func RenderPath(path []geo.Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
