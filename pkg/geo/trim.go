package geo

// PointAlong linearly interpolates between two coordinates. t is in [0, 1].
// Linear interpolation in lat/lon is fine at road-segment scale.
func PointAlong(from, to Coordinate, t float64) Coordinate {
	return Coordinate{
		Lat: from.Lat + (to.Lat-from.Lat)*t,
		Lon: from.Lon + (to.Lon-from.Lon)*t,
	}
}

// TrimPolyline cuts fromStart meters off the start of a polyline and fromEnd
// meters off its end, interpolating new endpoints. The second return value is
// false when the trims meet or cross, leaving no geometry. Merging several
// short roads around one junction routinely collapses a segment this way, so
// callers treat a false result as "cannot classify", not as an error.
func TrimPolyline(coords []Coordinate, fromStart, fromEnd float64) ([]Coordinate, bool) {
	if len(coords) < 2 {
		return nil, false
	}
	total := PolylineLength(coords)
	if fromStart+fromEnd >= total {
		return nil, false
	}

	trimmed := cutFromStart(coords, fromStart)
	reversed := make([]Coordinate, len(trimmed))
	for i, c := range trimmed {
		reversed[len(trimmed)-1-i] = c
	}
	reversed = cutFromStart(reversed, fromEnd)
	result := make([]Coordinate, len(reversed))
	for i, c := range reversed {
		result[len(reversed)-1-i] = c
	}
	if len(result) < 2 {
		return nil, false
	}
	return result, true
}

func cutFromStart(coords []Coordinate, dist float64) []Coordinate {
	if dist <= 0 {
		return coords
	}
	walked := 0.0
	for i := 1; i < len(coords); i++ {
		seg := HaversineMeters(coords[i-1].Lat, coords[i-1].Lon, coords[i].Lat, coords[i].Lon)
		if walked+seg > dist {
			t := (dist - walked) / seg
			cut := PointAlong(coords[i-1], coords[i], t)
			result := make([]Coordinate, 0, len(coords)-i+1)
			result = append(result, cut)
			result = append(result, coords[i:]...)
			return result
		}
		walked += seg
	}
	return coords[len(coords)-1:]
}
