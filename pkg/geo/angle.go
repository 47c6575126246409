package geo

import "math"

// Bearing returns the initial bearing in degrees [0, 360) of the great-circle
// line from (latOne, lonOne) to (latTwo, lonTwo).
func Bearing(latOne, lonOne, latTwo, lonTwo float64) float64 {
	latOne = degreeToRadians(latOne)
	latTwo = degreeToRadians(latTwo)
	dLon := degreeToRadians(lonTwo - lonOne)

	y := math.Sin(dLon) * math.Cos(latTwo)
	x := math.Cos(latOne)*math.Sin(latTwo) - math.Sin(latOne)*math.Cos(latTwo)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * (180.0 / math.Pi)
	return math.Mod(bearing+360.0, 360.0)
}

// FirstLineBearing is the bearing of the first segment of a polyline,
// i.e. the direction a road leaves its i1 intersection.
func FirstLineBearing(coords []Coordinate) float64 {
	return Bearing(coords[0].Lat, coords[0].Lon, coords[1].Lat, coords[1].Lon)
}

// LastLineBearing is the bearing of the last segment of a polyline,
// i.e. the direction a road arrives at its i2 intersection.
func LastLineBearing(coords []Coordinate) float64 {
	n := len(coords)
	return Bearing(coords[n-2].Lat, coords[n-2].Lon, coords[n-1].Lat, coords[n-1].Lon)
}

// ApproxParallel reports whether two bearings describe nearly parallel lines,
// within tolerance degrees. Opposite directions count as parallel: a road
// heading 10 degrees and one heading 190 degrees run along the same axis.
func ApproxParallel(bearingOne, bearingTwo, toleranceDegrees float64) bool {
	diff := math.Abs(math.Mod(bearingOne-bearingTwo+360.0, 360.0))
	if diff > 180.0 {
		diff = 360.0 - diff
	}
	// fold anti-parallel onto parallel
	if diff > 90.0 {
		diff = 180.0 - diff
	}
	return diff <= toleranceDegrees
}
