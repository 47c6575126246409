package kv

import (
	"github.com/mapfold/roadweld/pkg/datastructure"
	"github.com/mapfold/roadweld/pkg/geo"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

type Coordinate struct {
	Lat float64
	Lon float64
}

// KVRoad is the snapshot form of a road, flattened for binary encoding.
type KVRoad struct {
	I1        int64
	I2        int64
	Idx       int
	RoadClass string
	TrimStart float64
	TrimEnd   float64
	Geometry  []Coordinate
	TagKeys   []string
	TagValues []string
}

type KVIntersection struct {
	ID   int64
	Type int
	Lat  float64
	Lon  float64
}

func toKVRoad(r *datastructure.Road) KVRoad {
	geometry := make([]Coordinate, 0, len(r.Geometry))
	for _, c := range r.Geometry {
		geometry = append(geometry, Coordinate{Lat: c.Lat, Lon: c.Lon})
	}
	kvr := KVRoad{
		I1:        int64(r.ID.I1),
		I2:        int64(r.ID.I2),
		Idx:       r.ID.Idx,
		RoadClass: r.RoadClass,
		TrimStart: r.TrimStart,
		TrimEnd:   r.TrimEnd,
		Geometry:  geometry,
	}
	for k, v := range r.Tags {
		kvr.TagKeys = append(kvr.TagKeys, k)
		kvr.TagValues = append(kvr.TagValues, v)
	}
	return kvr
}

func (r KVRoad) toRoad() *datastructure.Road {
	geometry := make([]geo.Coordinate, 0, len(r.Geometry))
	for _, c := range r.Geometry {
		geometry = append(geometry, geo.NewCoordinate(c.Lat, c.Lon))
	}
	road := datastructure.NewRoad(
		datastructure.NewRoadID(datastructure.NodeID(r.I1), datastructure.NodeID(r.I2), r.Idx),
		r.RoadClass,
		geometry,
	)
	road.TrimStart = r.TrimStart
	road.TrimEnd = r.TrimEnd
	for i, k := range r.TagKeys {
		road.Tags.Insert(k, r.TagValues[i])
	}
	return road
}

func toKVIntersection(i *datastructure.Intersection) KVIntersection {
	return KVIntersection{
		ID:   int64(i.ID),
		Type: int(i.Type),
		Lat:  i.Coord.Lat,
		Lon:  i.Coord.Lon,
	}
}

func (i KVIntersection) toIntersection() *datastructure.Intersection {
	return datastructure.NewIntersection(
		datastructure.NodeID(i.ID),
		datastructure.IntersectionType(i.Type),
		geo.NewCoordinate(i.Lat, i.Lon),
	)
}

func encodeRoads(roads []KVRoad) ([]byte, error) {
	bb, err := binary.Marshal(roads)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func decodeRoads(bbCompressed []byte) ([]KVRoad, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var roads []KVRoad
	if err := binary.Unmarshal(bb, &roads); err != nil {
		return nil, err
	}
	return roads, nil
}

func encodeIntersections(intersections []KVIntersection) ([]byte, error) {
	bb, err := binary.Marshal(intersections)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func decodeIntersections(bbCompressed []byte) ([]KVIntersection, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var intersections []KVIntersection
	if err := binary.Unmarshal(bb, &intersections); err != nil {
		return nil, err
	}
	return intersections, nil
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}
	return bb, nil
}
