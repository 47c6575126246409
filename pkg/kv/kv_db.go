package kv

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mapfold/roadweld/pkg/datastructure"

	"github.com/dgraph-io/badger/v4"
	"github.com/uber/h3-go/v4"
)

const (
	roadKeyPrefix       = "r/"
	intersectionsKey    = "i/all"
	graphNameKey        = "meta/name"
	h3IndexResolution   = 9
	snapshotBatchSize   = 1000
	roadsNearGridRadius = 1
)

var (
	ErrRoadsNotFound = errors.New("roads not found")
	ErrNoSnapshot    = errors.New("no graph snapshot in store")
)

// KVDB persists a built and classified road graph between the preprocessing
// stage and the audit server. Roads are bucketed by h3 cell so spatial
// lookups stay cheap.
type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

func roadCell(road *datastructure.Road) h3.Cell {
	p := road.Geometry[0]
	return h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), h3IndexResolution)
}

// SaveGraph writes the whole graph: intersections in one blob, roads bucketed
// by the h3 cell of their first centerline point.
func (k *KVDB) SaveGraph(ctx context.Context, g *datastructure.RawGraph) error {
	log.Printf("creating & saving h3 indexed roads to key-value db...")

	buckets := make(map[string][]KVRoad)
	for _, road := range g.Roads {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}
		cell := roadCell(road)
		buckets[cell.String()] = append(buckets[cell.String()], toKVRoad(road))
	}

	batch := make([]batchData, 0, snapshotBatchSize)
	for key, value := range buckets {
		batch = append(batch, batchData{key: roadKeyPrefix + key, value: value})
		if len(batch) == snapshotBatchSize {
			if err := k.saveBatchRoads(ctx, batch); err != nil {
				return err
			}
			batch = make([]batchData, 0, snapshotBatchSize)
		}
	}
	if len(batch) > 0 {
		if err := k.saveBatchRoads(ctx, batch); err != nil {
			return err
		}
	}

	intersections := make([]KVIntersection, 0, len(g.Intersections))
	for _, i := range g.Intersections {
		intersections = append(intersections, toKVIntersection(i))
	}
	bb, err := encodeIntersections(intersections)
	if err != nil {
		return err
	}
	err = k.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(intersectionsKey), bb); err != nil {
			return err
		}
		return txn.Set([]byte(graphNameKey), []byte(g.Name))
	})
	if err != nil {
		return err
	}

	log.Printf("saving graph snapshot done (%d road buckets, %d intersections)", len(buckets), len(intersections))
	return nil
}

type batchData struct {
	key   string
	value []KVRoad
}

func (k *KVDB) saveBatchRoads(ctx context.Context, batchData []batchData) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, data := range batchData {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		val, err := encodeRoads(data.value)
		if err != nil {
			return err
		}
		if err := batch.Set([]byte(data.key), val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		log.Printf("error saving roads: %v", err)
		return err
	}
	return nil
}

// LoadGraph rebuilds a RawGraph from the snapshot.
func (k *KVDB) LoadGraph(ctx context.Context) (*datastructure.RawGraph, error) {
	var name string
	var intersections []KVIntersection
	var roads []KVRoad

	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(graphNameKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNoSnapshot
			}
			return err
		}
		nameBB, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		name = string(nameBB)

		item, err = txn.Get([]byte(intersectionsKey))
		if err != nil {
			return err
		}
		intersectionsBB, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		intersections, err = decodeIntersections(intersectionsBB)
		if err != nil {
			return err
		}

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(roadKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled")
			default:
			}
			bb, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			bucket, err := decodeRoads(bb)
			if err != nil {
				return err
			}
			roads = append(roads, bucket...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g := datastructure.NewRawGraph(name)
	for _, i := range intersections {
		g.AddIntersection(i.toIntersection())
	}
	for _, r := range roads {
		g.AddRoad(r.toRoad())
	}
	log.Printf("loaded graph snapshot: %d roads, %d intersections", len(g.Roads), len(g.Intersections))
	return g, nil
}

// RoadsNear returns snapshot roads around a coordinate, searching the h3
// cell of the query point plus its immediate neighbors.
func (k *KVDB) RoadsNear(lat, lon float64) ([]*datastructure.Road, error) {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), h3IndexResolution)

	var result []*datastructure.Road
	err := k.db.View(func(txn *badger.Txn) error {
		for _, cell := range h3.GridDisk(origin, roadsNearGridRadius) {
			item, err := txn.Get([]byte(roadKeyPrefix + cell.String()))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			bb, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			bucket, err := decodeRoads(bb)
			if err != nil {
				return err
			}
			for _, r := range bucket {
				result = append(result, r.toRoad())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrRoadsNotFound
	}
	return result, nil
}
