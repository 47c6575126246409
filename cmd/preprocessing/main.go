package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/mapfold/roadweld/pkg/kv"
	"github.com/mapfold/roadweld/pkg/osmparser"
	"github.com/mapfold/roadweld/pkg/shortroads"

	"github.com/dgraph-io/badger/v4"
)

var (
	mapFile        = flag.String("f", "montlake.osm.pbf", "openstreetmap file for the road network graph")
	dbDir          = flag.String("db", "./roadweld_db", "badger directory for the graph snapshot")
	consolidateAll = flag.Bool("consolidateall", false, "run the experimental distance heuristic on every road")
	signalClusters = flag.Bool("signalclusters", false, "flag short roads between clustered traffic signals")
	dogLegs        = flag.Bool("dogleg", false, "flag short roads forming spurious four-way intersections")
	overrideFile   = flag.String("overrides", "", "merge override file (default merge_osm_ways.json)")
	cpuprofile     = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile     = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("reading osm file %s", *mapFile)
	parser := osmparser.NewOsmParser()
	graph, err := parser.Parse(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "parsing_osm_data")

	flagged, err := shortroads.FindShortRoads(graph, shortroads.Options{
		ConsolidateAll: *consolidateAll,
		SignalClusters: *signalClusters,
		DogLegs:        *dogLegs,
		OverridePath:   *overrideFile,
	})
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "classify_short_roads")

	db, err := badger.Open(badger.DefaultOptions(*dbDir))
	if err != nil {
		log.Fatal(err)
	}
	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := kvDB.SaveGraph(ctx, graph); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\n%d roads marked for merging, snapshot saved to %s\n", len(flagged), *dbDir)
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
