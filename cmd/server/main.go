package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/mapfold/roadweld/pkg/kv"
	"github.com/mapfold/roadweld/pkg/server/rest"
	"github.com/mapfold/roadweld/pkg/server/rest/service"
	"github.com/mapfold/roadweld/pkg/snap"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	dbDir      = flag.String("db", "./roadweld_db", "badger directory with the graph snapshot")
)

func main() {
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbDir))
	if err != nil {
		log.Fatal(err)
	}
	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	graph, err := kvDB.LoadGraph(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	snapper := snap.NewRoadSnapper()
	snapper.Build(graph)

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	svc := service.NewShortRoadService(graph, snapper)
	rest.ShortRoadRouter(r, svc)

	log.Printf("short-road audit server listening at %s", *listenAddr)
	if err := http.ListenAndServe(*listenAddr, r); err != nil {
		log.Fatal(err)
	}
}
