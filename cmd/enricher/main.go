package main

import (
	"context"
	"database/sql"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"estate_reviews/internal/adapters/observability"
	"estate_reviews/internal/adapters/overpass"
	"estate_reviews/internal/app"
	"estate_reviews/internal/domain"
	"estate_reviews/internal/places"
	"estate_reviews/internal/shared"
	mysqlrepo "estate_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	in := flag.String("in", "", "base CSV with county and town columns (required)")
	out := flag.String("out", "-", "output CSV path, - for stdout")
	fetch := flag.Bool("fetch", false, "query the Overpass API for estates in every town")
	toDB := flag.Bool("db", false, "also upsert the rows into the places table (MYSQL_DSN)")
	workers := flag.Int("workers", cfg.EnrichWorkers, "concurrent Overpass queries")
	rps := flag.Float64("rps", cfg.EnrichRPS, "Overpass requests per second")
	flag.Parse()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("in", *in).
		Bool("fetch", *fetch).
		Int("workers", *workers).
		Float64("rps", *rps).
		Msg("enricher starting")

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("open base CSV failed")
	}
	rows, err := places.ReadCSVRows(f, places.DefaultSchema)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", *in).Msg("read base CSV failed")
	}

	var osm domain.OverpassClient
	if *fetch {
		osm = overpass.New(cfg.OverpassURL, *rps)
	}
	ps, rep, err := app.NewEnrichmentService(osm, *workers).Run(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("enrichment aborted")
	}

	if err := writeOut(*out, ps); err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("write output failed")
	}

	if *toDB {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		if err := mysqlrepo.New(db).UpsertPlaces(ctx, ps); err != nil {
			log.Fatal().Err(err).Msg("upsert places failed")
		}
		log.Info().Int("rows", len(ps)).Msg("places table updated")
	}

	log.Info().
		Int("towns", rep.Towns).
		Int("queried", rep.Queried).
		Int("failed", rep.Failed).
		Int("added", rep.Added).
		Int("rows", len(ps)).
		Msg("enrichment completed")
}

func writeOut(path string, ps []domain.Place) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return app.WritePlacesCSV(w, ps)
}
