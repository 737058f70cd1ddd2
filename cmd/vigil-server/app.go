package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"vigil-backend/internal/components/chrono"
	"vigil-backend/internal/components/telemetry"
	"vigil-backend/internal/db"
	"vigil-backend/internal/httpapi"
	"vigil-backend/internal/profiles"
	"vigil-backend/internal/shortcode"
	"vigil-backend/lib/restyutil"
)

type App struct {
	database *sql.DB
	time     chrono.API
	tel      telemetry.API
	profiles *profiles.Service
	router   http.Handler
}

func InitApp(ctx context.Context, cfg Config, verbose bool) (App, error) {
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return App{}, fmt.Errorf("load timezone: %w", err)
	}

	database, err := cfg.Database.OpenDB(db.Schema)
	if err != nil {
		return App{}, err
	}

	tel := telemetry.SlogAPI{}

	var dump restyutil.InstrumentOutput
	if verbose {
		output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/github")
		if err != nil {
			database.Close()
			return App{}, err
		}
		dump = output
	}

	service := profiles.NewService(
		database,
		cfg.Scraper.NewScraper(tel, dump),
		shortcode.NewGenerator(shortcode.CryptoSource{}),
		clock,
		tel,
		profiles.Options{},
	)

	return App{
		database: database,
		time:     clock,
		tel:      tel,
		profiles: service,
		router:   httpapi.NewRouter(service, httpapi.Options{PublicBaseUrl: cfg.PublicBaseUrl}),
	}, nil
}
