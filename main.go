package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/yourorg/doctor-finder/airtable"
	httpapi "github.com/yourorg/doctor-finder/http"
	"github.com/yourorg/doctor-finder/internal/env"
	"github.com/yourorg/doctor-finder/internal/events"
	"github.com/yourorg/doctor-finder/internal/geocode"
	"github.com/yourorg/doctor-finder/internal/logger"
	"github.com/yourorg/doctor-finder/internal/redisx"
	"github.com/yourorg/doctor-finder/internal/refresh"
	"github.com/yourorg/doctor-finder/internal/store"
)

func main() {
	_ = godotenv.Load()
	logger.Setup("doctor-finder")

	port := env.GetInt("PORT", 4002)
	token := env.Must("AIRTABLE_API_KEY")
	baseID := env.Get("AIRTABLE_BASE_ID", "appR8sQwaCx42Z6GP")
	table := env.Get("AIRTABLE_TABLE_NAME", "Eon Doctors Database")

	airtableClient := airtable.NewClient(token, baseID, table)

	var rdb *redisx.Client
	if addr := env.Get("REDIS_ADDR", ""); addr != "" {
		rdb = redisx.New(addr, env.Get("REDIS_PASSWORD", ""), env.GetInt("REDIS_DB", 0))
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, running without payload cache")
			rdb = nil
		}
		cancel()
	}

	var st *store.Store
	if dsn := env.Get("PG_DSN", ""); dsn != "" {
		var err error
		st, err = store.Open(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("store open error")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := st.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping error")
		}
		if err := st.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres migrate error")
		}
		cancel()
	}

	var resolver *geocode.Resolver
	if mapsKey := env.Get("GOOGLE_MAPS_API_KEY", ""); mapsKey != "" {
		geoClient := geocode.NewGoogleClient(mapsKey, env.Get("UI_LANG", "en"))
		resolver = geocode.NewResolver(geoClient, geocode.Options{
			RPS:   float64(env.GetInt("GEOCODE_RPS", 10)),
			Burst: env.GetInt("GEOCODE_BURST", 2),
			Redis: rdb,
		})
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY unset, /geocode/reverse disabled")
	}

	pub := events.NewInMemory(256)

	deps := httpapi.DoctorsDeps{
		Airtable:   airtableClient,
		Redis:      rdb,
		Store:      st,
		Pub:        pub,
		CacheTTL:   time.Duration(env.GetInt("DOCTORS_CACHE_TTL_SECONDS", 3600)) * time.Second,
		StaleAfter: time.Duration(env.GetInt("DOCTORS_STALE_AFTER_SECONDS", 300)) * time.Second,
	}

	refresher := refresh.New(64, 1, func(ctx context.Context, j refresh.Job) {
		if err := httpapi.RefreshDoctors(ctx, deps); err != nil {
			log.Warn().Err(err).Str("key", j.CacheKey).Msg("background refresh failed")
		}
	})
	deps.Refetch = func(cacheKey string) { refresher.Enqueue(refresh.Job{CacheKey: cacheKey}) }

	router := BuildRouter(deps, httpapi.GeocodeDeps{Resolver: resolver})

	log.Info().Int("port", port).Msg("doctor-finder listening")
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), logger.Middleware(router)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
