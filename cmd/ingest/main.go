package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/yourorg/doctor-finder/airtable"
	"github.com/yourorg/doctor-finder/internal/env"
	"github.com/yourorg/doctor-finder/internal/events"
	"github.com/yourorg/doctor-finder/internal/ingest"
	"github.com/yourorg/doctor-finder/internal/logger"
	"github.com/yourorg/doctor-finder/internal/store"
)

func main() {
	_ = godotenv.Load()
	logger.Setup("doctor-finder-ingest")

	token := env.Must("AIRTABLE_API_KEY")
	dsn := env.Must("PG_DSN")
	baseID := env.Get("AIRTABLE_BASE_ID", "appR8sQwaCx42Z6GP")
	table := env.Get("AIRTABLE_TABLE_NAME", "Eon Doctors Database")

	interval := parseDuration(os.Getenv("INGEST_INTERVAL"), 6*time.Hour)
	requestTimeout := parseDuration(os.Getenv("INGEST_REQUEST_TIMEOUT"), 30*time.Second)
	runOnce := os.Getenv("INGEST_RUN_ONCE") == "true"

	client := airtable.NewClient(token, baseID, table)

	st, err := store.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("store open error")
	}
	defer st.DB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.Ping(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("postgres ping error")
	}
	if err := st.Migrate(ctx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("postgres migrate error")
	}
	cancel()

	pub := events.NewInMemory(256)

	job := &ingest.BulkJob{
		Client: client,
		Store:  st,
		Pub:    pub,
		Logger: log.Logger,
		Config: ingest.BulkConfig{
			Interval:       interval,
			RequestTimeout: requestTimeout,
		},
	}
	if runOnce {
		job.Config.Interval = 0
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go ingest.RunEventLog(runCtx, pub, log.Logger)

	if err := job.Run(runCtx); err != nil {
		log.Fatal().Err(err).Msg("ingest job failed")
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
