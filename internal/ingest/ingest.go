package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourorg/doctor-finder/airtable"
	"github.com/yourorg/doctor-finder/internal/doctor"
	"github.com/yourorg/doctor-finder/internal/events"
	"github.com/yourorg/doctor-finder/internal/store"
)

type BulkConfig struct {
	Interval       time.Duration
	RequestTimeout time.Duration
	Provider       string
	Endpoint       string
}

// BulkJob periodically pulls the whole doctors table, normalizes it and
// persists the valid records plus the raw payload snapshot.
type BulkJob struct {
	Client *airtable.Client
	Store  *store.Store
	Pub    events.Publisher
	Logger zerolog.Logger
	Config BulkConfig
}

func (j *BulkJob) validate() error {
	if j == nil {
		return errors.New("nil bulk job")
	}
	if j.Client == nil {
		return errors.New("ingest bulk job missing client")
	}
	if j.Store == nil {
		return errors.New("ingest bulk job missing store")
	}
	if j.Config.Provider == "" {
		j.Config.Provider = "airtable"
	}
	if j.Config.Endpoint == "" {
		j.Config.Endpoint = "doctors"
	}
	if j.Config.RequestTimeout <= 0 {
		j.Config.RequestTimeout = 30 * time.Second
	}
	return nil
}

func (j *BulkJob) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		return j.RunOnce(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.Logger.Info().Dur("interval", interval).Msg("ingest bulk job starting")
	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.Logger.Warn().Err(err).Msg("ingest initial run error")
	}
	for {
		select {
		case <-ctx.Done():
			j.Logger.Info().Err(ctx.Err()).Msg("ingest bulk job stopping")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.Logger.Warn().Err(err).Msg("ingest iteration error")
			}
		}
	}
}

func (j *BulkJob) RunOnce(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, j.Config.RequestTimeout)
	defer cancel()

	records, err := j.Client.ListAll(reqCtx)
	if err != nil {
		if errors.Is(err, airtable.ErrRateLimited) {
			j.Logger.Warn().Msg("ingest rate limited by upstream, skipping cycle")
		}
		return err
	}

	docs := make([]doctor.Doctor, 0, len(records))
	dropped := 0
	for _, rec := range records {
		d, ok := doctor.Normalize(rec)
		if !ok {
			dropped++
			continue
		}
		docs = append(docs, d)
	}

	payload, _ := json.Marshal(records)
	if err := j.Store.UpsertDoctors(ctx, j.Config.Provider, j.Config.Endpoint, docs, payload); err != nil {
		return err
	}
	if j.Pub != nil {
		j.Pub.PublishDoctorsUpdated(ctx, events.DoctorsUpdated{Source: j.Config.Provider, Count: len(docs)})
	}
	j.Logger.Info().Int("doctors", len(docs)).Int("dropped", dropped).Msg("ingest cycle complete")
	return nil
}

// RunEventLog drains doctor.updated events, logging each batch. It returns
// when ctx is done.
func RunEventLog(ctx context.Context, pub events.Publisher, log zerolog.Logger) {
	sub := pub.SubscribeDoctorsUpdated()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub:
			log.Info().Str("source", evt.Source).Int("count", evt.Count).Msg("doctors updated")
		}
	}
}
