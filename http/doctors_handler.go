package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/yourorg/doctor-finder/airtable"
	"github.com/yourorg/doctor-finder/internal/doctor"
	"github.com/yourorg/doctor-finder/internal/events"
	"github.com/yourorg/doctor-finder/internal/redisx"
	"github.com/yourorg/doctor-finder/internal/store"
)

// DoctorsCacheKey is the redis key holding the concatenated doctors payload.
const DoctorsCacheKey = "doctors:payload"

type DoctorsDeps struct {
	Airtable *airtable.Client
	Redis    *redisx.Client
	Store    *store.Store
	Pub      events.Publisher
	Refetch  func(cacheKey string) // fire-and-forget background refresh
	// TTL and staleness tuning
	CacheTTL   time.Duration
	StaleAfter time.Duration
}

type cachedEnvelope struct {
	Records []airtable.Record `json:"records"`
	Meta    struct {
		LastFetch  time.Time `json:"last_fetch_at"`
		StaleAfter time.Time `json:"stale_after"`
		TTLSeconds int       `json:"ttl_seconds"`
	} `json:"meta"`
}

func RegisterDoctors(r chi.Router, d DoctorsDeps) {
	r.Get("/doctors", func(w http.ResponseWriter, req *http.Request) {
		handleDoctors(w, req, d)
	})
	// Operational trigger: force a refetch of the doctors payload.
	r.Post("/internal/refresh", func(w http.ResponseWriter, req *http.Request) {
		if d.Refetch == nil {
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "server_configuration"})
			return
		}
		d.Refetch(DoctorsCacheKey)
		render.Status(req, http.StatusAccepted)
		render.JSON(w, req, map[string]any{"ok": true, "enqueued": DoctorsCacheKey})
	})
}

func handleDoctors(w http.ResponseWriter, req *http.Request, d DoctorsDeps) {
	if d.Airtable == nil {
		render.Status(req, http.StatusInternalServerError)
		render.JSON(w, req, map[string]any{"error": "server_configuration"})
		return
	}
	ctx := req.Context()

	if d.Redis != nil {
		if val, err := d.Redis.Get(ctx, DoctorsCacheKey); err == nil && val != "" {
			var env cachedEnvelope
			if err := json.Unmarshal([]byte(val), &env); err == nil {
				stale := time.Now().After(env.Meta.StaleAfter)
				if stale && d.Refetch != nil {
					d.Refetch(DoctorsCacheKey)
				}
				writeRecords(w, req, env.Records, "cache", stale)
				return
			}
		}
	}

	records, err := d.Airtable.ListAll(ctx)
	if err != nil {
		if errors.Is(err, airtable.ErrRateLimited) {
			render.Status(req, http.StatusTooManyRequests)
			render.JSON(w, req, map[string]any{"error": "rate_limited_by_upstream"})
			return
		}
		// Upstream down: the persisted copy still serves a usable list.
		if d.Store != nil {
			docs, dbErr := d.Store.FetchDoctors(ctx)
			if dbErr == nil && len(docs) > 0 {
				log.Info().Int("count", len(docs)).Msg("serving doctors from database fallback")
				w.Header().Set("Cache-Control", "public, max-age=60")
				render.JSON(w, req, map[string]any{"ok": true, "count": len(docs), "source": "database", "doctors": docs})
				return
			}
			if dbErr != nil {
				log.Warn().Err(dbErr).Msg("db fallback lookup failed")
			}
		}
		render.Status(req, http.StatusInternalServerError)
		render.JSON(w, req, map[string]any{"error": "failed_to_fetch_doctor_data", "detail": err.Error()})
		return
	}

	cacheRecords(ctx, d, records)
	persistRecords(ctx, d, records)
	writeRecords(w, req, records, "fresh", false)
}

func writeRecords(w http.ResponseWriter, req *http.Request, records []airtable.Record, source string, stale bool) {
	// Short public cache so the widget survives hard refreshes cheaply.
	w.Header().Set("Cache-Control", "public, max-age=300")
	render.JSON(w, req, map[string]any{
		"ok":      true,
		"count":   len(records),
		"source":  source,
		"stale":   stale,
		"records": records,
	})
}

func cacheRecords(ctx context.Context, d DoctorsDeps, records []airtable.Record) {
	if d.Redis == nil {
		return
	}
	env := cachedEnvelope{Records: records}
	env.Meta.LastFetch = time.Now()
	env.Meta.StaleAfter = env.Meta.LastFetch.Add(maxDur(d.StaleAfter, 5*time.Minute))
	env.Meta.TTLSeconds = int(maxDur(d.CacheTTL, time.Hour).Seconds())
	b, _ := json.Marshal(env)
	if err := d.Redis.Set(ctx, DoctorsCacheKey, string(b), time.Duration(env.Meta.TTLSeconds)*time.Second); err != nil {
		log.Warn().Err(err).Msg("unable to cache doctors payload")
	}
}

// persistRecords is the write-behind path: normalized doctors plus the raw
// payload land in postgres so the proxy has something to serve when the
// upstream is unreachable.
func persistRecords(ctx context.Context, d DoctorsDeps, records []airtable.Record) {
	if d.Store == nil || len(records) == 0 {
		return
	}
	docs := make([]doctor.Doctor, 0, len(records))
	for _, rec := range records {
		if doc, ok := doctor.Normalize(rec); ok {
			docs = append(docs, doc)
		}
	}
	payload, _ := json.Marshal(records)
	if err := d.Store.UpsertDoctors(ctx, "airtable", "doctors", docs, payload); err != nil {
		log.Warn().Err(err).Msg("unable to persist doctors")
		return
	}
	if d.Pub != nil {
		d.Pub.PublishDoctorsUpdated(ctx, events.DoctorsUpdated{Source: "proxy", Count: len(docs)})
	}
}

// RefreshDoctors refetches the table and rewrites cache and store. Used by
// the background refresher when a cached payload goes stale.
func RefreshDoctors(ctx context.Context, d DoctorsDeps) error {
	if d.Airtable == nil {
		return fmt.Errorf("no airtable client")
	}
	records, err := d.Airtable.ListAll(ctx)
	if err != nil {
		return err
	}
	cacheRecords(ctx, d, records)
	persistRecords(ctx, d, records)
	return nil
}

func maxDur(a, b time.Duration) time.Duration {
	if a > 0 {
		return a
	}
	return b
}
