package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yourorg/doctor-finder/internal/doctor"
)

type Store struct {
	DB *sql.DB
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS doctors (
			source_id     TEXT PRIMARY KEY,
			display_name  TEXT NOT NULL,
			sort_key      TEXT NOT NULL,
			lat           DOUBLE PRECISION NOT NULL,
			lng           DOUBLE PRECISION NOT NULL,
			city          TEXT NOT NULL,
			country       TEXT NOT NULL,
			clinic_name   TEXT,
			profile_slug  TEXT,
			photo_ref     TEXT,
			position      INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_doctors_country_city ON doctors(country, city);`,
		`CREATE TABLE IF NOT EXISTS provider_raw_snapshots (
			id             BIGSERIAL PRIMARY KEY,
			provider       TEXT NOT NULL,
			endpoint       TEXT NOT NULL,
			payload        JSONB NOT NULL,
			fetched_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			payload_sha256 TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_provider ON provider_raw_snapshots(provider, endpoint, fetched_at DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// UpsertDoctors writes one fetched batch and its raw payload snapshot in a
// single transaction. Position preserves the source order the engine relies on.
func (s *Store) UpsertDoctors(ctx context.Context, provider, endpoint string, docs []doctor.Doctor, payload []byte) error {
	if s == nil || s.DB == nil {
		return errors.New("nil db")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, d := range docs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO doctors (source_id, display_name, sort_key, lat, lng, city, country, clinic_name, profile_slug, photo_ref, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (source_id)
			DO UPDATE SET display_name=EXCLUDED.display_name, sort_key=EXCLUDED.sort_key, lat=EXCLUDED.lat, lng=EXCLUDED.lng,
				city=EXCLUDED.city, country=EXCLUDED.country, clinic_name=EXCLUDED.clinic_name,
				profile_slug=EXCLUDED.profile_slug, photo_ref=EXCLUDED.photo_ref, position=EXCLUDED.position, updated_at=now()`,
			d.ID, d.DisplayName, d.SortKey, d.Latitude, d.Longitude, d.City, d.Country,
			nullStr(d.ClinicName), nullStr(d.ProfileSlug), nullStr(d.PhotoRef), i,
		); err != nil {
			return err
		}
	}

	if len(payload) > 0 {
		sum := sha256.Sum256(payload)
		sha := hex.EncodeToString(sum[:])
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO provider_raw_snapshots (provider, endpoint, payload, payload_sha256)
			VALUES ($1,$2,$3,$4)
		`, provider, endpoint, string(payload), sha); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

// FetchDoctors returns every persisted doctor in source order; the proxy
// serves these when the upstream table is unreachable.
func (s *Store) FetchDoctors(ctx context.Context) ([]doctor.Doctor, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT source_id, display_name, sort_key, lat, lng, city, country,
			   COALESCE(clinic_name, ''), COALESCE(profile_slug, ''), COALESCE(photo_ref, '')
		FROM doctors ORDER BY position, source_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []doctor.Doctor
	for rows.Next() {
		var d doctor.Doctor
		if err := rows.Scan(&d.ID, &d.DisplayName, &d.SortKey, &d.Latitude, &d.Longitude,
			&d.City, &d.Country, &d.ClinicName, &d.ProfileSlug, &d.PhotoRef); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
