package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"tripease/config"
	"tripease/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ─── Models ──────────────────────────────────────────────────────────────────

// Search is one aggregation served at the boundary.
type Search struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Subject         string    `json:"subject"`
	ResultLimit     int       `json:"result_limit"`
	ResultCount     int       `json:"result_count"`
	UsedFallback    bool      `json:"used_fallback"`
	Cached          bool      `json:"cached"`
	PartialFailures []string  `json:"partial_failures"`
	CreatedAt       time.Time `json:"created_at"`
}

type Itinerary struct {
	ID             string    `json:"id"`
	Destination    string    `json:"destination"`
	Days           int       `json:"days"`
	Travelers      int       `json:"travelers"`
	TravelerName   string    `json:"traveler_name"`
	Text           string    `json:"text"`
	Source         string    `json:"source"`
	ActivitiesJSON string    `json:"activities_json"`
	ImagesJSON     string    `json:"images_json"`
	PDFData        []byte    `json:"pdf_data,omitempty"` // stored in DB, no filesystem needed
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists searches and itineraries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects, waits for the server and migrates.
func Open(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// managed Postgres can take a moment to accept connections
	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Warn("Waiting for database", map[string]interface{}{
			"attempt": i + 1,
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database after retries: %w", err)
	}

	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Database connected and migrated", nil)
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS searches (
		id               TEXT PRIMARY KEY,
		kind             TEXT NOT NULL,
		subject          TEXT NOT NULL,
		result_limit     INTEGER NOT NULL,
		result_count     INTEGER NOT NULL,
		used_fallback    BOOLEAN NOT NULL DEFAULT FALSE,
		cached           BOOLEAN NOT NULL DEFAULT FALSE,
		partial_failures TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS itineraries (
		id              TEXT PRIMARY KEY,
		destination     TEXT NOT NULL,
		days            INTEGER NOT NULL,
		travelers       INTEGER NOT NULL DEFAULT 1,
		traveler_name   TEXT,
		itinerary_text  TEXT,
		source          TEXT NOT NULL,
		activities_json TEXT,
		images_json     TEXT,
		pdf_data        BYTEA,
		created_at      TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_searches_kind_created_at
		ON searches(kind, created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_itineraries_created_at
		ON itineraries(created_at DESC)`,
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

func (s *Store) SaveSearch(ctx context.Context, sr *Search) error {
	failures := sr.PartialFailures
	if failures == nil {
		failures = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (id, kind, subject, result_limit, result_count, used_fallback, cached, partial_failures)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sr.ID, sr.Kind, sr.Subject, sr.ResultLimit, sr.ResultCount, sr.UsedFallback, sr.Cached, pq.Array(failures))
	if err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

func (s *Store) SaveItinerary(ctx context.Context, i *Itinerary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO itineraries (id, destination, days, travelers, traveler_name, itinerary_text, source,
			activities_json, images_json, pdf_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		i.ID, i.Destination, i.Days, i.Travelers, i.TravelerName, i.Text, i.Source,
		i.ActivitiesJSON, i.ImagesJSON, i.PDFData)
	if err != nil {
		return fmt.Errorf("save itinerary: %w", err)
	}
	return nil
}

func (s *Store) UpdateItineraryPDF(ctx context.Context, id string, pdfData []byte) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE itineraries SET pdf_data = $1 WHERE id = $2`,
		pdfData, id)
	if err != nil {
		return fmt.Errorf("update itinerary pdf: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetItinerary(ctx context.Context, id string) (*Itinerary, error) {
	i := &Itinerary{}
	var travelerName, text, activities, images sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, destination, days, travelers, traveler_name, itinerary_text, source,
			activities_json, images_json, pdf_data, created_at
		FROM itineraries WHERE id = $1`, id).
		Scan(&i.ID, &i.Destination, &i.Days, &i.Travelers, &travelerName, &text, &i.Source,
			&activities, &images, &i.PDFData, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	i.TravelerName = travelerName.String
	i.Text = text.String
	i.ActivitiesJSON = activities.String
	i.ImagesJSON = images.String
	return i, nil
}
