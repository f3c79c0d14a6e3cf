package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// Storage persists processed session records in PostgreSQL with a pgvector
// exposure profile for similar-session lookup.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new results storage instance.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// StoredResult is a persisted results record together with its storage
// identity.
type StoredResult struct {
	ID        uuid.UUID
	Result    *session.Results
	Profile   pgvector.Vector
	CreatedAt time.Time
}

// EnsureSchema creates the results table and vector index when missing.
// Requires the pgvector extension.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS circadian_results (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			stopped_at TIMESTAMPTZ NOT NULL,
			duration_hours DOUBLE PRECISION NOT NULL,
			total_dose DOUBLE PRECISION NOT NULL,
			msi DOUBLE PRECISION NOT NULL,
			phase_shift_hours DOUBLE PRECISION NOT NULL,
			average_cs DOUBLE PRECISION NOT NULL,
			peak_cs DOUBLE PRECISION NOT NULL,
			average_melanopic_lux DOUBLE PRECISION NOT NULL,
			light_type TEXT NOT NULL,
			exposure_profile vector(24) NOT NULL,
			meta JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS circadian_results_session_idx ON circadian_results (session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure results schema: %w", err)
		}
	}
	return nil
}

// SaveResult stores a processed session record and returns its storage ID.
func (s *Storage) SaveResult(ctx context.Context, r *session.Results) (uuid.UUID, error) {
	id := uuid.New()

	metaJSON, err := json.Marshal(r.Meta)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal meta: %w", err)
	}

	query := `
		INSERT INTO circadian_results (
			id, session_id, started_at, stopped_at, duration_hours,
			total_dose, msi, phase_shift_hours, average_cs, peak_cs,
			average_melanopic_lux, light_type, exposure_profile, meta, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = s.db.ExecContext(ctx, query,
		id,
		r.SessionID,
		r.StartedAt,
		r.StoppedAt,
		r.DurationHours,
		r.TotalDose,
		r.MSI,
		r.PhaseShiftHours,
		r.AverageCS,
		r.PeakCS,
		r.AverageMelanopicLux,
		r.LightType,
		ExposureProfile(r),
		metaJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert result: %w", err)
	}

	return id, nil
}

// GetBySession retrieves the most recent stored record for a session.
func (s *Storage) GetBySession(ctx context.Context, sessionID string) (*StoredResult, error) {
	query := `
		SELECT id, session_id, started_at, stopped_at, duration_hours,
			total_dose, msi, phase_shift_hours, average_cs, peak_cs,
			average_melanopic_lux, light_type, exposure_profile, meta, created_at
		FROM circadian_results
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	stored, err := scanResult(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no result stored for session %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query result for session %s: %w", sessionID, err)
	}
	return stored, nil
}

// FindSimilarSessions returns up to limit stored records ordered by cosine
// distance of their exposure profiles to the given one, most similar first.
func (s *Storage) FindSimilarSessions(ctx context.Context, profile pgvector.Vector, limit int) ([]*StoredResult, error) {
	query := `
		SELECT id, session_id, started_at, stopped_at, duration_hours,
			total_dose, msi, phase_shift_hours, average_cs, peak_cs,
			average_melanopic_lux, light_type, exposure_profile, meta, created_at
		FROM circadian_results
		ORDER BY exposure_profile <=> $1
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, profile, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar sessions: %w", err)
	}
	defer rows.Close()

	var results []*StoredResult
	for rows.Next() {
		stored, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, stored)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}

	return results, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanner) (*StoredResult, error) {
	var stored StoredResult
	var result session.Results
	var metaJSON []byte

	err := row.Scan(
		&stored.ID,
		&result.SessionID,
		&result.StartedAt,
		&result.StoppedAt,
		&result.DurationHours,
		&result.TotalDose,
		&result.MSI,
		&result.PhaseShiftHours,
		&result.AverageCS,
		&result.PeakCS,
		&result.AverageMelanopicLux,
		&result.LightType,
		&stored.Profile,
		&metaJSON,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &result.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
		}
	}

	stored.Result = &result
	return &stored, nil
}
