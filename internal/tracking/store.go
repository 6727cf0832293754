package tracking

import (
	"context"
	"time"

	"backend-waylog/internal/db"

	"github.com/google/uuid"
)

// Record is one archived tracking session, persisted on completion for the
// history and stats screens.
type Record struct {
	ID         string    `json:"id"`
	TripID     string    `json:"trip_id"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DistanceKm float64   `json:"distance_km"`
	DurationMs int64     `json:"duration_ms"`
	PointCount int       `json:"point_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type Store struct {
	db db.Querier
}

func NewStore(db db.Querier) *Store {
	return &Store{db: db}
}

func (s *Store) ArchiveSession(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO track_sessions (id, trip_id, started_at, ended_at, distance_km, duration_ms, point_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rec.ID, rec.TripID, rec.StartedAt, rec.EndedAt, rec.DistanceKm, rec.DurationMs, rec.PointCount)
	return err
}

func (s *Store) Sessions(ctx context.Context, tripID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, started_at, ended_at, distance_km, duration_ms, point_count, created_at
		FROM track_sessions WHERE trip_id=$1
		ORDER BY started_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.TripID, &r.StartedAt, &r.EndedAt, &r.DistanceKm, &r.DurationMs, &r.PointCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
