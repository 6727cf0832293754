package stats

import (
	"context"

	"backend-waylog/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Overview aggregates a user's lifetime tracking figures for the stats screen.
type Overview struct {
	TotalTrips      int     `json:"total_trips"`
	PlannedTrips    int     `json:"planned_trips"`
	InProgressTrips int     `json:"in_progress_trips"`
	CompletedTrips  int     `json:"completed_trips"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTrackedMs  int64   `json:"total_tracked_ms"`
	LongestTripKm   float64 `json:"longest_trip_km"`
	SessionCount    int     `json:"session_count"`
}

// TypeBreakdown is the per-trip-type slice of the overview.
type TypeBreakdown struct {
	Type       string  `json:"trip_type"`
	Trips      int     `json:"trips"`
	DistanceKm float64 `json:"distance_km"`
}

func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	var o Overview
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status='planned'),
		       COUNT(*) FILTER (WHERE status='in_progress'),
		       COUNT(*) FILTER (WHERE status='completed'),
		       COALESCE(SUM(total_distance_km),0),
		       COALESCE(SUM(total_tracking_duration_ms),0),
		       COALESCE(MAX(total_distance_km),0)
		FROM trips WHERE user_id=$1
	`, userID)
	if err := row.Scan(&o.TotalTrips, &o.PlannedTrips, &o.InProgressTrips, &o.CompletedTrips,
		&o.TotalDistanceKm, &o.TotalTrackedMs, &o.LongestTripKm); err != nil {
		return Overview{}, err
	}

	row = s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM track_sessions ts
		JOIN trips t ON t.id = ts.trip_id
		WHERE t.user_id=$1
	`, userID)
	if err := row.Scan(&o.SessionCount); err != nil {
		return Overview{}, err
	}
	return o, nil
}

func (s *Service) ByType(ctx context.Context, userID string) ([]TypeBreakdown, error) {
	rows, err := s.db.Query(ctx, `
		SELECT trip_type, COUNT(*), COALESCE(SUM(total_distance_km),0)
		FROM trips WHERE user_id=$1
		GROUP BY trip_type
		ORDER BY trip_type
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breakdown []TypeBreakdown
	for rows.Next() {
		var b TypeBreakdown
		if err := rows.Scan(&b.Type, &b.Trips, &b.DistanceKm); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, b)
	}
	return breakdown, nil
}
