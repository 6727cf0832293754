package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-waylog/internal/db"

	"github.com/google/uuid"
)

// ErrInvalidPlan marks a validation failure on trip input so handlers can
// answer 400 instead of treating it as a storage error.
var ErrInvalidPlan = errors.New("invalid trip plan")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) CreateTrip(ctx context.Context, input Trip) (Trip, error) {
	if input.Destination == "" {
		return Trip{}, fmt.Errorf("%w: destination required", ErrInvalidPlan)
	}
	if !validType(input.Type) {
		return Trip{}, fmt.Errorf("%w: trip_type must be local, day or multi_day", ErrInvalidPlan)
	}
	if input.EndDate.Before(input.StartDate) {
		return Trip{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidPlan)
	}

	input.ID = uuid.NewString()
	input.Status = StatusPlanned
	input.Completed = false

	row := s.db.QueryRow(ctx, `
		INSERT INTO trips (id, user_id, destination, trip_type, start_date, end_date, status, dest_lat, dest_lng)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at
	`, input.ID, input.UserID, input.Destination, input.Type, input.StartDate, input.EndDate, input.Status, input.DestLat, input.DestLng)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Trip{}, err
	}
	return input, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, destination, trip_type, start_date, end_date,
		       actual_start_date, actual_end_date,
		       COALESCE(total_distance_km,0), COALESCE(total_tracking_duration_ms,0),
		       status, is_completed, COALESCE(dest_lat,0), COALESCE(dest_lng,0), created_at
		FROM trips WHERE id=$1
	`, id)
	return scanTrip(row)
}

// UpdatePlan patches the user-editable planning fields. Tracking-derived
// fields (actual dates, totals, status) are deliberately not touchable here;
// only SaveTrackingResult writes those.
func (s *Service) UpdatePlan(ctx context.Context, id string, patch Trip) (Trip, error) {
	t, err := s.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if patch.Destination != "" {
		t.Destination = patch.Destination
	}
	if patch.Type != "" {
		if !validType(patch.Type) {
			return Trip{}, fmt.Errorf("%w: trip_type must be local, day or multi_day", ErrInvalidPlan)
		}
		t.Type = patch.Type
	}
	if !patch.StartDate.IsZero() {
		t.StartDate = patch.StartDate
	}
	if !patch.EndDate.IsZero() {
		t.EndDate = patch.EndDate
	}
	if patch.DestLat != 0 {
		t.DestLat = patch.DestLat
	}
	if patch.DestLng != 0 {
		t.DestLng = patch.DestLng
	}
	if t.EndDate.Before(t.StartDate) {
		return Trip{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidPlan)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE trips
		SET destination=$2, trip_type=$3, start_date=$4, end_date=$5, dest_lat=$6, dest_lng=$7
		WHERE id=$1
	`, t.ID, t.Destination, t.Type, t.StartDate, t.EndDate, t.DestLat, t.DestLng)
	if err != nil {
		return Trip{}, err
	}
	return t, nil
}

// SaveTrackingResult persists the reconciled tracking fields of a trip. It is
// the single write path for actual dates, cumulative totals and
// tracking-driven status.
func (s *Service) SaveTrackingResult(ctx context.Context, t Trip) error {
	_, err := s.db.Exec(ctx, `
		UPDATE trips
		SET actual_start_date=$2, actual_end_date=$3,
		    total_distance_km=$4, total_tracking_duration_ms=$5,
		    status=$6, is_completed=$7
		WHERE id=$1
	`, t.ID, t.ActualStartDate, t.ActualEndDate, t.DistanceKm, t.TrackedMs, t.Status, t.Completed)
	return err
}

func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	return err
}

func (s *Service) ListTrips(ctx context.Context, userID string) ([]Trip, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, destination, trip_type, start_date, end_date,
		       actual_start_date, actual_end_date,
		       COALESCE(total_distance_km,0), COALESCE(total_tracking_duration_ms,0),
		       status, is_completed, COALESCE(dest_lat,0), COALESCE(dest_lng,0), created_at
		FROM trips WHERE user_id=$1
		ORDER BY start_date
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

// Grouped is a user's trips bucketed by temporal relevance, in the order the
// selection screen renders them.
type Grouped struct {
	Active   []Trip `json:"active"`
	Upcoming []Trip `json:"upcoming"`
	Recent   []Trip `json:"recent"`
	Future   []Trip `json:"future"`
	Past     []Trip `json:"past"`
}

func (s *Service) ListGrouped(ctx context.Context, userID string, now time.Time) (Grouped, error) {
	trips, err := s.ListTrips(ctx, userID)
	if err != nil {
		return Grouped{}, err
	}

	var g Grouped
	for _, t := range trips {
		switch Classify(t, now) {
		case RelevanceActive:
			g.Active = append(g.Active, t)
		case RelevanceUpcoming:
			g.Upcoming = append(g.Upcoming, t)
		case RelevanceRecent:
			g.Recent = append(g.Recent, t)
		case RelevanceFuture:
			g.Future = append(g.Future, t)
		case RelevancePast:
			g.Past = append(g.Past, t)
		}
	}
	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (Trip, error) {
	var t Trip
	if err := row.Scan(&t.ID, &t.UserID, &t.Destination, &t.Type, &t.StartDate, &t.EndDate,
		&t.ActualStartDate, &t.ActualEndDate, &t.DistanceKm, &t.TrackedMs,
		&t.Status, &t.Completed, &t.DestLat, &t.DestLng, &t.CreatedAt); err != nil {
		return Trip{}, err
	}
	return t, nil
}
