package tracking

import (
	"time"

	"backend-waylog/internal/trip"
)

// Summary carries one reconciliation slice of a session: the tracking time
// and distance accumulated since the previous reconciliation point, never the
// session's lifetime totals. Summing slices keeps the trip's cumulative
// fields monotonic across any number of pause/resume cycles.
type Summary struct {
	TripID     string    `json:"trip_id"`
	DurationMs int64     `json:"duration_ms"`
	DistanceKm float64   `json:"distance_km"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	PointCount int       `json:"point_count"`
}

// Reconcile merges a session slice into the persisted trip record.
// Duration and distance are added, ActualStartDate is set exactly once, and
// completion stamps ActualEndDate and flips the lifecycle to Completed.
func Reconcile(t trip.Trip, s Summary, completing bool, now time.Time) trip.Trip {
	t.TrackedMs += s.DurationMs
	t.DistanceKm += s.DistanceKm

	if t.ActualStartDate == nil {
		started := s.StartedAt
		if started.IsZero() {
			started = now
		}
		t.ActualStartDate = &started
	}

	if completing {
		ended := now
		t.ActualEndDate = &ended
		t.Status = trip.StatusCompleted
		t.Completed = true
	} else {
		t.Status = trip.StatusInProgress
		t.Completed = false
	}
	return t
}
