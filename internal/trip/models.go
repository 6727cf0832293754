package trip

import "time"

// Status is the coarse trip lifecycle derived from tracking actions. The UI
// never sets it directly.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Type string

const (
	TypeLocal    Type = "local"
	TypeDay      Type = "day"
	TypeMultiDay Type = "multi_day"
)

// Trip is the persisted trip record. StartDate/EndDate are the user-declared
// planned window (date-only, inclusive); ActualStartDate/ActualEndDate are the
// GPS-observed tracking window and stay nil until tracking has occurred.
// DistanceKm and TrackedMs are cumulative across every tracking session and
// are written only by reconciliation, never by trip edits.
type Trip struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Destination     string     `json:"destination"`
	Type            Type       `json:"trip_type"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	ActualStartDate *time.Time `json:"actual_start_date,omitempty"`
	ActualEndDate   *time.Time `json:"actual_end_date,omitempty"`
	DistanceKm      float64    `json:"total_distance_km"`
	TrackedMs       int64      `json:"total_tracking_duration_ms"`
	Status          Status     `json:"status"`
	Completed       bool       `json:"is_completed"`
	DestLat         float64    `json:"dest_lat,omitempty"`
	DestLng         float64    `json:"dest_lng,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func validType(t Type) bool {
	switch t {
	case TypeLocal, TypeDay, TypeMultiDay:
		return true
	}
	return false
}
