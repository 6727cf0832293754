package annotation

import "time"

// Note is a text annotation attached to a trip.
type Note struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Photo is a photo record attached to a trip. Only metadata lives here; the
// image bytes stay with the host's media storage.
type Photo struct {
	ID        string    `json:"id"`
	TripID    string    `json:"trip_id"`
	UserID    string    `json:"user_id"`
	PhotoURL  string    `json:"photo_url"`
	Caption   string    `json:"caption,omitempty"`
	Lat       float64   `json:"lat,omitempty"`
	Lng       float64   `json:"lng,omitempty"`
	TakenAt   time.Time `json:"taken_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
