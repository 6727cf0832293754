package annotation

import (
	"context"
	"errors"

	"backend-waylog/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) AddNote(ctx context.Context, input Note) (Note, error) {
	if input.Text == "" {
		return Note{}, errors.New("text required")
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_notes (id, trip_id, user_id, text)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at
	`, input.ID, input.TripID, input.UserID, input.Text)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Note{}, err
	}
	return input, nil
}

func (s *Service) UpdateNote(ctx context.Context, id, text string) (Note, error) {
	if text == "" {
		return Note{}, errors.New("text required")
	}
	row := s.db.QueryRow(ctx, `
		UPDATE trip_notes SET text=$2, updated_at=now()
		WHERE id=$1
		RETURNING id, trip_id, user_id, text, created_at, updated_at
	`, id, text)
	var n Note
	if err := row.Scan(&n.ID, &n.TripID, &n.UserID, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trip_notes WHERE id=$1`, id)
	return err
}

func (s *Service) Notes(ctx context.Context, tripID string) ([]Note, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, text, created_at, updated_at
		FROM trip_notes WHERE trip_id=$1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.TripID, &n.UserID, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func (s *Service) AddPhoto(ctx context.Context, input Photo) (Photo, error) {
	if input.PhotoURL == "" {
		return Photo{}, errors.New("photo_url required")
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO trip_photos (id, trip_id, user_id, photo_url, caption, lat, lng, taken_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, input.ID, input.TripID, input.UserID, input.PhotoURL, input.Caption, input.Lat, input.Lng, input.TakenAt)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Photo{}, err
	}
	return input, nil
}

func (s *Service) DeletePhoto(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trip_photos WHERE id=$1`, id)
	return err
}

func (s *Service) Photos(ctx context.Context, tripID string) ([]Photo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, user_id, photo_url, caption, COALESCE(lat,0), COALESCE(lng,0), taken_at, created_at
		FROM trip_photos WHERE trip_id=$1
		ORDER BY taken_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.TripID, &p.UserID, &p.PhotoURL, &p.Caption, &p.Lat, &p.Lng, &p.TakenAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, nil
}
