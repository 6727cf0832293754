package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
)

func tripColumns() []string {
	return []string{"id", "user_id", "destination", "trip_type", "start_date", "end_date",
		"actual_start_date", "actual_end_date", "total_distance_km", "total_tracking_duration_ms",
		"status", "is_completed", "dest_lat", "dest_lng", "created_at"}
}

func tripRow(t Trip) []any {
	return []any{t.ID, t.UserID, t.Destination, t.Type, t.StartDate, t.EndDate,
		t.ActualStartDate, t.ActualEndDate, t.DistanceKm, t.TrackedMs,
		t.Status, t.Completed, t.DestLat, t.DestLng, t.CreatedAt}
}

func TestCreateAndGetTrip(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	createdAt := time.Now()

	mock.ExpectQuery(`INSERT INTO trips`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Dolomites", TypeMultiDay, start, end, StatusPlanned, 46.4, 11.8).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	svc := NewService(mock)
	created, err := svc.CreateTrip(context.Background(), Trip{
		UserID:      "user-1",
		Destination: "Dolomites",
		Type:        TypeMultiDay,
		StartDate:   start,
		EndDate:     end,
		DestLat:     46.4,
		DestLng:     11.8,
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if created.ID == "" || created.Status != StatusPlanned || created.Completed {
		t.Fatalf("unexpected created trip: %+v", created)
	}

	stored := created
	mock.ExpectQuery(`SELECT id, user_id, destination, trip_type`).
		WithArgs(created.ID).
		WillReturnRows(pgxmock.NewRows(tripColumns()).AddRow(tripRow(stored)...))

	loaded, err := svc.GetTrip(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get trip: %v", err)
	}
	if loaded.Destination != "Dolomites" || loaded.Type != TypeMultiDay {
		t.Fatalf("unexpected loaded trip: %+v", loaded)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateTripValidation(t *testing.T) {
	svc := NewService(nil)
	start := time.Now()

	if _, err := svc.CreateTrip(context.Background(), Trip{Type: TypeDay, StartDate: start, EndDate: start}); err == nil {
		t.Fatalf("expected destination error")
	}
	if _, err := svc.CreateTrip(context.Background(), Trip{Destination: "X", Type: "weekend", StartDate: start, EndDate: start}); err == nil {
		t.Fatalf("expected type error")
	}
	if _, err := svc.CreateTrip(context.Background(), Trip{Destination: "X", Type: TypeDay, StartDate: start, EndDate: start.AddDate(0, 0, -1)}); err == nil {
		t.Fatalf("expected date order error")
	}
}

func TestUpdatePlanLeavesTrackingFieldsAlone(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	actual := start.Add(6 * time.Hour)
	stored := Trip{
		ID: "trip-1", UserID: "user-1", Destination: "Old", Type: TypeDay,
		StartDate: start, EndDate: start,
		ActualStartDate: &actual, DistanceKm: 12.5, TrackedMs: 3_600_000,
		Status: StatusInProgress, CreatedAt: time.Now(),
	}

	mock.ExpectQuery(`SELECT id, user_id, destination, trip_type`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows(tripColumns()).AddRow(tripRow(stored)...))
	mock.ExpectExec(`UPDATE trips`).
		WithArgs("trip-1", "New", TypeDay, start, start, 0.0, 0.0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	updated, err := svc.UpdatePlan(context.Background(), "trip-1", Trip{Destination: "New"})
	if err != nil {
		t.Fatalf("update plan: %v", err)
	}
	if updated.Destination != "New" {
		t.Fatalf("destination not updated")
	}
	if updated.DistanceKm != 12.5 || updated.TrackedMs != 3_600_000 || updated.ActualStartDate == nil {
		t.Fatalf("tracking fields touched by plan update: %+v", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdatePlanRejectsInvertedDates(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	stored := Trip{ID: "trip-1", UserID: "user-1", Destination: "X", Type: TypeDay,
		StartDate: start, EndDate: start, Status: StatusPlanned, CreatedAt: time.Now()}

	mock.ExpectQuery(`SELECT id, user_id, destination, trip_type`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows(tripColumns()).AddRow(tripRow(stored)...))

	svc := NewService(mock)
	if _, err := svc.UpdatePlan(context.Background(), "trip-1", Trip{EndDate: start.AddDate(0, 0, -1)}); err == nil {
		t.Fatalf("expected date order error")
	}
}

func TestSaveTrackingResult(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	started := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	ended := started.Add(4 * time.Hour)
	mock.ExpectExec(`UPDATE trips`).
		WithArgs("trip-1", &started, &ended, 14.2, int64(14_400_000), StatusCompleted, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	svc := NewService(mock)
	err = svc.SaveTrackingResult(context.Background(), Trip{
		ID: "trip-1", ActualStartDate: &started, ActualEndDate: &ended,
		DistanceKm: 14.2, TrackedMs: 14_400_000,
		Status: StatusCompleted, Completed: true,
	})
	if err != nil {
		t.Fatalf("save tracking result: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListGrouped(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time {
		return time.Date(2025, 7, 10+offset, 0, 0, 0, 0, time.UTC)
	}
	mk := func(id string, start, end time.Time) Trip {
		return Trip{ID: id, UserID: "user-1", Destination: id, Type: TypeDay,
			StartDate: start, EndDate: end, Status: StatusPlanned, CreatedAt: now}
	}

	rows := pgxmock.NewRows(tripColumns())
	for _, tr := range []Trip{
		mk("past", day(-9), day(-8)),
		mk("recent", day(-2), day(-1)),
		mk("active", day(0), day(0)),
		mk("upcoming", day(2), day(2)),
		mk("future", day(8), day(9)),
	} {
		rows.AddRow(tripRow(tr)...)
	}
	mock.ExpectQuery(`SELECT id, user_id, destination, trip_type`).
		WithArgs("user-1").
		WillReturnRows(rows)

	svc := NewService(mock)
	g, err := svc.ListGrouped(context.Background(), "user-1", now)
	if err != nil {
		t.Fatalf("list grouped: %v", err)
	}
	check := func(name string, got []Trip) {
		if len(got) != 1 || got[0].ID != name {
			t.Fatalf("bucket %s wrong: %+v", name, got)
		}
	}
	check("active", g.Active)
	check("upcoming", g.Upcoming)
	check("recent", g.Recent)
	check("future", g.Future)
	check("past", g.Past)
}

func TestDeleteTripAndErrors(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM trips`).WithArgs("trip-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(`SELECT id, user_id, destination, trip_type`).WithArgs("missing").
		WillReturnError(errors.New("no rows"))

	svc := NewService(mock)
	if err := svc.DeleteTrip(context.Background(), "trip-1"); err != nil {
		t.Fatalf("delete trip: %v", err)
	}
	if _, err := svc.GetTrip(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing trip")
	}
}
