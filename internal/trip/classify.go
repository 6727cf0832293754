package trip

import "time"

// Relevance buckets a trip relative to "now" for list grouping and for
// deciding which trips can be tracked today.
type Relevance string

const (
	RelevanceActive   Relevance = "active"
	RelevanceUpcoming Relevance = "upcoming"
	RelevanceRecent   Relevance = "recent"
	RelevanceFuture   Relevance = "future"
	RelevancePast     Relevance = "past"
)

// Trips starting within (or ended within) this many days sort as
// upcoming/recent rather than future/past.
const relevanceWindowDays = 3

// Classify buckets a trip by its planned window at day granularity. Time of
// day is stripped from now, so a trip whose window covers today is Active no
// matter the hour, and that takes precedence over the Upcoming check when the
// trip starts today.
func Classify(t Trip, now time.Time) Relevance {
	day := dateOnly(now)
	start := dateOnly(t.StartDate)
	end := dateOnly(t.EndDate)

	if !day.Before(start) && !day.After(end) {
		return RelevanceActive
	}
	if day.Before(start) && daysBetween(day, start) <= relevanceWindowDays {
		return RelevanceUpcoming
	}
	if day.After(end) && daysBetween(end, day) <= relevanceWindowDays {
		return RelevanceRecent
	}
	if day.After(end) {
		return RelevancePast
	}
	return RelevanceFuture
}

// TrackingEligible reports whether a trip may be armed for live tracking:
// not yet completed and either active or starting within the upcoming window.
func TrackingEligible(t Trip, now time.Time) bool {
	if t.Completed {
		return false
	}
	switch Classify(t, now) {
	case RelevanceActive, RelevanceUpcoming:
		return true
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
