package tracking

import "backend-waylog/internal/shared/geo"

// Accumulator keeps the running great-circle distance of a session in a
// float64 sum. It does no jitter filtering; that is the location provider's
// concern upstream.
type Accumulator struct {
	totalKm float64
}

// Add computes the distance between prev and next and folds it into the
// running total, returning the delta in kilometers. A nil prev marks the
// first fix of a session and contributes zero.
func (a *Accumulator) Add(prev *geo.Fix, next geo.Fix) float64 {
	if prev == nil {
		return 0
	}
	delta := geo.HaversineKm(prev.Lat, prev.Lng, next.Lat, next.Lng)
	a.totalKm += delta
	return delta
}

func (a *Accumulator) TotalKm() float64 {
	return a.totalKm
}

func (a *Accumulator) Reset() {
	a.totalKm = 0
}
