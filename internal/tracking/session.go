package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-waylog/internal/shared/geo"
	"backend-waylog/internal/trip"
)

type State string

const (
	StateIdle     State = "idle"
	StateArmed    State = "armed"
	StateTracking State = "tracking"
	StatePaused   State = "paused"
)

// TripStore is the persistence collaborator for trip records.
// *trip.Service satisfies it.
type TripStore interface {
	GetTrip(ctx context.Context, id string) (trip.Trip, error)
	SaveTrackingResult(ctx context.Context, t trip.Trip) error
}

// Archiver persists one finished session row for the history and stats
// screens. *Store satisfies it.
type Archiver interface {
	ArchiveSession(ctx context.Context, rec Record) error
}

// Broadcaster fans live snapshots out to stream subscribers.
// *stream.Hub satisfies it.
type Broadcaster interface {
	Broadcast(tripID string, payload []byte)
}

// Snapshot is the observable session state pushed to subscribers on every
// mutation.
type Snapshot struct {
	State          State     `json:"state"`
	TripID         string    `json:"trip_id,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	DistanceKm     float64   `json:"distance_km"`
	Route          []geo.Fix `json:"route,omitempty"`
}

// Session is the live tracking state machine. One session exists per
// process; all mutations are serialized through its mutex so fixes and ticks
// apply in order. Persistence writes happen outside the lock and never block
// fix ingestion.
type Session struct {
	mu       sync.Mutex
	trips    TripStore
	archive  Archiver
	provider Provider
	hub      Broadcaster
	clock    Clock

	// WriteAttempts and RetryDelay control the reconciliation write retry
	// loop. Overridable before first use.
	WriteAttempts int
	RetryDelay    time.Duration

	state            State
	trip             trip.Trip
	route            RoutePath
	acc              Accumulator
	elapsedSec       int64
	segmentStart     time.Time
	startedAt        time.Time
	sessionMs        int64
	lastReconciledKm float64
	dirty            bool

	tickGen  uint64
	tickStop func()
	tickQuit chan struct{}

	subs map[chan Snapshot]struct{}
}

func NewSession(trips TripStore, archive Archiver, provider Provider, hub Broadcaster, clock Clock) *Session {
	if clock == nil {
		clock = wallClock{}
	}
	return &Session{
		trips:         trips,
		archive:       archive,
		provider:      provider,
		hub:           hub,
		clock:         clock,
		WriteAttempts: 3,
		RetryDelay:    200 * time.Millisecond,
		state:         StateIdle,
		subs:          map[chan Snapshot]struct{}{},
	}
}

// Arm binds a trip to the session and resets all session counters. Only an
// idle session can be armed.
func (s *Session) Arm(ctx context.Context, tripID string) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateTracking:
		s.mu.Unlock()
		return ErrAlreadyTracking
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.mu.Unlock()

	t, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return fmt.Errorf("load trip: %w", err)
	}
	if t.Completed {
		return ErrTripCompleted
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrInvalidTransition
	}
	s.trip = t
	s.route.Reset()
	s.acc.Reset()
	s.elapsedSec = 0
	s.sessionMs = 0
	s.lastReconciledKm = 0
	s.dirty = false
	s.state = StateArmed
	s.notifyLocked()
	return nil
}

// Start begins live tracking of the armed trip. A provider permission
// refusal surfaces as ErrMissingPermission and leaves the session Armed so
// the caller can re-request permission and retry.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateArmed:
	case StateTracking:
		s.mu.Unlock()
		return ErrAlreadyTracking
	case StateIdle:
		s.mu.Unlock()
		return ErrNoTripArmed
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.mu.Unlock()

	// Begin runs outside the session lock so a provider that emits from
	// inside Begin cannot deadlock against handleFix; such early fixes are
	// dropped by the state guard because the session is not Tracking yet.
	if err := s.provider.Begin(s.handleFix); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return ErrMissingPermission
		}
		return err
	}

	s.mu.Lock()
	if s.state != StateArmed {
		released := s.state != StateTracking
		s.mu.Unlock()
		if released {
			s.provider.End()
			return ErrInvalidTransition
		}
		return ErrAlreadyTracking
	}

	now := s.clock.Now()
	if s.trip.ActualStartDate == nil {
		started := now
		s.trip.ActualStartDate = &started
	}
	s.trip.Status = trip.StatusInProgress
	s.segmentStart = now
	s.startedAt = now
	s.startTickerLocked()
	s.state = StateTracking
	s.notifyLocked()
	rec := s.trip
	s.mu.Unlock()

	// The start-of-tracking write (actual start date, in_progress status) is
	// fire-and-forget: the next reconciliation rewrites the full record.
	if err := s.saveWithRetry(ctx, rec); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		log.Printf("tracking: start write failed for trip %s: %v", rec.ID, err)
	}
	return nil
}

// Pause stops fix delivery and reconciles the running segment into the trip
// record. The session keeps its route and counters so Resume continues the
// same session. A failed write leaves the session Paused with the reconciled
// record retained in memory; nothing tracked is lost.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateTracking {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	rec := s.suspendLocked(s.clock.Now())
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// PermissionRevoked is the asynchronous cancellation signal from the host:
// location access was withdrawn mid-session. A tracking session pauses with
// full reconciliation so no tracked time or distance is lost; in any other
// state it is a no-op.
func (s *Session) PermissionRevoked(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateTracking {
		s.mu.Unlock()
		return nil
	}
	log.Printf("tracking: permission revoked, pausing session for trip %s", s.trip.ID)
	rec := s.suspendLocked(s.clock.Now())
	s.mu.Unlock()

	return s.persist(ctx, rec)
}

// Resume restarts fix delivery after a pause. Route, distance and elapsed
// time continue accumulating onto the same in-memory totals.
func (s *Session) Resume(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateTracking {
		s.mu.Unlock()
		return ErrAlreadyTracking
	}
	if s.state != StatePaused || s.trip.Completed {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.mu.Unlock()

	// As in Start, Begin must not run under the lock.
	if err := s.provider.Begin(s.handleFix); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return ErrMissingPermission
		}
		return err
	}

	s.mu.Lock()
	if s.state != StatePaused || s.trip.Completed {
		released := s.state != StateTracking
		s.mu.Unlock()
		if released {
			s.provider.End()
			return ErrInvalidTransition
		}
		return ErrAlreadyTracking
	}

	s.segmentStart = s.clock.Now()
	s.startTickerLocked()
	s.state = StateTracking
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Complete finishes the session: reconciles the final slice, stamps the
// actual end date and marks the trip completed. Only once the trip record
// write succeeds is the session released back to Idle; on write failure it
// stays Paused holding the completed record, and Complete can be retried or
// the session abandoned.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	now := s.clock.Now()
	var slice Summary
	switch s.state {
	case StateTracking:
		s.provider.End()
		s.stopTickerLocked()
		slice = s.sliceLocked(now)
	case StatePaused:
		slice = Summary{
			TripID:     s.trip.ID,
			DistanceKm: s.acc.TotalKm() - s.lastReconciledKm,
			StartedAt:  s.segmentStart,
			EndedAt:    now,
			PointCount: s.route.Len(),
		}
	case StateIdle:
		s.mu.Unlock()
		return ErrNoTripArmed
	default:
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	s.trip = Reconcile(s.trip, slice, true, now)
	s.sessionMs += slice.DurationMs
	s.lastReconciledKm = s.acc.TotalKm()
	s.state = StatePaused
	s.notifyLocked()
	rec := s.trip
	archiveRec := Record{
		TripID:     rec.ID,
		StartedAt:  s.startedAt,
		EndedAt:    now,
		DistanceKm: s.acc.TotalKm(),
		DurationMs: s.sessionMs,
		PointCount: s.route.Len(),
	}
	s.mu.Unlock()

	if err := s.persist(ctx, rec); err != nil {
		return err
	}

	if s.archive != nil {
		if err := s.archive.ArchiveSession(ctx, archiveRec); err != nil {
			log.Printf("tracking: session archive failed for trip %s: %v", rec.ID, err)
		}
	}

	s.mu.Lock()
	s.clearLocked()
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

// Abandon discards the session, including any reconciled record still
// awaiting persistence. It is the explicit escape hatch after repeated write
// failures.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTracking {
		s.provider.End()
		s.stopTickerLocked()
	}
	if s.dirty {
		log.Printf("tracking: abandoning unpersisted record for trip %s", s.trip.ID)
	}
	s.clearLocked()
	s.notifyLocked()
}

// Flush retries a reconciliation write that previously failed.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	rec := s.trip
	s.mu.Unlock()
	return s.persist(ctx, rec)
}

// HandleFix applies one GPS sample. Fixes arriving in any state other than
// Tracking are dropped, which also guards against in-flight callbacks landing
// after a pause has returned.
func (s *Session) HandleFix(f geo.Fix) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return nil
	}
	prev, hasPrev := s.route.Last()
	if err := s.route.Append(f); err != nil {
		log.Printf("tracking: dropped stale fix at %s", f.RecordedAt.Format(time.RFC3339))
		return err
	}
	if hasPrev {
		s.acc.Add(&prev, f)
	} else {
		s.acc.Add(nil, f)
	}
	s.notifyLocked()
	return nil
}

func (s *Session) handleFix(f geo.Fix) {
	_ = s.HandleFix(f)
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a snapshot listener. The latest snapshot is replayed
// immediately; slow subscribers miss intermediate updates rather than
// blocking the session. The returned cancel removes the subscription and
// closes the channel.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// suspendLocked performs the shared pause path: stop inputs, reconcile the
// running segment, transition to Paused. Returns the record to persist.
func (s *Session) suspendLocked(now time.Time) trip.Trip {
	s.provider.End()
	s.stopTickerLocked()
	slice := s.sliceLocked(now)
	s.trip = Reconcile(s.trip, slice, false, now)
	s.sessionMs += slice.DurationMs
	s.lastReconciledKm = s.acc.TotalKm()
	s.state = StatePaused
	s.notifyLocked()
	return s.trip
}

func (s *Session) sliceLocked(now time.Time) Summary {
	return Summary{
		TripID:     s.trip.ID,
		DurationMs: now.Sub(s.segmentStart).Milliseconds(),
		DistanceKm: s.acc.TotalKm() - s.lastReconciledKm,
		StartedAt:  s.segmentStart,
		EndedAt:    now,
		PointCount: s.route.Len(),
	}
}

func (s *Session) clearLocked() {
	s.trip = trip.Trip{}
	s.route.Reset()
	s.acc.Reset()
	s.elapsedSec = 0
	s.sessionMs = 0
	s.lastReconciledKm = 0
	s.dirty = false
	s.state = StateIdle
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:          s.state,
		TripID:         s.trip.ID,
		ElapsedSeconds: s.elapsedSec,
		DistanceKm:     s.acc.TotalKm(),
		Route:          s.route.Points(),
	}
}

func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	if s.hub != nil && snap.TripID != "" {
		payload, _ := json.Marshal(snap)
		s.hub.Broadcast(snap.TripID, payload)
	}
}

func (s *Session) startTickerLocked() {
	s.tickGen++
	gen := s.tickGen
	ch, stop := s.clock.Ticker(time.Second)
	quit := make(chan struct{})
	s.tickStop = stop
	s.tickQuit = quit

	go func() {
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.mu.Lock()
				if s.state == StateTracking && s.tickGen == gen {
					s.elapsedSec++
					s.notifyLocked()
				}
				s.mu.Unlock()
			case <-quit:
				return
			}
		}
	}()
}

func (s *Session) stopTickerLocked() {
	if s.tickStop != nil {
		s.tickStop()
		s.tickStop = nil
	}
	if s.tickQuit != nil {
		close(s.tickQuit)
		s.tickQuit = nil
	}
	s.tickGen++
}

// persist writes a reconciled record, marking the session dirty on failure so
// the record is retried later instead of being rolled back.
func (s *Session) persist(ctx context.Context, rec trip.Trip) error {
	if err := s.saveWithRetry(ctx, rec); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrPersistenceWrite, err)
	}
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	return nil
}

func (s *Session) saveWithRetry(ctx context.Context, rec trip.Trip) error {
	var err error
	for attempt := 0; attempt < s.WriteAttempts; attempt++ {
		if err = s.trips.SaveTrackingResult(ctx, rec); err == nil {
			return nil
		}
		log.Printf("tracking: trip %s write attempt %d failed: %v", rec.ID, attempt+1, err)
		if ctx.Err() != nil {
			return err
		}
		if attempt < s.WriteAttempts-1 {
			time.Sleep(s.RetryDelay)
		}
	}
	return err
}
