package tracking

import "errors"

var (
	// ErrPermissionDenied is returned by a location Provider when the device
	// has not granted location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrMissingPermission is surfaced to callers of Start/Resume when the
	// provider refuses; the UI re-requests permission and retries.
	ErrMissingPermission = errors.New("location permission not granted")

	// ErrStaleFix marks a fix whose timestamp does not strictly follow the
	// last appended fix. Stale fixes are dropped, never fatal.
	ErrStaleFix = errors.New("fix timestamp not after last fix")

	ErrNoTripArmed       = errors.New("no trip armed")
	ErrAlreadyTracking   = errors.New("session already tracking")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrTripCompleted     = errors.New("trip already completed")

	// ErrPersistenceWrite reports that the reconciled trip record could not
	// be written. Session state is kept; the write is retried on the next
	// pause/complete or via an explicit flush.
	ErrPersistenceWrite = errors.New("trip record write failed")
)
