package tracking

import (
	"sync"
	"time"

	"backend-waylog/internal/shared/geo"
)

// Provider is the device location source. Begin starts fix delivery to the
// given callback and fails with ErrPermissionDenied when location access is
// not granted; End stops delivery. The callback may be invoked from inside
// Begin, but fixes emitted before the session finishes starting are dropped.
// A provider that silently stops emitting is treated as degraded, not as an
// error.
type Provider interface {
	Begin(emit func(geo.Fix)) error
	End()
}

// PushProvider adapts hosts that deliver fixes over an explicit push channel
// (the HTTP ingestion endpoint, or a platform bridge calling Emit). Permission
// state is reported by the host via SetGranted.
type PushProvider struct {
	mu      sync.Mutex
	granted bool
	emit    func(geo.Fix)
}

func NewPushProvider() *PushProvider {
	return &PushProvider{granted: true}
}

func (p *PushProvider) SetGranted(granted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted = granted
}

func (p *PushProvider) Begin(emit func(geo.Fix)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.granted {
		return ErrPermissionDenied
	}
	p.emit = emit
	return nil
}

func (p *PushProvider) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emit = nil
}

// Emit forwards a fix to the session when delivery is active; fixes pushed
// while stopped are discarded, matching a real provider that has been ended.
func (p *PushProvider) Emit(f geo.Fix) {
	p.mu.Lock()
	emit := p.emit
	p.mu.Unlock()
	if emit != nil {
		emit(f)
	}
}

// Clock abstracts wall time and the elapsed-seconds ticker so session tests
// run deterministically.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) (<-chan time.Time, func())
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Ticker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
