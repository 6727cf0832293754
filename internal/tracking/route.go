package tracking

import "backend-waylog/internal/shared/geo"

// RoutePath is the append-only sequence of fixes recorded by one session.
// Append is the only mutator; out-of-order GPS callbacks are rejected so the
// path stays in strict timestamp order.
type RoutePath struct {
	fixes []geo.Fix
}

// Append adds a fix whose timestamp strictly follows the last one. A fix at
// or before the last timestamp returns ErrStaleFix and leaves the path
// untouched.
func (p *RoutePath) Append(f geo.Fix) error {
	if n := len(p.fixes); n > 0 && !f.RecordedAt.After(p.fixes[n-1].RecordedAt) {
		return ErrStaleFix
	}
	p.fixes = append(p.fixes, f)
	return nil
}

// Last returns the most recently appended fix.
func (p *RoutePath) Last() (geo.Fix, bool) {
	if len(p.fixes) == 0 {
		return geo.Fix{}, false
	}
	return p.fixes[len(p.fixes)-1], true
}

func (p *RoutePath) Len() int {
	return len(p.fixes)
}

// Points returns a fresh copy of the path in append order, safe for the
// caller to hold while the session keeps appending.
func (p *RoutePath) Points() []geo.Fix {
	out := make([]geo.Fix, len(p.fixes))
	copy(out, p.fixes)
	return out
}

func (p *RoutePath) Reset() {
	p.fixes = nil
}
