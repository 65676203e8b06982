package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
}

// StandardImpl reads the system clock.
type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

// FixedImpl always returns the same instant, it is meant for tests.
type FixedImpl struct {
	Time time.Time
}

func (f *FixedImpl) Now() time.Time {
	return f.Time
}

// Advance moves the fixed clock forward by d.
func (f *FixedImpl) Advance(d time.Duration) {
	f.Time = f.Time.Add(d)
}
