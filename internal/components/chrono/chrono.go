package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the implementation of API using the system clock.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl creates a StandardImpl whose times are in the given IANA timezone,
// an empty name means UTC.
func NewStandardImpl(timezone string) (StandardImpl, error) {
	if timezone == "" {
		return StandardImpl{location: time.UTC}, nil
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is an API that always returns the same time, it is meant for tests.
type FixedImpl struct {
	Time time.Time
}

func (f *FixedImpl) Now() time.Time {
	return f.Time
}

func (f *FixedImpl) Location() *time.Location {
	return f.Time.Location()
}

// Advance moves the fixed time forward.
func (f *FixedImpl) Advance(d time.Duration) {
	f.Time = f.Time.Add(d)
}
