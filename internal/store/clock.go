package store

import "time"

// Clock supplies wall-clock time for inspection timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

// Now returns the current time in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// toMillis converts t to the stored representation.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts a stored timestamp back to UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// truncateMillis drops sub-millisecond precision so values returned from
// writes equal values read back.
func truncateMillis(t time.Time) time.Time {
	return fromMillis(toMillis(t))
}
