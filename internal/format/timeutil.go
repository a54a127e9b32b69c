package format

import "time"

// LegShift is the amount a leg-level timestamp moves: the reported delay
// minus the upstream timezone correction. Both inputs may be zero.
func LegShift(delaySeconds, tzOffsetMinutes int) time.Duration {
	return time.Duration(delaySeconds)*time.Second - time.Duration(tzOffsetMinutes)*time.Minute
}

// WithDelay returns base advanced by delay. A zero delay returns base as is.
func WithDelay(base time.Time, delay time.Duration) time.Time {
	if delay == 0 {
		return base
	}
	return base.Add(delay)
}

// ShortTime renders t as HH:MM after applying the timezone correction.
// With a nil loc the timestamp keeps its own zone.
func ShortTime(t time.Time, tzOffsetMinutes int, loc *time.Location) string {
	t = WithDelay(t, LegShift(0, tzOffsetMinutes))
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04")
}

// DelayMinutes converts a delay to whole minutes for display.
func DelayMinutes(seconds int) int {
	return seconds / 60
}
