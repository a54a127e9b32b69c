package model

import "time"

// Event is one calendar entry derived from a single journey leg.
type Event struct {
	// UID is stable across re-generations of the same leg so calendar
	// clients update the entry instead of adding a duplicate.
	UID string

	Summary     string
	Description string
	Location    string

	// Start / End already include delays and the timezone correction.
	Start time.Time
	End   time.Time
}

// Duration returns how long the leg takes.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Calendar is the container handed to the calendar serializer.
type Calendar struct {
	// Name is the human-readable calendar title, e.g. "Reise von A nach B".
	Name string

	// TimeZone is the IANA zone each event is written in.
	TimeZone string

	Events []Event
}
