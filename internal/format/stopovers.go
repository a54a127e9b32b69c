package format

import (
	"strconv"
	"strings"
	"time"

	"trainics/internal/hafas"
)

// IntermediateStopovers drops the first and last entry of a stopover list,
// which are the leg's own origin and destination. The input is not modified.
func IntermediateStopovers(stopovers []hafas.Stopover) []hafas.Stopover {
	if len(stopovers) <= 2 {
		return nil
	}
	out := make([]hafas.Stopover, len(stopovers)-2)
	copy(out, stopovers[1:len(stopovers)-1])
	return out
}

// StopoverText renders intermediate stopovers as
// "<name> (an: HH:MM[ + Nmin], ab: HH:MM[ + Nmin])" joined by ", ".
// Only the clock times get the timezone correction; delays are shown as is.
func StopoverText(stopovers []hafas.Stopover, tzOffsetMinutes int, loc *time.Location) string {
	parts := make([]string, 0, len(stopovers))
	for _, s := range stopovers {
		parts = append(parts, stopoverText(s, tzOffsetMinutes, loc))
	}
	return strings.Join(parts, ", ")
}

func stopoverText(s hafas.Stopover, tzOffsetMinutes int, loc *time.Location) string {
	clauses := make([]string, 0, 2)
	if s.Arrival != nil {
		clauses = append(clauses, "an: "+ShortTime(*s.Arrival, tzOffsetMinutes, loc)+delaySuffix(s.ArrivalDelaySeconds()))
	}
	if s.Departure != nil {
		clauses = append(clauses, "ab: "+ShortTime(*s.Departure, tzOffsetMinutes, loc)+delaySuffix(s.DepartureDelaySeconds()))
	}
	return s.Stop.Name + " (" + strings.Join(clauses, ", ") + ")"
}

func delaySuffix(seconds int) string {
	if seconds == 0 {
		return ""
	}
	return " + " + strconv.Itoa(DelayMinutes(seconds)) + "min"
}
