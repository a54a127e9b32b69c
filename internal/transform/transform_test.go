package transform

import (
	"errors"
	"strings"
	"testing"
	"time"

	"trainics/internal/format"
	"trainics/internal/hafas"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", s, err)
	}
	return ts
}

// baseLeg is a regional train from Beginn to Ende without delays,
// platforms or stopovers.
func baseLeg(t *testing.T) hafas.Leg {
	t.Helper()
	return hafas.Leg{
		TripID:      "1|200|0|80|161021",
		Departure:   hafas.TimePtr(mustTime(t, "2021-10-16T22:00:00+02:00")),
		Arrival:     hafas.TimePtr(mustTime(t, "2021-10-16T22:30:00+02:00")),
		Origin:      hafas.Stop{ID: "1", Name: "Beginn"},
		Destination: hafas.Stop{ID: "2", Name: "Ende"},
		Mode:        hafas.ModeTrain,
		Line: &hafas.Line{
			Name:     "RE 1",
			Mode:     hafas.ModeTrain,
			Product:  hafas.ProductRegional,
			Operator: &hafas.Operator{Name: "DB Regio NRW"},
		},
	}
}

func stop(t *testing.T, name, arrival, departure string) hafas.Stopover {
	t.Helper()
	s := hafas.Stopover{Stop: hafas.Stop{ID: "90420", Name: name, Type: "stop"}}
	if arrival != "" {
		s.Arrival = hafas.TimePtr(mustTime(t, arrival))
	}
	if departure != "" {
		s.Departure = hafas.TimePtr(mustTime(t, departure))
	}
	return s
}

// withStopovers wraps intermediate stops with the leg's origin and
// destination, as the upstream data does.
func withStopovers(t *testing.T, leg hafas.Leg, intermediate ...hafas.Stopover) hafas.Leg {
	t.Helper()
	list := []hafas.Stopover{stop(t, leg.Origin.Name, "", "2021-10-16T22:00:00+02:00")}
	list = append(list, intermediate...)
	list = append(list, stop(t, leg.Destination.Name, "2021-10-16T22:30:00+02:00", ""))
	leg.Stopovers = list
	return leg
}

func mustEvent(t *testing.T, leg hafas.Leg, opts Options) (summary, description string, start, end time.Time) {
	t.Helper()
	ev, ok := LegToEvent(leg, opts)
	if !ok {
		t.Fatalf("Expected an event for leg %+v", leg)
	}
	if ev.Location != leg.Origin.Name {
		t.Errorf("Expected location %q, got %q", leg.Origin.Name, ev.Location)
	}
	return ev.Summary, ev.Description, ev.Start, ev.End
}

func TestLegToEvent_SimpleLeg(t *testing.T) {
	summary, description, start, end := mustEvent(t, baseLeg(t), Options{})

	if summary != "🚆 RE 1: Beginn -> Ende" {
		t.Errorf("Unexpected summary %q", summary)
	}
	if description != "Betreiber: DB Regio NRW" {
		t.Errorf("Unexpected description %q", description)
	}
	if !start.Equal(mustTime(t, "2021-10-16T22:00:00+02:00")) {
		t.Errorf("Unexpected start %v", start)
	}
	if !end.Equal(mustTime(t, "2021-10-16T22:30:00+02:00")) {
		t.Errorf("Unexpected end %v", end)
	}
}

func TestLegToEvent_Platforms(t *testing.T) {
	leg := baseLeg(t)
	leg.DeparturePlatform = hafas.StringPtr("104 D-G")
	leg.ArrivalPlatform = hafas.StringPtr("9 3/4")

	summary, description, _, _ := mustEvent(t, leg, Options{})

	if summary != "🚆 RE 1: Beginn (Gl. 104 D-G) -> Ende (Gl. 9 3/4)" {
		t.Errorf("Unexpected summary %q", summary)
	}
	if description != "Betreiber: DB Regio NRW" {
		t.Errorf("Unexpected description %q", description)
	}
}

func TestLegToEvent_Delays(t *testing.T) {
	leg := baseLeg(t)
	leg.DepartureDelay = hafas.IntPtr(600)
	leg.ArrivalDelay = hafas.IntPtr(600)

	summary, description, start, end := mustEvent(t, leg, Options{})

	if !start.Equal(mustTime(t, "2021-10-16T22:10:00+02:00")) {
		t.Errorf("Expected start shifted by 10 minutes, got %v", start)
	}
	if !end.Equal(mustTime(t, "2021-10-16T22:40:00+02:00")) {
		t.Errorf("Expected end shifted by 10 minutes, got %v", end)
	}
	if summary != "🚆 RE 1: Beginn -> Ende" || description != "Betreiber: DB Regio NRW" {
		t.Errorf("Delay changed text: %q / %q", summary, description)
	}
}

func TestLegToEvent_DelayMinusOffset(t *testing.T) {
	testCases := []struct {
		name         string
		depDelay     *int
		arrDelay     *int
		offset       int
		expectedFrom string
		expectedTo   string
	}{
		{"absent delay", nil, nil, 0, "2021-10-16T22:00:00+02:00", "2021-10-16T22:30:00+02:00"},
		{"zero delay", hafas.IntPtr(0), hafas.IntPtr(0), 0, "2021-10-16T22:00:00+02:00", "2021-10-16T22:30:00+02:00"},
		{"offset on both ends", nil, nil, 120, "2021-10-16T20:00:00+02:00", "2021-10-16T20:30:00+02:00"},
		{"delay and offset", hafas.IntPtr(300), hafas.IntPtr(900), 60, "2021-10-16T21:05:00+02:00", "2021-10-16T21:45:00+02:00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			leg := baseLeg(t)
			leg.DepartureDelay = tc.depDelay
			leg.ArrivalDelay = tc.arrDelay

			_, _, start, end := mustEvent(t, leg, Options{DepartureTZOffset: tc.offset})
			if !start.Equal(mustTime(t, tc.expectedFrom)) {
				t.Errorf("Expected start %s, got %v", tc.expectedFrom, start)
			}
			if !end.Equal(mustTime(t, tc.expectedTo)) {
				t.Errorf("Expected end %s, got %v", tc.expectedTo, end)
			}
		})
	}
}

func TestLegToEvent_FallsBackToPlannedTimes(t *testing.T) {
	leg := baseLeg(t)
	leg.Departure = nil
	leg.Arrival = nil
	leg.PlannedDeparture = hafas.TimePtr(mustTime(t, "2021-10-16T21:00:00+02:00"))
	leg.PlannedArrival = hafas.TimePtr(mustTime(t, "2021-10-16T21:30:00+02:00"))

	_, _, start, end := mustEvent(t, leg, Options{})
	if !start.Equal(*leg.PlannedDeparture) || !end.Equal(*leg.PlannedArrival) {
		t.Errorf("Expected planned times, got %v - %v", start, end)
	}
}

func TestLegToEvent_Stopovers(t *testing.T) {
	one := stop(t, "Stopover1", "2021-10-16T22:10:00+02:00", "2021-10-16T22:11:00+02:00")
	two := stop(t, "Stopover2", "2021-10-16T22:20:00+02:00", "2021-10-16T22:21:00+02:00")

	delayed := one
	delayed.ArrivalDelay = hafas.IntPtr(300)
	delayed.DepartureDelay = hafas.IntPtr(300)

	testCases := []struct {
		name     string
		leg      hafas.Leg
		expected string
	}{
		{"no stopovers", baseLeg(t), "Betreiber: DB Regio NRW"},
		{"only origin and destination", withStopovers(t, baseLeg(t)), "Betreiber: DB Regio NRW"},
		{"one stopover", withStopovers(t, baseLeg(t), one),
			"Betreiber: DB Regio NRW\nZwischenstop: Stopover1 (an: 22:10, ab: 22:11)"},
		{"more than one", withStopovers(t, baseLeg(t), one, two),
			"Betreiber: DB Regio NRW\nZwischenstops: Stopover1 (an: 22:10, ab: 22:11), Stopover2 (an: 22:20, ab: 22:21)"},
		{"stopover has delay", withStopovers(t, baseLeg(t), delayed),
			"Betreiber: DB Regio NRW\nZwischenstop: Stopover1 (an: 22:10 + 5min, ab: 22:11 + 5min)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, description, _, _ := mustEvent(t, tc.leg, Options{})
			if description != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, description)
			}
		})
	}
}

func TestLegToEvent_DoesNotModifyStopovers(t *testing.T) {
	leg := withStopovers(t, baseLeg(t), stop(t, "Stopover1", "2021-10-16T22:10:00+02:00", "2021-10-16T22:11:00+02:00"))

	first, _ := LegToEvent(leg, Options{})
	second, _ := LegToEvent(leg, Options{})

	if len(leg.Stopovers) != 3 {
		t.Errorf("Expected stopover list untouched, got %d entries", len(leg.Stopovers))
	}
	if first.Description != second.Description {
		t.Errorf("Expected repeatable conversion, got %q then %q", first.Description, second.Description)
	}
}

func TestLegToEvent_Transfers(t *testing.T) {
	walking := baseLeg(t)
	walking.Mode = hafas.ModeWalking

	cycling := baseLeg(t)
	cycling.Mode = hafas.ModeBicycle

	flagged := baseLeg(t)
	flagged.Walking = true

	for name, leg := range map[string]hafas.Leg{"walking": walking, "bicycle": cycling, "walking flag": flagged} {
		if _, ok := LegToEvent(leg, Options{}); ok {
			t.Errorf("%s: expected no event", name)
		}
	}
}

func TestLegToEvent_Cancelled(t *testing.T) {
	leg := baseLeg(t)
	leg.Cancelled = true
	leg.Line.Product = hafas.ProductNationalExpress
	leg.Line.Name = "ICE 123"

	summary, description, _, _ := mustEvent(t, leg, Options{})

	if summary != "🚅⛔ ICE 123: Beginn -> Ende" {
		t.Errorf("Unexpected summary %q", summary)
	}
	if !strings.HasPrefix(description, "🚨🚨 Achtung! Zug fällt aus! 🚨🚨\n\nBetreiber:") {
		t.Errorf("Expected cancellation banner first, got %q", description)
	}
}

func TestLegToEvent_NoOperator(t *testing.T) {
	leg := baseLeg(t)
	leg.Line.Operator = nil

	_, description, _, _ := mustEvent(t, leg, Options{})
	if description != "" {
		t.Errorf("Expected empty description, got %q", description)
	}

	leg.Line = nil
	summary, _, _, _ := mustEvent(t, leg, Options{})
	if summary != "🚆 : Beginn -> Ende" {
		t.Errorf("Unexpected summary without line %q", summary)
	}
}

func TestLegToEvent_DescriptionOrder(t *testing.T) {
	leg := withStopovers(t, baseLeg(t), stop(t, "Stopover1", "2021-10-16T22:10:00+02:00", "2021-10-16T22:11:00+02:00"))
	leg.Cancelled = true
	leg.Line.FahrtNr = "10001"
	leg.Line.ProductName = "RE"
	leg.Remarks = []hafas.Remark{{Code: "wifi", Text: "WLAN"}}

	links := format.Links{Traewelling: true, Travelynx: true, Marudor: true}
	_, description, _, _ := mustEvent(t, leg, Options{Links: links})

	expected := format.CancelledBanner +
		"Betreiber: DB Regio NRW" +
		"\nZwischenstop: Stopover1 (an: 22:10, ab: 22:11)" +
		format.TraewellingLink(leg) +
		format.TravelynxLink(leg) +
		format.MarudorLink(leg) +
		"\n\nHinweise:\n📡 WLAN"
	if description != expected {
		t.Errorf("Expected:\n%q\ngot:\n%q", expected, description)
	}
}

func TestLegToEvent_MarudorSkippedForBus(t *testing.T) {
	leg := baseLeg(t)
	leg.Mode = hafas.ModeBus
	leg.Line.Product = hafas.ProductBus

	summary, description, _, _ := mustEvent(t, leg, Options{Links: format.Links{Marudor: true}})
	if strings.Contains(description, "Marudor") {
		t.Errorf("Expected no marudor link for bus, got %q", description)
	}
	if !strings.HasPrefix(summary, "🚌 ") {
		t.Errorf("Expected bus glyph, got %q", summary)
	}
}

func TestEventUIDStableAcrossDelays(t *testing.T) {
	leg := baseLeg(t)
	leg.PlannedDeparture = hafas.TimePtr(mustTime(t, "2021-10-16T22:00:00+02:00"))
	before := EventUID(leg)

	leg.Departure = hafas.TimePtr(mustTime(t, "2021-10-16T22:15:00+02:00"))
	leg.DepartureDelay = hafas.IntPtr(900)
	if after := EventUID(leg); after != before {
		t.Errorf("Expected UID to stay %s, got %s", before, after)
	}

	other := baseLeg(t)
	other.TripID = "another"
	if EventUID(other) == before {
		t.Error("Expected different trips to get different UIDs")
	}
}

func TestJourneyToEventsAndTitle(t *testing.T) {
	first := baseLeg(t)
	walk := baseLeg(t)
	walk.Mode = hafas.ModeWalking
	walk.Origin = hafas.Stop{Name: "Ende"}
	walk.Destination = hafas.Stop{Name: "Umstieg"}
	last := baseLeg(t)
	last.Origin = hafas.Stop{Name: "Umstieg"}
	last.Destination = hafas.Stop{Name: "Ziel"}

	journey := hafas.Journey{Legs: []hafas.Leg{first, walk, last}}

	events := JourneyToEvents(journey, Options{})
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Location != "Beginn" || events[1].Location != "Umstieg" {
		t.Errorf("Unexpected event order: %q, %q", events[0].Location, events[1].Location)
	}

	if got := Title(journey); got != "Reise von Beginn nach Ziel" {
		t.Errorf("Unexpected title %q", got)
	}
}

func TestToCalendar(t *testing.T) {
	journey := &hafas.Journey{Legs: []hafas.Leg{baseLeg(t)}}

	cal, err := ToCalendar(journey, "Europe/Berlin", Options{})
	if err != nil {
		t.Fatalf("ToCalendar failed: %v", err)
	}
	if cal.Name != "Reise von Beginn nach Ende" {
		t.Errorf("Unexpected name %q", cal.Name)
	}
	if cal.TimeZone != "Europe/Berlin" {
		t.Errorf("Unexpected timezone %q", cal.TimeZone)
	}
	if len(cal.Events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(cal.Events))
	}
}

func TestToCalendar_InvalidJourney(t *testing.T) {
	if _, err := ToCalendar(&hafas.Journey{}, "Europe/Berlin", Options{}); !errors.Is(err, hafas.ErrEmptyJourney) {
		t.Errorf("Expected ErrEmptyJourney, got %v", err)
	}

	leg := baseLeg(t)
	leg.Departure = nil
	_, err := ToCalendar(&hafas.Journey{Legs: []hafas.Leg{leg}}, "Europe/Berlin", Options{})
	if !errors.Is(err, hafas.ErrMissingDeparture) {
		t.Errorf("Expected ErrMissingDeparture, got %v", err)
	}
}
