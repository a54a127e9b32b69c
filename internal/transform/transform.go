// Package transform converts journeys into calendar events.
//
// LegToEvent decides whether a leg becomes an event and composes its
// summary, description and times from the fragments produced by package
// format. ToCalendar folds a whole journey into a model.Calendar.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trainics/internal/format"
	"trainics/internal/hafas"
	"trainics/internal/model"
)

// eventNamespace seeds the name-based UUIDs of generated events.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://trainics/events"))

// Options configures a transformation.
type Options struct {
	// DepartureTZOffset is subtracted, in minutes, from leg departure and
	// arrival times and from stopover clock times.
	DepartureTZOffset int

	// Links selects the deep links appended to each description.
	Links format.Links

	// Location renders stopover clock times; nil keeps each timestamp's zone.
	Location *time.Location
}

// LegToEvent converts one leg. ok is false for legs that do not become an
// event: walking and cycling transfers.
func LegToEvent(leg hafas.Leg, opts Options) (model.Event, bool) {
	if leg.IsTransfer() {
		return model.Event{}, false
	}

	departure, _ := leg.DepartureTime()
	arrival, _ := leg.ArrivalTime()

	start := format.WithDelay(departure, format.LegShift(leg.DepartureDelaySeconds(), opts.DepartureTZOffset))
	end := format.WithDelay(arrival, format.LegShift(leg.ArrivalDelaySeconds(), opts.DepartureTZOffset))

	summary := format.ModeGlyph(leg) + format.CancelledGlyph(leg) + " " + leg.LineName() + ": " +
		leg.Origin.Name + format.Platform(leg.DeparturePlatform) + " -> " +
		leg.Destination.Name + format.Platform(leg.ArrivalPlatform)

	var description strings.Builder
	description.WriteString(format.CancelledText(leg))
	if name := leg.OperatorName(); name != "" {
		description.WriteString("Betreiber: " + name)
	}
	description.WriteString(stopoverSection(leg.Stopovers, opts))
	description.WriteString(opts.Links.Text(leg))
	description.WriteString(format.RemarksSection(leg.Remarks))

	return model.Event{
		UID:         EventUID(leg),
		Summary:     summary,
		Description: description.String(),
		Location:    leg.Origin.Name,
		Start:       start,
		End:         end,
	}, true
}

// stopoverSection renders "\nZwischenstop: ..." for a single intermediate
// stop and "\nZwischenstops: ..." for several. A list holding only origin and
// destination yields nothing.
func stopoverSection(stopovers []hafas.Stopover, opts Options) string {
	intermediate := format.IntermediateStopovers(stopovers)
	if len(intermediate) == 0 {
		return ""
	}

	header := "Zwischenstops"
	if len(intermediate) == 1 {
		header = "Zwischenstop"
	}
	return "\n" + header + ": " + format.StopoverText(intermediate, opts.DepartureTZOffset, opts.Location)
}

// EventUID derives a stable identifier from the trip and its planned
// departure, so delay updates keep the same UID.
func EventUID(leg hafas.Leg) string {
	planned := leg.PlannedDeparture
	if planned == nil {
		planned = leg.Departure
	}
	key := leg.TripID + "|" + leg.Origin.ID + "|" + leg.Origin.Name
	if planned != nil {
		key += "|" + planned.UTC().Format(time.RFC3339)
	}
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}

// JourneyToEvents converts every leg and drops the ones that do not become
// events. Legs are not modified.
func JourneyToEvents(journey hafas.Journey, opts Options) []model.Event {
	events := make([]model.Event, 0, len(journey.Legs))
	for _, leg := range journey.Legs {
		if ev, ok := LegToEvent(leg, opts); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Title names a journey after its first origin and last destination.
func Title(journey hafas.Journey) string {
	return fmt.Sprintf("Reise von %s nach %s", journey.Origin(), journey.Destination())
}

// ToCalendar validates the journey and assembles the calendar container.
// timeZone is the IANA zone the serializer writes every event in.
func ToCalendar(journey *hafas.Journey, timeZone string, opts Options) (model.Calendar, error) {
	if err := journey.Validate(); err != nil {
		return model.Calendar{}, fmt.Errorf("invalid journey: %w", err)
	}

	return model.Calendar{
		Name:     Title(*journey),
		TimeZone: timeZone,
		Events:   JourneyToEvents(*journey, opts),
	}, nil
}
