package ics

import (
	"bytes"
	"errors"

	ical "github.com/arran4/golang-ical"

	appLog "trainics/internal/log"
	"trainics/internal/model"
)

// ParsedCalendar is a calendar read back from iCalendar text.
type ParsedCalendar struct {
	Name     string
	TimeZone string
	Events   []model.Event
}

// Parse reads iCalendar text into a ParsedCalendar.
//
//   - DTSTART/DTEND are resolved through the library's TZID handling.
//   - Events without a UID are skipped and logged; parsing continues.
func Parse(body []byte) (ParsedCalendar, error) {
	var out ParsedCalendar
	if len(bytes.TrimSpace(body)) == 0 {
		return out, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return out, err
	}

	for _, p := range cal.CalendarProperties {
		switch p.IANAToken {
		case "NAME", "X-WR-CALNAME":
			if out.Name == "" {
				out.Name = p.Value
			}
		case "X-WR-TIMEZONE":
			out.TimeZone = p.Value
		}
	}

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		out.Events = append(out.Events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(out.Events))
	return out, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, err
	}
	out.Start = start
	out.End = end

	return out, nil
}
