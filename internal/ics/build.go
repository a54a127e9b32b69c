package ics

import (
	"errors"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "trainics/internal/log"
	"trainics/internal/model"
)

// ProductID identifies this tool in the PRODID of generated calendars.
const ProductID = "-//trainics//Train-ICS-Converter//EN"

const localLayout = "20060102T150405"

// Build converts a model.Calendar into an iCalendar object.
//
//   - The calendar is named cal.Name.
//   - Every event's DTSTART/DTEND is written as local time with a TZID of
//     cal.TimeZone. An empty or unknown zone falls back to UTC.
//   - DTSTAMP is set to now.
func Build(cal model.Calendar, now time.Time) *ical.Calendar {
	out := ical.NewCalendar()
	out.SetMethod(ical.MethodPublish)
	out.SetProductId(ProductID)
	if cal.Name != "" {
		out.SetName(cal.Name)
		out.SetXWRCalName(cal.Name)
	}

	loc := resolveLocation(cal.TimeZone)
	if loc != nil {
		out.SetXWRTimezone(cal.TimeZone)
	}

	for _, ev := range cal.Events {
		uid := ev.UID
		if uid == "" {
			// Unstable, but VEVENT requires a UID.
			uid = ev.Start.UTC().Format(localLayout) + "-" + sanitizeUID(ev.Summary)
		}

		ve := out.AddEvent(uid)
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(ev.Summary)
		ve.SetDescription(ev.Description)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		setTime(ve, ical.ComponentPropertyDtStart, ev.Start, cal.TimeZone, loc)
		setTime(ve, ical.ComponentPropertyDtEnd, ev.End, cal.TimeZone, loc)
	}

	return out
}

// Serialize renders cal as iCalendar text.
func Serialize(cal model.Calendar, now time.Time) string {
	return Build(cal, now).Serialize()
}

// Write serializes cal to w.
func Write(w io.Writer, cal model.Calendar, now time.Time) error {
	if w == nil {
		return errors.New("ics: nil writer")
	}
	_, err := io.WriteString(w, Serialize(cal, now))
	return err
}

func setTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time, tzid string, loc *time.Location) {
	if loc == nil {
		ve.SetProperty(prop, t.UTC().Format(localLayout)+"Z")
		return
	}
	ve.SetProperty(prop, t.In(loc).Format(localLayout), &ical.KeyValues{
		Key:   string(ical.ParameterTzid),
		Value: []string{tzid},
	})
}

func resolveLocation(name string) *time.Location {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("unknown calendar timezone; writing UTC", err, "timezone", name)
		return nil
	}
	return loc
}

func sanitizeUID(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
