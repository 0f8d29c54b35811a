// Package ics converts calendar events to and from their iCalendar wire
// form, and builds the multistatus listing served to CalDAV clients.
package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/polyhub/calsync/internal/storage"
)

const (
	prodID     = "-//PolyHub//Calendar//EN"
	dateLayout = "20060102"
)

// Fields holds the pieces of an inbound VEVENT the subsystem cares about.
// Inbound PUT bodies are not deeply parsed; missing fields stay zero.
type Fields struct {
	UID     string
	Summary string
	Date    time.Time
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	return cal
}

func vevent(event *storage.Event) *ical.Component {
	ev := ical.NewComponent(ical.CompEvent)

	// Encoding never fails for a missing UID, but callers should prefer
	// pre-assigned UIDs so repeated encodes stay consistent.
	uid := event.CalDAVUID
	if uid == "" {
		uid = uuid.NewString()
	}
	ev.Props.SetText(ical.PropUID, uid)

	// The encoder requires exactly one DTSTAMP per VEVENT.
	ev.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	dtstart := ical.NewProp(ical.PropDateTimeStart)
	dtstart.SetValueType(ical.ValueDate)
	dtstart.Value = event.Date.Format(dateLayout)
	ev.Props.Set(dtstart)

	ev.Props.SetText(ical.PropSummary, event.Title)
	if event.Description != "" {
		ev.Props.SetText(ical.PropDescription, event.Description)
	}

	return ev
}

// Encode produces a single-VEVENT VCALENDAR block for the event.
func Encode(event *storage.Event) (string, error) {
	cal := newCalendar()
	cal.Children = append(cal.Children, vevent(event))

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// EncodeAll produces one VCALENDAR block containing a VEVENT per event.
func EncodeAll(events []*storage.Event) (string, error) {
	cal := newCalendar()
	for _, event := range events {
		cal.Children = append(cal.Children, vevent(event))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// Decode extracts UID, SUMMARY and the DTSTART date from the first VEVENT
// of an iCalendar document.
func Decode(data string) (Fields, error) {
	cal, err := ical.NewDecoder(strings.NewReader(data)).Decode()
	if err != nil {
		return Fields{}, fmt.Errorf("failed to decode calendar: %w", err)
	}

	events := cal.Events()
	if len(events) == 0 {
		return Fields{}, fmt.Errorf("no events found in calendar")
	}
	ev := events[0]

	var fields Fields
	if fields.UID, err = ev.Props.Text(ical.PropUID); err != nil {
		return Fields{}, fmt.Errorf("failed to read UID: %w", err)
	}
	if fields.Summary, err = ev.Props.Text(ical.PropSummary); err != nil {
		return Fields{}, fmt.Errorf("failed to read SUMMARY: %w", err)
	}
	if prop := ev.Props.Get(ical.PropDateTimeStart); prop != nil {
		t, err := prop.DateTime(time.UTC)
		if err != nil {
			return Fields{}, fmt.Errorf("failed to parse DTSTART: %w", err)
		}
		fields.Date = t
	}

	return fields, nil
}

// Multistatus builds a D:multistatus document with one response per UID,
// href pattern /caldav/calendar/{uid}.ics.
func Multistatus(uids []string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	ms := doc.CreateElement("D:multistatus")
	ms.CreateAttr("xmlns:D", "DAV:")

	for _, uid := range uids {
		resp := ms.CreateElement("D:response")
		resp.CreateElement("D:href").SetText("/caldav/calendar/" + uid + ".ics")
		propstat := resp.CreateElement("D:propstat")
		propstat.CreateElement("D:status").SetText("HTTP/1.1 200 OK")
	}

	return doc
}
