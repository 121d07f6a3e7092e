package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "rbcal/internal/log"
	"rbcal/internal/model"
)

// propResourceID carries the resource an event is booked on.
const propResourceID = "X-RESOURCE-ID"

// Parse parses a single ICS payload into occurrences. Timed events are
// expressed in loc; all-day events start at midnight in loc.
//
// Recurring events contribute their first instance only. VEVENTs that
// cannot be read are logged and skipped.
func Parse(src Source, body []byte, loc *time.Location) ([]*model.Occurrence, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.UTC
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "location", redactURL(src.Location))
		return nil, fmt.Errorf("parse %s: %w", src.ID, err)
	}

	events := make([]*model.Occurrence, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp, loc)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID, "location", redactURL(src.Location))
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", src.ID, "location", redactURL(src.Location), "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (*model.Occurrence, error) {
	out := &model.Occurrence{SourceID: src.ID, Resource: src.Resource}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return nil, errors.New("missing UID")
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
		if out.Resource == "" {
			out.Resource = p.Value
		}
	}
	if p := ve.GetProperty(propResourceID); p != nil && p.Value != "" {
		out.Resource = p.Value
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		appLog.Debug("ics recurrence not expanded", "id", src.ID, "uid", out.UID, "rrule", p.Value)
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return nil, fmt.Errorf("event %s: missing DTSTART", out.UID)
	}

	if isDateValue(dtStart) {
		start, err := parseDate(dtStart.Value, loc)
		if err != nil {
			return nil, fmt.Errorf("event %s: DTSTART: %w", out.UID, err)
		}
		end := start.AddDate(0, 0, 1)
		if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
			if e, err := parseDate(dtEnd.Value, loc); err == nil {
				end = e
			}
		}
		out.IsAllDay = true
		out.StartsAt, out.EndsAt = start, end
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("event %s: DTSTART: %w", out.UID, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		// No DTEND: a timed event without duration.
		end = start
	}
	out.StartsAt, out.EndsAt = start.In(loc), end.In(loc)
	return out, nil
}

// isDateValue reports whether the property holds a DATE rather than a
// DATE-TIME, either via VALUE=DATE or by the missing 'T'.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty date value")
	}
	return time.ParseInLocation("20060102", v, loc)
}
