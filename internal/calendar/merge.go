// Package calendar reconciles stored events with events fetched live from
// Google Calendar and talks to the Google Calendar REST API.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/templui/finboard/internal/model"
)

const (
	// ExternalEventColor is used for provider events, which carry no hex color.
	ExternalEventColor = "#4285f4"
	untitled           = "(no title)"
)

// Merge returns every local event followed by the external events that do not
// duplicate one of them. Two events are duplicates when title, start and end
// match exactly; the local copy wins. Inputs are not modified.
//
// The heuristic misses near-duplicates (an event edited on one side only) and
// hides a distinct external event that happens to share title and time slot
// with a local one.
func Merge(local, external []model.CalendarEvent) []model.CalendarEvent {
	merged := make([]model.CalendarEvent, 0, len(local)+len(external))
	merged = append(merged, local...)

	seen := make(map[model.EventSlot]struct{}, len(local))
	for i := range local {
		seen[local[i].Slot()] = struct{}{}
	}

	for _, ev := range external {
		if _, dup := seen[ev.Slot()]; dup {
			continue
		}
		merged = append(merged, ev)
	}

	return merged
}

// FromGoogle converts a provider event. Date-only (all-day) boundaries become
// midnight in loc built from their year, month and day; they are never parsed
// as UTC instants, which would move them to the previous day west of Greenwich.
func FromGoogle(ev GoogleEvent, loc *time.Location) (model.CalendarEvent, error) {
	if loc == nil {
		loc = time.Local
	}

	start, startAllDay, err := ev.Start.instant(loc)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s start: %w", ev.ID, err)
	}
	end, endAllDay, err := ev.End.instant(loc)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("event %s end: %w", ev.ID, err)
	}
	if end.Before(start) {
		end = start
	}

	title := strings.TrimSpace(ev.Summary)
	if title == "" {
		title = untitled
	}

	return model.CalendarEvent{
		ID:          model.ExternalEventIDPrefix + ev.ID,
		Title:       title,
		Description: ev.Description,
		Start:       start,
		End:         end,
		Color:       ExternalEventColor,
		AllDay:      startAllDay && endAllDay,
		Origin:      model.EventOriginExternal,
		ReadOnly:    true,
		HTMLLink:    ev.HTMLLink,
	}, nil
}

// FromGoogleList converts a page of provider events, skipping cancelled and
// malformed entries. It returns how many were skipped as malformed.
func FromGoogleList(events []GoogleEvent, loc *time.Location) ([]model.CalendarEvent, int) {
	out := make([]model.CalendarEvent, 0, len(events))
	skipped := 0
	for _, ev := range events {
		if ev.Status == StatusCancelled {
			continue
		}
		converted, err := FromGoogle(ev, loc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, converted)
	}
	return out, skipped
}

func (t EventTime) instant(loc *time.Location) (time.Time, bool, error) {
	if t.DateTime != "" {
		ts, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return ts.In(loc), false, nil
	}
	if t.Date != "" {
		d, err := localMidnight(t.Date, loc)
		return d, true, err
	}
	return time.Time{}, false, fmt.Errorf("neither date nor dateTime set")
}

// localMidnight turns "YYYY-MM-DD" into 00:00 of that calendar day in loc.
func localMidnight(date string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in %q", date)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in %q", date)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day in %q", date)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %q", date)
	}
	return t, nil
}

// Window is the rolling range fetched from the provider: from the first day of
// the previous month (in loc) to now plus lookahead.
func Window(now time.Time, loc *time.Location, lookahead time.Duration) (time.Time, time.Time) {
	local := now.In(loc)
	from := time.Date(local.Year(), local.Month()-1, 1, 0, 0, 0, 0, loc)
	return from, now.Add(lookahead)
}

// DayBounds returns [00:00, next 00:00) of the day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
