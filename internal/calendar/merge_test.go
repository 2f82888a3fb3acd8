package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/model"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestMergeDropsExactExternalDuplicates(t *testing.T) {
	start := time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	local := []model.CalendarEvent{
		{ID: "l1", Title: "Dentist", Start: start, End: end, Origin: model.EventOriginLocal},
		{ID: "l2", Title: "Gym", Start: start.Add(4 * time.Hour), End: end.Add(4 * time.Hour), Origin: model.EventOriginLocal},
	}
	external := []model.CalendarEvent{
		// same instants expressed in another zone still match
		{ID: "google:a", Title: "Dentist", Start: start.In(mustLoad(t, "Asia/Tokyo")), End: end, Origin: model.EventOriginExternal},
		{ID: "google:b", Title: "Dentist", Start: start, End: end.Add(time.Minute), Origin: model.EventOriginExternal},
		{ID: "google:c", Title: "dentist", Start: start, End: end, Origin: model.EventOriginExternal},
		{ID: "google:d", Title: "Standup", Start: start, End: end, Origin: model.EventOriginExternal},
	}

	merged := Merge(local, external)

	ids := make([]string, 0, len(merged))
	for _, e := range merged {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"l1", "l2", "google:b", "google:c", "google:d"}, ids)
}

func TestMergeKeepsLocalCopy(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	local := []model.CalendarEvent{{ID: "local", Title: "Review", Start: start, End: start.Add(30 * time.Minute), Color: "#ff0000"}}
	external := []model.CalendarEvent{{ID: "google:x", Title: "Review", Start: start, End: start.Add(30 * time.Minute), ReadOnly: true}}

	merged := Merge(local, external)

	require.Len(t, merged, 1)
	assert.Equal(t, "local", merged[0].ID)
	assert.Equal(t, "#ff0000", merged[0].Color)
	assert.False(t, merged[0].ReadOnly)
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))

	ext := []model.CalendarEvent{{ID: "google:x", Title: "Only external"}}
	assert.Equal(t, ext, Merge(nil, ext))

	loc := []model.CalendarEvent{{ID: "l", Title: "Only local"}}
	assert.Equal(t, loc, Merge(loc, nil))
}

func TestFromGoogleAllDayStartsAtLocalMidnight(t *testing.T) {
	ev := GoogleEvent{
		ID:      "abc",
		Summary: "Holiday",
		Start:   EventTime{Date: "2024-03-10"},
		End:     EventTime{Date: "2024-03-11"},
	}

	for _, zone := range []string{"America/Sao_Paulo", "America/Los_Angeles", "UTC", "Asia/Tokyo", "Pacific/Auckland"} {
		t.Run(zone, func(t *testing.T) {
			loc := mustLoad(t, zone)

			got, err := FromGoogle(ev, loc)
			require.NoError(t, err)

			y, m, d := got.Start.Date()
			assert.Equal(t, 2024, y)
			assert.Equal(t, time.March, m)
			assert.Equal(t, 10, d)
			assert.Equal(t, 0, got.Start.Hour())
			assert.Equal(t, 0, got.Start.Minute())
			assert.True(t, got.Start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)))
			assert.True(t, got.End.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)))
			assert.True(t, got.AllDay)
		})
	}
}

func TestFromGoogleTimedEvent(t *testing.T) {
	loc := mustLoad(t, "America/Sao_Paulo")
	ev := GoogleEvent{
		ID:       "timed",
		Summary:  "Call",
		HTMLLink: "https://calendar.google.com/event?eid=1",
		Start:    EventTime{DateTime: "2024-03-10T10:00:00-03:00"},
		End:      EventTime{DateTime: "2024-03-10T14:30:00Z"},
	}

	got, err := FromGoogle(ev, loc)
	require.NoError(t, err)

	assert.Equal(t, "google:timed", got.ID)
	assert.Equal(t, model.EventOriginExternal, got.Origin)
	assert.True(t, got.ReadOnly)
	assert.False(t, got.AllDay)
	assert.True(t, got.Start.Equal(time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)))
	assert.True(t, got.End.Equal(time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, ExternalEventColor, got.Color)
	assert.Equal(t, "https://calendar.google.com/event?eid=1", got.HTMLLink)
}

func TestFromGoogleRejectsMalformedDates(t *testing.T) {
	cases := []EventTime{
		{},
		{Date: "2024-02-30"},
		{Date: "2024/03/10"},
		{Date: "2024-13-01"},
		{DateTime: "10/03/2024 10:00"},
	}

	for _, start := range cases {
		_, err := FromGoogle(GoogleEvent{ID: "x", Start: start, End: EventTime{Date: "2024-03-11"}}, time.UTC)
		assert.Error(t, err, "start %+v", start)
	}
}

func TestFromGoogleListSkipsCancelledAndMalformed(t *testing.T) {
	events := []GoogleEvent{
		{ID: "ok", Summary: "", Start: EventTime{Date: "2024-03-10"}, End: EventTime{Date: "2024-03-11"}},
		{ID: "gone", Status: StatusCancelled, Start: EventTime{Date: "2024-03-10"}, End: EventTime{Date: "2024-03-11"}},
		{ID: "bad", Start: EventTime{Date: "nope"}, End: EventTime{Date: "2024-03-11"}},
	}

	got, skipped := FromGoogleList(events, time.UTC)

	require.Len(t, got, 1)
	assert.Equal(t, "google:ok", got[0].ID)
	assert.Equal(t, untitled, got[0].Title)
	assert.Equal(t, 1, skipped)
}

func TestWindowStartsOnFirstDayOfPreviousMonth(t *testing.T) {
	loc := mustLoad(t, "America/Sao_Paulo")
	// 2024-01-01 01:00 UTC is still 2023-12-31 in Sao Paulo
	now := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	from, to := Window(now, loc, 24*time.Hour)

	assert.True(t, from.Equal(time.Date(2023, 11, 1, 0, 0, 0, 0, loc)))
	assert.True(t, to.Equal(now.Add(24*time.Hour)))
}

func TestDayBounds(t *testing.T) {
	loc := mustLoad(t, "Asia/Tokyo")
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) // 05:00 on the 11th in Tokyo

	start, end := DayBounds(now, loc)

	assert.True(t, start.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
