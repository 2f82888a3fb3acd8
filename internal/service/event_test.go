package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/calendar"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/repository"
)

type fakeProvider struct {
	events   []calendar.GoogleEvent
	listErr  error
	created  []calendar.GoogleEvent
	createFn func(calendar.GoogleEvent) error
	tokens   []string
}

func (p *fakeProvider) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]calendar.GoogleEvent, error) {
	p.tokens = append(p.tokens, accessToken)
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.events, nil
}

func (p *fakeProvider) CreateEvent(ctx context.Context, accessToken string, ev calendar.GoogleEvent) (*calendar.GoogleEvent, error) {
	if p.createFn != nil {
		if err := p.createFn(ev); err != nil {
			return nil, err
		}
	}
	p.created = append(p.created, ev)
	ev.ID = "created-1"
	return &ev, nil
}

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) AccessToken(ctx context.Context, userID string) (string, error) {
	return f.token, f.err
}

// countingEventRepo counts every call that reads or writes a single event.
type countingEventRepo struct {
	repository.EventRepository
	calls int
}

func (r *countingEventRepo) ByID(userID, id string) (*model.CalendarEvent, error) {
	r.calls++
	return r.EventRepository.ByID(userID, id)
}

func (r *countingEventRepo) Update(event *model.CalendarEvent) error {
	r.calls++
	return r.EventRepository.Update(event)
}

func (r *countingEventRepo) Delete(userID, id string) error {
	r.calls++
	return r.EventRepository.Delete(userID, id)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAgendaMergesAndDegrades(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "agenda@example.com", model.RoleUser)
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	start := time.Date(2024, 3, 12, 9, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	provider := &fakeProvider{events: []calendar.GoogleEvent{
		{ID: "dup", Summary: "Standup", Start: calendar.EventTime{DateTime: start.Format(time.RFC3339)}, End: calendar.EventTime{DateTime: end.Format(time.RFC3339)}},
		{ID: "holiday", Summary: "Holiday", Start: calendar.EventTime{Date: "2024-03-11"}, End: calendar.EventTime{Date: "2024-03-12"}},
	}}
	svc := NewEventService(env.events, env.hub, provider, fakeTokens{token: "tok"}, 0)
	svc.now = fixedClock(now)

	_, err = svc.Create(context.Background(), user.ID, EventInput{Title: "Standup", Start: start, End: end}, false)
	require.NoError(t, err)

	events, err := svc.Agenda(context.Background(), user.ID, loc)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Holiday", events[0].Title)
	assert.True(t, events[0].AllDay)
	assert.True(t, events[0].ReadOnly)
	assert.True(t, events[0].Start.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)))

	assert.Equal(t, "Standup", events[1].Title)
	assert.Equal(t, model.EventOriginLocal, events[1].Origin)
	assert.Equal(t, []string{"tok"}, provider.tokens)

	provider.listErr = errors.New("boom")
	events, err = svc.Agenda(context.Background(), user.ID, loc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventOriginLocal, events[0].Origin)
}

func TestAgendaKeepsLocalEventsOutsideExternalWindow(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "window@example.com", model.RoleUser)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{}
	svc := NewEventService(env.events, env.hub, provider, fakeTokens{token: "tok"}, 0)
	svc.now = fixedClock(now)

	past := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	future := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	for title, start := range map[string]time.Time{"Old checkup": past, "Next year trip": future} {
		_, err := svc.Create(context.Background(), user.ID, EventInput{Title: title, Start: start, End: start.Add(time.Hour)}, false)
		require.NoError(t, err)
	}

	from, to := calendar.Window(now, time.UTC, svc.lookahead)
	require.True(t, past.Before(from))
	require.True(t, future.After(to))

	events, err := svc.Agenda(context.Background(), user.ID, time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Old checkup", events[0].Title)
	assert.Equal(t, "Next year trip", events[1].Title)
	assert.Equal(t, []string{"tok"}, provider.tokens)
}

func TestAgendaWithoutConnection(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "local@example.com", model.RoleUser)
	provider := &fakeProvider{}

	for _, tokens := range []AccessTokenSource{
		fakeTokens{err: ErrCalendarNotConnected},
		fakeTokens{err: ErrReconnectRequired},
		nil,
	} {
		svc := NewEventService(env.events, env.hub, provider, tokens, 0)
		events, err := svc.Agenda(context.Background(), user.ID, time.UTC)
		require.NoError(t, err)
		assert.Empty(t, events)
	}
	assert.Empty(t, provider.tokens)
}

func TestTodayOnlyReturnsEventsStartingToday(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "today@example.com", model.RoleUser)
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, loc)
	svc := NewEventService(env.events, env.hub, nil, nil, 0)
	svc.now = fixedClock(now)

	create := func(title string, start time.Time) {
		_, err := svc.Create(context.Background(), user.ID, EventInput{Title: title, Start: start, End: start.Add(time.Hour)}, false)
		require.NoError(t, err)
	}
	create("Late", time.Date(2024, 5, 1, 18, 0, 0, 0, loc))
	create("Early", time.Date(2024, 5, 1, 8, 0, 0, 0, loc))
	create("Tomorrow", time.Date(2024, 5, 2, 8, 0, 0, 0, loc))
	create("Yesterday overnight", time.Date(2024, 4, 30, 23, 30, 0, 0, loc))

	events, err := svc.Today(context.Background(), user.ID, loc)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Early", events[0].Title)
	assert.Equal(t, "Late", events[1].Title)
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "validate@example.com", model.RoleUser)
	svc := NewEventService(env.events, env.hub, nil, nil, 0)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input EventInput
	}{
		{"missing title", EventInput{Title: "  ", Start: start}},
		{"missing start", EventInput{Title: "Meeting"}},
		{"end before start", EventInput{Title: "Meeting", Start: start, End: start.Add(-time.Minute)}},
		{"bad color", EventInput{Title: "Meeting", Start: start, Color: "blue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user.ID, tt.input, false)
			assert.True(t, IsValidation(err), "got %v", err)
		})
	}

	event, err := svc.Create(context.Background(), user.ID, EventInput{Title: "Meeting", Start: start}, false)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultEventColor, event.Color)
	assert.True(t, event.End.Equal(start))
}

func TestCreateEventPushFailureKeepsLocalEvent(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "push@example.com", model.RoleUser)
	changes := env.recordChanges(t, user.ID)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	provider := &fakeProvider{createFn: func(calendar.GoogleEvent) error {
		return &calendar.APIError{StatusCode: 403, Body: "insufficient permissions"}
	}}
	svc := NewEventService(env.events, env.hub, provider, fakeTokens{token: "tok"}, 0)

	event, err := svc.Create(context.Background(), user.ID, EventInput{Title: "Dentist", Start: start, End: start.Add(time.Hour)}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExternalCreateFailed)
	require.NotNil(t, event)

	stored, err := env.events.ByID(user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dentist", stored.Title)
	assert.Len(t, *changes, 1)

	provider.createFn = nil
	_, err = svc.Create(context.Background(), user.ID, EventInput{Title: "Gym", Start: start, End: start.Add(time.Hour)}, true)
	require.NoError(t, err)
	require.Len(t, provider.created, 1)
	assert.Equal(t, "Gym", provider.created[0].Summary)

	noProvider := NewEventService(env.events, env.hub, nil, nil, 0)
	_, err = noProvider.Create(context.Background(), user.ID, EventInput{Title: "Run", Start: start}, true)
	assert.ErrorIs(t, err, ErrExternalCreateFailed)
	assert.ErrorIs(t, err, ErrCalendarNotConfigured)
}

func TestExternalEventsAreReadOnly(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.createUser(t, "readonly@example.com", model.RoleUser)
	repo := &countingEventRepo{EventRepository: env.events}
	svc := NewEventService(repo, env.hub, nil, nil, 0)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := svc.Update(user.ID, "google:abc123", EventInput{Title: "Changed", Start: start})
	assert.ErrorIs(t, err, ErrExternalEventReadOnly)

	err = svc.Delete(user.ID, "google:abc123")
	assert.ErrorIs(t, err, ErrExternalEventReadOnly)

	assert.Zero(t, repo.calls)
}

func TestUpdateAndDeleteLocalEvent(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.createUser(t, "owner@example.com", model.RoleUser)
	other, _ := env.createUser(t, "other@example.com", model.RoleUser)
	svc := NewEventService(env.events, env.hub, nil, nil, 0)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	event, err := svc.Create(context.Background(), owner.ID, EventInput{Title: "Review", Start: start, End: start.Add(time.Hour)}, false)
	require.NoError(t, err)

	_, err = svc.Update(other.ID, event.ID, EventInput{Title: "Hijack", Start: start})
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	updated, err := svc.Update(owner.ID, event.ID, EventInput{Title: "Review v2", Start: start, End: start.Add(2 * time.Hour), Color: "#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "Review v2", updated.Title)
	assert.Equal(t, "#ff0000", updated.Color)

	assert.ErrorIs(t, svc.Delete(other.ID, event.ID), repository.ErrEventNotFound)
	require.NoError(t, svc.Delete(owner.ID, event.ID))

	_, err = env.events.ByID(owner.ID, event.ID)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
}
