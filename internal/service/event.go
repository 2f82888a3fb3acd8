package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/finboard/internal/calendar"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/realtime"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/validation"
	"golang.org/x/sync/errgroup"
)

var (
	ErrExternalEventReadOnly = errors.New("this event comes from Google Calendar, edit it there")
	ErrExternalCreateFailed  = errors.New("event saved but could not be created in Google Calendar")
	ErrEventEndBeforeStart   = errors.New("end must not be before start")
	ErrEventStartRequired    = errors.New("start is required")
)

// CalendarProvider is the external calendar. *calendar.Client implements it.
type CalendarProvider interface {
	ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]calendar.GoogleEvent, error)
	CreateEvent(ctx context.Context, accessToken string, ev calendar.GoogleEvent) (*calendar.GoogleEvent, error)
}

// AccessTokenSource hands out a usable provider token for a user.
// *CalendarTokenService implements it.
type AccessTokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Color       string    `json:"color"`
}

type EventService struct {
	eventRepo repository.EventRepository
	hub       *realtime.Hub
	provider  CalendarProvider
	tokens    AccessTokenSource
	lookahead time.Duration
	now       func() time.Time
}

// NewEventService works without provider or tokens; the agenda is then local only.
func NewEventService(
	eventRepo repository.EventRepository,
	hub *realtime.Hub,
	provider CalendarProvider,
	tokens AccessTokenSource,
	lookahead time.Duration,
) *EventService {
	if lookahead <= 0 {
		lookahead = 180 * 24 * time.Hour
	}
	return &EventService{
		eventRepo: eventRepo,
		hub:       hub,
		provider:  provider,
		tokens:    tokens,
		lookahead: lookahead,
		now:       time.Now,
	}
}

// Agenda returns every stored event plus the external events of the rolling
// window, sorted by start. External problems are logged and the agenda falls
// back to local events.
func (s *EventService) Agenda(ctx context.Context, userID string, loc *time.Location) ([]model.CalendarEvent, error) {
	from, to := calendar.Window(s.now(), loc, s.lookahead)
	return s.merged(ctx, userID, loc, from, to, func() ([]*model.CalendarEvent, error) {
		return s.eventRepo.All(userID)
	})
}

// Today returns the agenda entries starting on the current day in loc.
func (s *EventService) Today(ctx context.Context, userID string, loc *time.Location) ([]model.CalendarEvent, error) {
	from, to := calendar.DayBounds(s.now(), loc)

	events, err := s.merged(ctx, userID, loc, from, to, func() ([]*model.CalendarEvent, error) {
		return s.eventRepo.Events(userID, from, to)
	})
	if err != nil {
		return nil, err
	}

	today := events[:0]
	for _, e := range events {
		if !e.Start.Before(from) && e.Start.Before(to) {
			today = append(today, e)
		}
	}
	return today, nil
}

// merged runs loadLocal and the external fetch for [from, to) concurrently.
func (s *EventService) merged(
	ctx context.Context,
	userID string,
	loc *time.Location,
	from, to time.Time,
	loadLocal func() ([]*model.CalendarEvent, error),
) ([]model.CalendarEvent, error) {
	var local, external []model.CalendarEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stored, err := loadLocal()
		if err != nil {
			return fmt.Errorf("failed to get events: %w", err)
		}
		local = make([]model.CalendarEvent, 0, len(stored))
		for _, e := range stored {
			local = append(local, *e)
		}
		return nil
	})
	g.Go(func() error {
		external = s.external(gctx, userID, loc, from, to)
		return nil
	})

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	events := calendar.Merge(local, external)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// external never fails; an unavailable provider yields no events.
func (s *EventService) external(ctx context.Context, userID string, loc *time.Location, from, to time.Time) []model.CalendarEvent {
	if s.provider == nil || s.tokens == nil {
		return nil
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCalendarNotConnected) {
			return nil
		}
		slog.Warn("skipping google calendar events", "error", err, "user_id", userID)
		return nil
	}

	items, err := s.provider.ListEvents(ctx, token, from, to)
	if err != nil {
		slog.Warn("failed to fetch google calendar events", "error", err, "user_id", userID)
		return nil
	}

	events, skipped := calendar.FromGoogleList(items, loc)
	if skipped > 0 {
		slog.Warn("skipped unreadable google calendar events", "count", skipped, "user_id", userID)
	}
	return events
}

// Create stores the event. With pushToProvider it is also created in Google
// Calendar; a failure there returns the saved event together with an error
// matching ErrExternalCreateFailed.
func (s *EventService) Create(ctx context.Context, userID string, input EventInput, pushToProvider bool) (*model.CalendarEvent, error) {
	err := s.normalize(&input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	event := &model.CalendarEvent{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Start:       input.Start,
		End:         input.End,
		Color:       input.Color,
		Origin:      model.EventOriginLocal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.eventRepo.Create(event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableEvents, Op: realtime.OpInsert, RecordID: event.ID})

	if pushToProvider {
		err = s.push(ctx, userID, event)
		if err != nil {
			slog.Warn("failed to create event in google calendar", "error", err, "user_id", userID, "event_id", event.ID)
			return event, fmt.Errorf("%w: %w", ErrExternalCreateFailed, err)
		}
	}

	return event, nil
}

func (s *EventService) push(ctx context.Context, userID string, event *model.CalendarEvent) error {
	if s.provider == nil || s.tokens == nil {
		return ErrCalendarNotConfigured
	}

	token, err := s.tokens.AccessToken(ctx, userID)
	if err != nil {
		return err
	}

	_, err = s.provider.CreateEvent(ctx, token, calendar.ToGoogle(event.Title, event.Description, event.Start, event.End))
	return err
}

func (s *EventService) Update(userID, id string, input EventInput) (*model.CalendarEvent, error) {
	if model.IsExternalEventID(id) {
		return nil, ErrExternalEventReadOnly
	}

	err := s.normalize(&input)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.ByID(userID, id)
	if err != nil {
		return nil, err
	}

	event.Title = input.Title
	event.Description = input.Description
	event.Start = input.Start
	event.End = input.End
	event.Color = input.Color
	event.UpdatedAt = s.now()

	err = s.eventRepo.Update(event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableEvents, Op: realtime.OpUpdate, RecordID: id})
	return event, nil
}

func (s *EventService) Delete(userID, id string) error {
	if model.IsExternalEventID(id) {
		return ErrExternalEventReadOnly
	}

	err := s.eventRepo.Delete(userID, id)
	if err != nil {
		return err
	}

	s.hub.Publish(realtime.Change{UserID: userID, Table: realtime.TableEvents, Op: realtime.OpDelete, RecordID: id})
	return nil
}

func (s *EventService) normalize(input *EventInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Color = strings.TrimSpace(input.Color)

	err := validation.ValidateTitle(input.Title)
	if err != nil {
		return invalid(err)
	}
	if input.Start.IsZero() {
		return invalid(ErrEventStartRequired)
	}
	if input.End.IsZero() {
		input.End = input.Start
	}
	if input.End.Before(input.Start) {
		return invalid(ErrEventEndBeforeStart)
	}

	if input.Color == "" {
		input.Color = model.DefaultEventColor
	}
	return invalid(validation.ValidateColor(input.Color))
}
