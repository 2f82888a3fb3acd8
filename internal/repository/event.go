package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/finboard/internal/model"
)

var (
	ErrEventNotFound = errors.New("event not found")
)

type EventRepository interface {
	Create(event *model.CalendarEvent) error
	ByID(userID, id string) (*model.CalendarEvent, error)
	// All returns every event of the user, ordered by start.
	All(userID string) ([]*model.CalendarEvent, error)
	// Events returns events overlapping [from, to), ordered by start.
	Events(userID string, from, to time.Time) ([]*model.CalendarEvent, error)
	Update(event *model.CalendarEvent) error
	Delete(userID, id string) error
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(event *model.CalendarEvent) error {
	query := `INSERT INTO events (id, user_id, title, description, start_time, end_time, color, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		event.ID,
		event.UserID,
		event.Title,
		event.Description,
		event.Start.UTC(),
		event.End.UTC(),
		event.Color,
		event.CreatedAt.UTC(),
		event.UpdatedAt.UTC(),
	)

	return err
}

func (r *eventRepository) ByID(userID, id string) (*model.CalendarEvent, error) {
	event := &model.CalendarEvent{}
	query := `SELECT * FROM events WHERE id = $1 AND user_id = $2`

	err := r.db.Get(event, query, id, userID)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}

	markLocal(event)
	return event, nil
}

func (r *eventRepository) All(userID string) ([]*model.CalendarEvent, error) {
	var events []*model.CalendarEvent
	query := `SELECT * FROM events WHERE user_id = $1 ORDER BY start_time ASC`

	err := r.db.Select(&events, query, userID)
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		markLocal(e)
	}
	return events, nil
}

func (r *eventRepository) Events(userID string, from, to time.Time) ([]*model.CalendarEvent, error) {
	var events []*model.CalendarEvent
	query := `SELECT * FROM events
	          WHERE user_id = $1 AND start_time < $2 AND end_time >= $3
	          ORDER BY start_time ASC`

	err := r.db.Select(&events, query, userID, to.UTC(), from.UTC())
	if err != nil {
		return nil, err
	}

	for _, e := range events {
		markLocal(e)
	}
	return events, nil
}

func (r *eventRepository) Update(event *model.CalendarEvent) error {
	event.UpdatedAt = time.Now()
	query := `UPDATE events
	          SET title = $1, description = $2, start_time = $3, end_time = $4, color = $5, updated_at = $6
	          WHERE id = $7 AND user_id = $8`

	result, err := r.db.Exec(query,
		event.Title,
		event.Description,
		event.Start.UTC(),
		event.End.UTC(),
		event.Color,
		event.UpdatedAt.UTC(),
		event.ID,
		event.UserID,
	)

	return expectRow(result, err, ErrEventNotFound)
}

func (r *eventRepository) Delete(userID, id string) error {
	result, err := r.db.Exec(`DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	return expectRow(result, err, ErrEventNotFound)
}

func markLocal(e *model.CalendarEvent) {
	e.Origin = model.EventOriginLocal
	e.ReadOnly = false
}
