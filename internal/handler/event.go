package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/model"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

type EventHandler struct {
	eventService   *service.EventService
	profileService *service.ProfileService
}

func NewEventHandler(eventService *service.EventService, profileService *service.ProfileService) *EventHandler {
	return &EventHandler{
		eventService:   eventService,
		profileService: profileService,
	}
}

type createEventRequest struct {
	service.EventInput
	PushToGoogle bool `json:"push_to_google"`
}

type eventResponse struct {
	*model.CalendarEvent
	ExternalSyncError string `json:"external_sync_error,omitempty"`
}

// Agenda lists local and Google events of the rolling window.
func (h *EventHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	events, err := h.eventService.Agenda(r.Context(), ctxkeys.UserID(r.Context()), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, events)
}

func (h *EventHandler) Today(w http.ResponseWriter, r *http.Request) {
	loc := h.profileService.Location(ctxkeys.Profile(r.Context()))

	events, err := h.eventService.Today(r.Context(), ctxkeys.UserID(r.Context()), loc)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, events)
}

// Create answers 201 even when the Google copy failed; the local event exists
// and the failure is reported in external_sync_error.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req createEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	event, err := h.eventService.Create(r.Context(), user.ID, req.EventInput, req.PushToGoogle)
	if err != nil {
		if event != nil && errors.Is(err, service.ErrExternalCreateFailed) {
			slog.Warn("event saved locally only", "error", err, "user_id", user.ID, "event_id", event.ID)
			ui.JSON(w, http.StatusCreated, eventResponse{CalendarEvent: event, ExternalSyncError: syncErrorMessage(err)})
			return
		}
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, eventResponse{CalendarEvent: event})
}

func syncErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrCalendarNotConnected):
		return service.ErrCalendarNotConnected.Error()
	case errors.Is(err, service.ErrReconnectRequired):
		return service.ErrReconnectRequired.Error()
	case errors.Is(err, service.ErrCalendarNotConfigured):
		return service.ErrCalendarNotConfigured.Error()
	default:
		return service.ErrExternalCreateFailed.Error()
	}
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input service.EventInput
	if !decodeJSON(w, r, &input) {
		return
	}

	event, err := h.eventService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), input)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, event)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.eventService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
