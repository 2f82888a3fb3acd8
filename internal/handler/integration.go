package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
)

const (
	actionGetToken  = "get_token"
	actionSaveToken = "save_token"
)

// IntegrationHandler serves the Google Calendar connection. With a nil
// token service every endpoint answers 503.
type IntegrationHandler struct {
	calendarTokens *service.CalendarTokenService
	appURL         string
}

func NewIntegrationHandler(calendarTokens *service.CalendarTokenService, appURL string) *IntegrationHandler {
	return &IntegrationHandler{
		calendarTokens: calendarTokens,
		appURL:         strings.TrimSuffix(appURL, "/"),
	}
}

func (h *IntegrationHandler) configured(w http.ResponseWriter, r *http.Request) bool {
	if h.calendarTokens == nil {
		respondError(w, r, service.ErrCalendarNotConfigured)
		return false
	}
	return true
}

func (h *IntegrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}

	status, err := h.calendarTokens.Status(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ui.JSON(w, http.StatusOK, status)
}

type connectResponse struct {
	URL string `json:"url"`
}

// Connect redirects to the Google consent screen. Clients asking for JSON get
// the URL instead so they can navigate themselves.
func (h *IntegrationHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}

	url, err := h.calendarTokens.AuthURL(ctxkeys.UserID(r.Context()), r.URL.Query().Get("return_to"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		ui.JSON(w, http.StatusOK, connectResponse{URL: url})
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback is reached by the browser coming back from Google. The signed
// state identifies the user, so no session is required.
func (h *IntegrationHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.calendarTokens == nil {
		h.callbackFailed(w, r, http.StatusServiceUnavailable, "Google Calendar is not available on this server.")
		return
	}

	q := r.URL.Query()
	if googleErr := q.Get("error"); googleErr != "" {
		slog.Info("google calendar consent declined", "google_error", googleErr)
		h.callbackFailed(w, r, http.StatusBadRequest, "Google Calendar access was not granted.")
		return
	}

	userID, redirect, err := h.calendarTokens.HandleCallback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOAuthState):
			slog.Warn("calendar oauth state rejected", "error", err)
			h.callbackFailed(w, r, http.StatusBadRequest, "This connection link is invalid or has expired. Please start again.")
		case errors.Is(err, service.ErrCodeExchangeFailed):
			slog.Warn("calendar code exchange rejected", "error", err)
			h.callbackFailed(w, r, http.StatusBadRequest, "Google did not accept the authorization. Please start again.")
		default:
			slog.Error("calendar callback failed", "error", err)
			h.callbackFailed(w, r, http.StatusBadGateway, "We could not connect Google Calendar right now. Please try again later.")
		}
		return
	}

	slog.Info("calendar callback completed", "user_id", userID)
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (h *IntegrationHandler) callbackFailed(w http.ResponseWriter, r *http.Request, status int, message string) {
	ui.Render(w, r, status, ui.ResultPage(ui.ResultProps{
		Title:    "Google Calendar",
		Message:  message,
		Link:     h.appURL + "/integrations",
		LinkText: "Back to integrations",
	}))
}

type integrationActionRequest struct {
	Action       string `json:"action"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Action runs get_token or save_token. get_token is the only place an access
// token leaves the server; refresh tokens never do.
func (h *IntegrationHandler) Action(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}
	userID := ctxkeys.UserID(r.Context())

	var req integrationActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch req.Action {
	case actionGetToken:
		token, err := h.calendarTokens.AccessToken(r.Context(), userID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		ui.JSON(w, http.StatusOK, accessTokenResponse{AccessToken: token})

	case actionSaveToken:
		err := h.calendarTokens.SaveToken(userID, req.UserID, req.AccessToken, req.RefreshToken, req.ExpiresIn)
		if err != nil {
			respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		badRequest(w, "action must be get_token or save_token")
	}
}

func (h *IntegrationHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if !h.configured(w, r) {
		return
	}

	err := h.calendarTokens.Disconnect(ctxkeys.UserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
