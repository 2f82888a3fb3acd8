package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/repository"
	"github.com/templui/finboard/internal/service"
	"github.com/templui/finboard/internal/ui"
	"github.com/templui/finboard/internal/validation"
)

const maxBodyBytes = 1 << 20

// errorStatus maps a sentinel error to its HTTP status and error code.
// The first match wins, so more specific errors come first.
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{validation.ErrAvatarTooLarge, http.StatusRequestEntityTooLarge, "file_too_large"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrPasswordlessLogin, http.StatusUnauthorized, "passwordless_account"},
	{service.ErrInvalidSession, http.StatusUnauthorized, "unauthorized"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrCalendarNotConnected, http.StatusNotFound, "not_connected"},
	{service.ErrExternalEventReadOnly, http.StatusConflict, "read_only"},
	{service.ErrReconnectRequired, http.StatusConflict, "reconnect_required"},
	{service.ErrTokenRefreshFailed, http.StatusBadGateway, "refresh_failed"},
	{service.ErrCalendarNotConfigured, http.StatusServiceUnavailable, "not_configured"},
	{repository.ErrTransactionNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrGoalNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrEventNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrProfileNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrFileNotFound, http.StatusNotFound, "not_found"},
}

// respondError writes the JSON error for err. Validation errors carry their
// own message; unknown errors are logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if service.IsValidation(err) {
		ui.Error(w, http.StatusBadRequest, err.Error(), "invalid_input")
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				slog.Warn("request failed", "error", err, "path", r.URL.Path, "user_id", ctxkeys.UserID(r.Context()))
			}
			ui.Error(w, e.status, e.err.Error(), e.code)
			return
		}
	}

	slog.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", ctxkeys.UserID(r.Context()),
		"request_id", ctxkeys.RequestID(r.Context()),
	)
	ui.Error(w, http.StatusInternalServerError, "internal server error", "internal_error")
}

func badRequest(w http.ResponseWriter, message string) {
	ui.Error(w, http.StatusBadRequest, message, "invalid_input")
}

// decodeJSON reads a JSON body of at most maxBodyBytes into v. On failure the
// 400 response is already written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

// parseDay accepts RFC 3339 timestamps and plain YYYY-MM-DD dates. Plain
// dates are midnight in loc.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, value, loc)
}

// optionalDay is parseDay for fields that may be empty.
func optionalDay(value string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseDay(value, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}
