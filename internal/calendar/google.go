package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/calendar/v3"
	// Scope grants read/write access to the user's calendars.
	Scope = "https://www.googleapis.com/auth/calendar"

	StatusCancelled = "cancelled"

	pageSize = 250
)

var (
	// ErrUnauthorized means the provider rejected the access token.
	ErrUnauthorized = errors.New("google calendar rejected the access token")
)

// APIError is a non-2xx answer from the Calendar API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google calendar api: status %d: %s", e.StatusCode, e.Body)
}

// EventTime is either an all-day date (YYYY-MM-DD) or an RFC 3339 dateTime.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type GoogleEvent struct {
	ID          string    `json:"id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

type eventList struct {
	Items         []GoogleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// Client calls the Google Calendar REST API with a caller-supplied bearer token.
type Client struct {
	baseURL    string
	calendarID string
	timeout    time.Duration
}

func NewClient(baseURL, calendarID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		calendarID: calendarID,
		timeout:    15 * time.Second,
	}
}

func (c *Client) httpClient(ctx context.Context, accessToken string) *http.Client {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	client.Timeout = c.timeout
	return client
}

func (c *Client) eventsURL() string {
	return c.baseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
}

// ListEvents returns single (expanded) events in [from, to), ordered by start.
// Only the first page of up to 250 events is read.
func (c *Client) ListEvents(ctx context.Context, accessToken string, from, to time.Time) ([]GoogleEvent, error) {
	params := url.Values{}
	params.Set("timeMin", from.UTC().Format(time.RFC3339))
	params.Set("timeMax", to.UTC().Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.eventsURL()+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var list eventList
	err = c.do(ctx, accessToken, req, &list)
	if err != nil {
		return nil, err
	}

	return list.Items, nil
}

// CreateEvent inserts a timed event into the calendar.
func (c *Client) CreateEvent(ctx context.Context, accessToken string, ev GoogleEvent) (*GoogleEvent, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.eventsURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	created := &GoogleEvent{}
	err = c.do(ctx, accessToken, req, created)
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (c *Client) do(ctx context.Context, accessToken string, req *http.Request, out any) error {
	resp, err := c.httpClient(ctx, accessToken).Do(req)
	if err != nil {
		return fmt.Errorf("google calendar request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode google calendar response: %w", err)
	}
	return nil
}

// ToGoogle builds the insert payload for a timed event.
func ToGoogle(title, description string, start, end time.Time) GoogleEvent {
	return GoogleEvent{
		Summary:     title,
		Description: description,
		Start:       EventTime{DateTime: start.Format(time.RFC3339)},
		End:         EventTime{DateTime: end.Format(time.RFC3339)},
	}
}
