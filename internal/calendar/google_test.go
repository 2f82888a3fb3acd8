package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEventsSendsWindowAndBearer(t *testing.T) {
	from := time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 6, 0)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "2024-02-01T03:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2024-08-01T03:00:00Z", q.Get("timeMax"))
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "250", q.Get("maxResults"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "e1", "summary": "Holiday", "start": map[string]string{"date": "2024-03-10"}, "end": map[string]string{"date": "2024-03-11"}},
			},
		})
	}))
	defer srv.Close()

	events, err := NewClient(srv.URL, "primary").ListEvents(context.Background(), "token-1", from, to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "2024-03-10", events[0].Start.Date)
}

func TestListEventsMapsErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, status)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.ListEvents(context.Background(), "t", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUnauthorized)

	status = http.StatusForbidden
	_, err = client.ListEvents(context.Background(), "t", time.Now(), time.Now())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestCreateEventPostsTimedPayload(t *testing.T) {
	start := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/work@example.com/events", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body GoogleEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Planning", body.Summary)
		assert.Equal(t, "2024-03-10T10:00:00Z", body.Start.DateTime)
		assert.Equal(t, "2024-03-10T11:00:00Z", body.End.DateTime)
		assert.Empty(t, body.Start.Date)

		body.ID = "created-1"
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	created, err := NewClient(srv.URL, "work@example.com").CreateEvent(context.Background(), "tok",
		ToGoogle("Planning", "", start, start.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)
}
