package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/templui/finboard/internal/ctxkeys"
	"github.com/templui/finboard/internal/realtime"
)

const (
	realtimeBuffer    = 32
	realtimeHeartbeat = 25 * time.Second
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// parseTables reads ?tables=a,b. Empty means every table.
func parseTables(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{realtime.AllTables}, nil
	}

	var tables []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if t != realtime.AllTables && !slices.Contains(realtime.Tables, t) {
			return nil, fmt.Errorf("unknown table %q", t)
		}
		if !slices.Contains(tables, t) {
			tables = append(tables, t)
		}
	}
	if slices.Contains(tables, realtime.AllTables) || len(tables) == 0 {
		return []string{realtime.AllTables}, nil
	}
	return tables, nil
}

// Stream sends the user's table changes as server-sent events until the
// client goes away. Changes that arrive while the buffer is full are dropped;
// clients refetch on the next change anyway.
func (h *RealtimeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	tables, err := parseTables(r.URL.Query().Get("tables"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut the stream
	_ = rc.SetWriteDeadline(time.Time{})

	changes := make(chan realtime.Change, realtimeBuffer)
	send := func(c realtime.Change) {
		select {
		case changes <- c:
		default:
			slog.Warn("realtime buffer full, change dropped", "user_id", userID, "table", c.Table)
		}
	}

	for _, table := range tables {
		unsubscribe := h.hub.Subscribe(userID, table, send)
		defer unsubscribe()
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_, err = fmt.Fprint(w, ": connected\n\n")
	if err == nil {
		err = rc.Flush()
	}
	if err != nil {
		slog.Warn("realtime stream not writable", "error", err, "user_id", userID)
		return
	}

	slog.Debug("realtime stream opened", "user_id", userID, "tables", tables)

	heartbeat := time.NewTicker(realtimeHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("realtime stream closed", "user_id", userID)
			return

		case c := <-changes:
			payload, err := json.Marshal(c)
			if err != nil {
				slog.Error("failed to encode change", "error", err)
				continue
			}
			_, err = fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			if err == nil {
				err = rc.Flush()
			}
			if err != nil {
				return
			}

		case <-heartbeat.C:
			_, err := fmt.Fprint(w, ": ping\n\n")
			if err == nil {
				err = rc.Flush()
			}
			if err != nil {
				return
			}
		}
	}
}
