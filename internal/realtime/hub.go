// Package realtime fans out per-user table change notifications to
// in-process subscribers such as open server-sent event streams.
package realtime

import (
	"sync"
	"time"
)

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"

	// AllTables subscribes to every table.
	AllTables = "*"
)

const (
	TableProfiles     = "profiles"
	TableTransactions = "transactions"
	TableGoals        = "goals"
	TableEvents       = "events"
	TableIntegrations = "google_integrations"
)

// Tables lists every table that publishes changes.
var Tables = []string{TableProfiles, TableTransactions, TableGoals, TableEvents, TableIntegrations}

type Change struct {
	UserID   string    `json:"-"`
	Table    string    `json:"table"`
	Op       string    `json:"op"`
	RecordID string    `json:"id,omitempty"`
	At       time.Time `json:"at"`
}

type subscription struct {
	table    string
	callback func(Change)
}

// Hub is safe for concurrent use. A nil *Hub drops every publish.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]subscription // user id -> subscriptions
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]subscription)}
}

// Subscribe registers callback for changes of one user's table (or AllTables).
// The returned function removes the subscription and may be called more than once.
func (h *Hub) Subscribe(userID, table string, callback func(Change)) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]subscription)
	}
	h.subs[userID][id] = subscription{table: table, callback: callback}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
}

// Publish calls matching callbacks synchronously, outside the lock.
// Callbacks must not block.
func (h *Hub) Publish(c Change) {
	if h == nil {
		return
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}

	h.mu.RLock()
	var targets []func(Change)
	for _, sub := range h.subs[c.UserID] {
		if sub.table == AllTables || sub.table == c.Table {
			targets = append(targets, sub.callback)
		}
	}
	h.mu.RUnlock()

	for _, cb := range targets {
		cb(c)
	}
}

// Subscribers counts active subscriptions of a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
