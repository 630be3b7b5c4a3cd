package consumer

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/events"
)

// Query selects which record-set a subscriber sees: one operator's day, or
// every record for the admin views.
type Query struct {
	OperatorID string
	Date       string
}

func (q Query) matches(rec domain.ActivityRecord) bool {
	if q.OperatorID != "" && rec.OperatorID != q.OperatorID {
		return false
	}
	if q.Date != "" && rec.Date != q.Date {
		return false
	}
	return true
}

type subscription struct {
	query Query
	ch    chan []domain.ActivityRecord
}

// Hub rebuilds the authoritative record set from record events and fans out
// whole-set snapshots. Each emission replaces the previous one; subscribers
// recompute their derived views (completion set, heatmap, tables)
// synchronously per snapshot.
type Hub struct {
	mu      sync.Mutex
	records map[string]domain.ActivityRecord
	subs    map[int]subscription
	nextSub int
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		records: make(map[string]domain.ActivityRecord),
		subs:    make(map[int]subscription),
	}
}

// Subscribe registers a query and returns a snapshot channel plus a cancel
// function. The current snapshot is delivered immediately; a slow consumer
// only ever observes the latest emission, never a backlog.
func (h *Hub) Subscribe(query Query) (<-chan []domain.ActivityRecord, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSub
	h.nextSub++

	sub := subscription{query: query, ch: make(chan []domain.ActivityRecord, 1)}
	h.subs[id] = sub
	sub.ch <- h.snapshotLocked(query)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
	}
	return sub.ch, cancel
}

// Snapshot returns the current record set for a query, newest first.
func (h *Hub) Snapshot(query Query) []domain.ActivityRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked(query)
}

// Upsert installs a freshly started record and notifies subscribers.
func (h *Hub) Upsert(rec domain.ActivityRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[rec.ID] = rec
	recordSnapshotSize("all", len(h.records))
	h.broadcastLocked(rec)
}

// ApplyChange folds a state transition into the held record. Changes for
// ids the hub has not seen yet are dropped; the next full snapshot from the
// started event will carry them.
func (h *Hub) ApplyChange(evt events.RecordStateChanged) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec, ok := h.records[evt.RecordID]
	if !ok {
		return
	}

	rec.State = domain.State(evt.State)
	if evt.PausedAt != nil {
		rec.PausedAt = evt.PausedAt
	}
	if evt.ResumedAt != nil {
		rec.ResumedAt = evt.ResumedAt
	}
	if evt.EndedAt != nil {
		rec.EndedAt = evt.EndedAt
	}
	if evt.DurationMinutes != nil {
		rec.DurationMinutes = evt.DurationMinutes
	}
	h.records[evt.RecordID] = rec
	h.broadcastLocked(rec)
}

func (h *Hub) snapshotLocked(query Query) []domain.ActivityRecord {
	out := make([]domain.ActivityRecord, 0)
	for _, rec := range h.records {
		if query.matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (h *Hub) broadcastLocked(changed domain.ActivityRecord) {
	for _, sub := range h.subs {
		if !sub.query.matches(changed) {
			continue
		}
		snap := h.snapshotLocked(sub.query)
		select {
		case sub.ch <- snap:
		default:
			// Replace the undelivered snapshot with the fresh one.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snap
		}
	}
}

// ProjectionHandler feeds consumed record events into a Hub.
type ProjectionHandler struct {
	hub *Hub
}

// NewProjectionHandler constructs a handler updating the provided hub.
func NewProjectionHandler(hub *Hub) *ProjectionHandler {
	return &ProjectionHandler{hub: hub}
}

// Handle decodes the event payload and applies it to the hub. Unknown event
// types are ignored so topic evolution never wedges the consumer group.
func (h *ProjectionHandler) Handle(_ context.Context, msg Message) error {
	switch msg.EventType {
	case "record.started":
		var evt events.RecordStarted
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		h.hub.Upsert(domain.ActivityRecord{
			ID:            evt.RecordID,
			OperatorID:    evt.OperatorID,
			OperatorName:  evt.OperatorName,
			OperatorEmail: evt.OperatorEmail,
			Name:          evt.Name,
			Detail:        evt.Detail,
			Shift:         evt.Shift,
			State:         domain.StateInProgress,
			StartedAt:     evt.StartedAt,
			Date:          evt.Date,
			CreatedAt:     evt.CreatedAt,
		})
	case "record.state_changed":
		var evt events.RecordStateChanged
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}
		h.hub.ApplyChange(evt)
	}
	return nil
}
