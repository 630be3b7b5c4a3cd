package consumer

import (
	"encoding/json"
	"net/http"

	"example.com/shiftlog/internal/domain"
)

// LiveHandler exposes the hub's projected record set over HTTP. Snapshots
// serve one-shot reads; the stream endpoint pushes a fresh snapshot to the
// client on every change, newest emission winning.
type LiveHandler struct {
	hub *Hub
}

// NewLiveHandler constructs a handler over the provided hub.
func NewLiveHandler(hub *Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// RegisterRoutes wires the live endpoints to the mux.
func (h *LiveHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/live/records", h.snapshot)
	mux.HandleFunc("/v1/live/records/stream", h.stream)
}

func queryFromRequest(r *http.Request) Query {
	q := r.URL.Query()
	return Query{
		OperatorID: q.Get("operator_id"),
		Date:       q.Get("date"),
	}
}

type snapshotPayload struct {
	Items []domain.ActivityRecord `json:"items"`
}

func (h *LiveHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshotPayload{Items: h.hub.Snapshot(queryFromRequest(r))})
}

// stream delivers snapshots as server-sent events until the client goes
// away. Each event is the complete record set for the query, not a delta.
func (h *LiveHandler) stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := h.hub.Subscribe(queryFromRequest(r))
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-ch:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(snapshotPayload{Items: snap}); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
