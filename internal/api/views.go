package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/handoff"
	"example.com/shiftlog/internal/report"
)

// RecordView exposes full details about an activity record.
type RecordView struct {
	RecordID        string     `json:"record_id"`
	OperatorID      string     `json:"operator_id"`
	OperatorName    string     `json:"operator_name"`
	OperatorEmail   string     `json:"operator_email"`
	Name            string     `json:"name"`
	Detail          string     `json:"detail,omitempty"`
	Title           string     `json:"title"`
	Shift           string     `json:"shift,omitempty"`
	State           string     `json:"state"`
	StartedAt       time.Time  `json:"started_at"`
	PausedAt        *time.Time `json:"paused_at,omitempty"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Date            string     `json:"date"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toRecordView(rec domain.ActivityRecord) RecordView {
	return RecordView{
		RecordID:        rec.ID,
		OperatorID:      rec.OperatorID,
		OperatorName:    rec.OperatorName,
		OperatorEmail:   rec.OperatorEmail,
		Name:            rec.Name,
		Detail:          rec.Detail,
		Title:           rec.DisplayTitle(),
		Shift:           rec.Shift,
		State:           string(rec.State),
		StartedAt:       rec.StartedAt,
		PausedAt:        rec.PausedAt,
		ResumedAt:       rec.ResumedAt,
		EndedAt:         rec.EndedAt,
		DurationMinutes: rec.DurationMinutes,
		Date:            rec.Date,
		CreatedAt:       rec.CreatedAt,
	}
}

func toRecordViews(records []domain.ActivityRecord) []RecordView {
	items := make([]RecordView, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordView(rec))
	}
	return items
}

// ListRecordsResponse packages list results.
type ListRecordsResponse struct {
	Items []RecordView `json:"items"`
}

// DaySummaryResponse backs the operator dashboard tiles.
type DaySummaryResponse struct {
	Date         string `json:"date"`
	Total        int    `json:"total"`
	TotalMinutes int    `json:"total_minutes"`
}

// ShiftView describes one catalog shift.
type ShiftView struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	TimeWindow  string   `json:"time_window"`
	Predefined  []string `json:"predefined"`
	Recurring   []string `json:"recurring"`
}

// ListShiftsResponse lists the catalog plus the wall-clock default.
type ListShiftsResponse struct {
	Shifts  []ShiftView `json:"shifts"`
	Default string      `json:"default"`
}

// OfferedResponse lists the predefined activities still offered today.
type OfferedResponse struct {
	Shift   string   `json:"shift"`
	Offered []string `json:"offered"`
}

// PendingResponse lists the operator's pending handoff items in order.
type PendingResponse struct {
	Items []handoff.Item `json:"items"`
}

// ReportResponse carries the structured report plus its canonical text
// rendering for the sharing collaborator.
type ReportResponse struct {
	Operator   string         `json:"operator"`
	Email      string         `json:"email"`
	Shift      string         `json:"shift"`
	Date       string         `json:"date"`
	CompiledAt time.Time      `json:"compiled_at"`
	Completed  []RecordView   `json:"completed"`
	Active     []RecordView   `json:"active"`
	Pending    []handoff.Item `json:"pending"`
	Totals     report.Totals  `json:"totals"`
	Text       string         `json:"text"`
}

// WorkloadResponse is the admin aggregation view.
type WorkloadResponse struct {
	TotalCount        int        `json:"total_count"`
	TotalMinutes      int        `json:"total_minutes"`
	DistinctOperators int        `json:"distinct_operators"`
	Heatmap           [7][24]int `json:"heatmap"`
	SeverityLevels    [7][24]int `json:"severity_levels"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Rejected
// transitions surface as conflicts so the caller can re-present the
// operation; nothing here is fatal.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity record not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}
