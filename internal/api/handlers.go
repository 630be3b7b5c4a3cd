// Package api exposes the HTTP handlers for shiftlog.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"example.com/shiftlog/internal/auth"
	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/handoff"
	"example.com/shiftlog/internal/report"
	"example.com/shiftlog/internal/shift"
)

// Handler coordinates HTTP requests with the domain service, the shift
// catalog, and the per-session handoff board.
type Handler struct {
	service *domain.Service
	catalog shift.Catalog
	board   *handoff.Board
	now     func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, catalog shift.Catalog, board *handoff.Board) *Handler {
	return &Handler{
		service: service,
		catalog: catalog,
		board:   board,
		now:     time.Now,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/records", h.records)
	mux.HandleFunc("/v1/records/summary", h.daySummary)
	mux.HandleFunc("/v1/records/", h.recordAction)
	mux.HandleFunc("/v1/shifts", h.shifts)
	mux.HandleFunc("/v1/shifts/", h.shiftOffered)
	mux.HandleFunc("/v1/pending", h.pending)
	mux.HandleFunc("/v1/pending/", h.pendingItem)
	mux.HandleFunc("/v1/report", h.report)
	mux.HandleFunc("/v1/admin/records", h.adminRecords)
	mux.HandleFunc("/v1/admin/workload", h.adminWorkload)
	mux.HandleFunc("/v1/admin/export", h.adminExport)
	mux.HandleFunc("/v1/admin/operators", h.adminOperators)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startRecord(w, r)
	case http.MethodGet:
		h.listRecords(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// StartRecordRequest is the payload for POST /v1/records.
type StartRecordRequest struct {
	Name            string `json:"name"`
	Detail          string `json:"detail,omitempty"`
	Shift           string `json:"shift,omitempty"`
	TZOffsetMinutes int    `json:"tz_offset_minutes,omitempty"`
}

// StartRecordResponse describes the response body for start.
type StartRecordResponse struct {
	Record RecordView `json:"record"`
}

func (h *Handler) startRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	var req StartRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	shiftID := req.Shift
	if shiftID == "" {
		local := h.now().UTC().Add(time.Duration(req.TZOffsetMinutes) * time.Minute)
		shiftID = shift.ForHour(local.Hour())
	} else if _, found := h.catalog.Get(shiftID); !found {
		writeError(w, http.StatusBadRequest, "validation_failed", "unknown shift: "+shiftID)
		return
	}

	rec, err := h.service.Start(r.Context(), domain.StartInput{
		Operator:        claims.Operator(),
		Shift:           shiftID,
		Name:            req.Name,
		Detail:          req.Detail,
		TZOffsetMinutes: req.TZOffsetMinutes,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StartRecordResponse{Record: toRecordView(*rec)})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().UTC().Format("2006-01-02")
	}

	records, err := h.service.DayRecords(r.Context(), claims.Subject, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{Items: toRecordViews(records)})
}

func (h *Handler) daySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().UTC().Format("2006-01-02")
	}

	summary, err := h.service.SummarizeDay(r.Context(), claims.Subject, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DaySummaryResponse{
		Date:         date,
		Total:        summary.Total,
		TotalMinutes: summary.TotalMinutes,
	})
}

func (h *Handler) recordAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeRecordsWrite); !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/records/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected /v1/records/{id}/{action}")
		return
	}
	id, action := parts[0], parts[1]

	var (
		rec *domain.ActivityRecord
		err error
	)
	switch action {
	case "pause":
		rec, err = h.service.Pause(r.Context(), id)
	case "resume":
		rec, err = h.service.Resume(r.Context(), id)
	case "finish":
		rec, err = h.service.Finish(r.Context(), id)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown action: "+action)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*rec))
}

func (h *Handler) shifts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite); !ok {
		return
	}

	defs := h.catalog.All()
	views := make([]ShiftView, 0, len(defs))
	for _, def := range defs {
		views = append(views, ShiftView{
			ID:          def.ID,
			DisplayName: def.DisplayName,
			TimeWindow:  def.TimeWindow,
			Predefined:  def.Predefined,
			Recurring:   def.Recurring,
		})
	}
	writeJSON(w, http.StatusOK, ListShiftsResponse{
		Shifts:  views,
		Default: shift.ForHour(h.now().UTC().Hour()),
	})
}

func (h *Handler) shiftOffered(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/shifts/")
	shiftID := strings.TrimSuffix(rest, "/offered")
	if shiftID == rest || shiftID == "" {
		writeError(w, http.StatusNotFound, "not_found", "expected /v1/shifts/{id}/offered")
		return
	}

	def, found := h.catalog.Get(shiftID)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "unknown shift: "+shiftID)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().UTC().Format("2006-01-02")
	}
	records, err := h.service.DayRecords(r.Context(), claims.Subject, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, OfferedResponse{
		Shift:   def.ID,
		Offered: shift.Offered(def, records),
	})
}

// AddPendingRequest is the payload for POST /v1/pending.
type AddPendingRequest struct {
	Title string `json:"title"`
	Note  string `json:"note"`
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req AddPendingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
		if err := h.board.Add(claims.Subject, req.Title, req.Note); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, PendingResponse{Items: h.board.Items(claims.Subject)})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, PendingResponse{Items: h.board.Items(claims.Subject)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) pendingItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	title := strings.TrimPrefix(r.URL.Path, "/v1/pending/")
	if title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing pending title")
		return
	}
	if !h.board.Remove(claims.Subject, title) {
		writeError(w, http.StatusNotFound, "not_found", "pending item not found")
		return
	}
	writeJSON(w, http.StatusOK, PendingResponse{Items: h.board.Items(claims.Subject)})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeRecordsRead, auth.ScopeRecordsWrite)
	if !ok {
		return
	}

	now := h.now().UTC()
	shiftID := r.URL.Query().Get("shift")
	if shiftID == "" {
		shiftID = shift.ForHour(now.Hour())
	}
	def, found := h.catalog.Get(shiftID)
	if !found {
		writeError(w, http.StatusBadRequest, "validation_failed", "unknown shift: "+shiftID)
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = now.Format("2006-01-02")
	}

	dayRecords, err := h.service.DayRecords(r.Context(), claims.Subject, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	active := make([]domain.ActivityRecord, 0)
	for _, rec := range dayRecords {
		if rec.Open() {
			active = append(active, rec)
		}
	}

	rep := report.Compile(claims.Operator(), def, date, dayRecords, active, h.board.Items(claims.Subject), now)

	writeJSON(w, http.StatusOK, ReportResponse{
		Operator:   rep.Operator.Name,
		Email:      rep.Operator.Email,
		Shift:      rep.Shift.ID,
		Date:       rep.Date,
		CompiledAt: rep.CompiledAt,
		Completed:  toRecordViews(rep.Completed),
		Active:     toRecordViews(rep.Active),
		Pending:    rep.Pending,
		Totals:     rep.Totals,
		Text:       rep.Render(),
	})
}

// requireScope resolves claims and checks that at least one of the scopes is
// granted, writing the error response otherwise.
func requireScope(w http.ResponseWriter, r *http.Request, scopes ...string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	for _, scope := range scopes {
		if claims.HasScope(scope) {
			return claims, true
		}
	}
	writeError(w, http.StatusForbidden, "forbidden", "scope "+scopes[0]+" required")
	return nil, false
}
