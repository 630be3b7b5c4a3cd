package api

import (
	"encoding/csv"
	"net/http"
	"sort"
	"strconv"

	"example.com/shiftlog/internal/auth"
	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/persistence"
	"example.com/shiftlog/internal/report"
	"example.com/shiftlog/internal/workload"
)

// criteriaFromQuery reads the shared admin filter parameters. An operator
// value of "todos" means no email filter; date bounds are inclusive
// YYYY-MM-DD strings.
func criteriaFromQuery(r *http.Request) workload.Criteria {
	q := r.URL.Query()
	return workload.Criteria{
		OperatorEmail: q.Get("operator"),
		DateFrom:      q.Get("from"),
		DateTo:        q.Get("to"),
	}
}

func (h *Handler) filteredRecords(r *http.Request) ([]domain.ActivityRecord, error) {
	records, err := h.service.AllRecords(r.Context())
	if err != nil {
		return nil, err
	}
	return workload.Filter(records, criteriaFromQuery(r)), nil
}

// AdminRecordsResponse pages the admin table. NextCursor is empty on the
// last page.
type AdminRecordsResponse struct {
	Items      []RecordView `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func (h *Handler) adminRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeReportsAdmin); !ok {
		return
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "malformed cursor")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.filteredRecords(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, next := paginate(records, cursor, limit)
	writeJSON(w, http.StatusOK, AdminRecordsResponse{
		Items:      toRecordViews(page),
		NextCursor: persistence.EncodeCursor(next),
	})
}

// paginate applies keyset pagination over the newest-first record ordering.
// A nil cursor starts at the newest record; limit <= 0 returns everything
// after the cursor.
func paginate(records []domain.ActivityRecord, cursor *persistence.Cursor, limit int) ([]domain.ActivityRecord, *persistence.Cursor) {
	start := 0
	if cursor != nil {
		for start < len(records) {
			rec := records[start]
			if rec.CreatedAt.Before(cursor.CreatedAt) ||
				(rec.CreatedAt.Equal(cursor.CreatedAt) && rec.ID < cursor.ID) {
				break
			}
			start++
		}
	}

	rest := records[start:]
	if limit <= 0 || limit >= len(rest) {
		return rest, nil
	}

	page := rest[:limit]
	last := page[len(page)-1]
	return page, &persistence.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

func (h *Handler) adminWorkload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeReportsAdmin); !ok {
		return
	}

	records, err := h.filteredRecords(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary := workload.Aggregate(records)
	resp := WorkloadResponse{
		TotalCount:        summary.TotalCount,
		TotalMinutes:      summary.TotalMinutes,
		DistinctOperators: summary.DistinctOperators,
		Heatmap:           summary.Heatmap,
	}
	for day := range summary.Heatmap {
		for hour, count := range summary.Heatmap[day] {
			resp.SeverityLevels[day][hour] = workload.SeverityLevel(count)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) adminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeReportsAdmin); !ok {
		return
	}

	records, err := h.filteredRecords(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filename := "Reporte_Actividades_" + h.now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(report.ExportHeader()); err != nil {
		return
	}
	for _, row := range report.ExportRows(records) {
		if err := cw.Write(row.Strings()); err != nil {
			return
		}
	}
	cw.Flush()
}

// OperatorsResponse lists the distinct operator emails seen in the store,
// used to populate the admin filter dropdown.
type OperatorsResponse struct {
	Operators []string `json:"operators"`
}

func (h *Handler) adminOperators(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeReportsAdmin); !ok {
		return
	}

	records, err := h.service.AllRecords(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	seen := make(map[string]struct{})
	emails := make([]string, 0)
	for _, rec := range records {
		if rec.OperatorEmail == "" {
			continue
		}
		if _, ok := seen[rec.OperatorEmail]; ok {
			continue
		}
		seen[rec.OperatorEmail] = struct{}{}
		emails = append(emails, rec.OperatorEmail)
	}
	sort.Strings(emails)

	writeJSON(w, http.StatusOK, OperatorsResponse{Operators: emails})
}
