package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"example.com/shiftlog/internal/auth"
	"example.com/shiftlog/internal/domain"
)

func adminClaims() *auth.Claims {
	return &auth.Claims{
		Subject: "admin-1",
		Email:   "cao@example.com",
		Name:    "CAO",
		Scopes: map[string]struct{}{
			auth.ScopeReportsAdmin: {},
		},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func seedAdminRepo(repo *mockRepo) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	mins := 45
	ended := day.Add(9*time.Hour + 45*time.Minute)
	repo.records["rec-1"] = domain.ActivityRecord{
		ID: "rec-1", OperatorID: "op-1", OperatorName: "Ana Torres", OperatorEmail: "ana@example.com",
		Name: "Atención tickets soporte", Shift: "dia", State: domain.StateCompleted,
		StartedAt: day.Add(9 * time.Hour), EndedAt: &ended, DurationMinutes: &mins,
		Date: "2025-03-10", CreatedAt: day.Add(9 * time.Hour),
	}
	repo.records["rec-2"] = domain.ActivityRecord{
		ID: "rec-2", OperatorID: "op-2", OperatorName: "Luis Mora", OperatorEmail: "luis@example.com",
		Name: "Revisión de logs", Shift: "dia", State: domain.StateInProgress,
		StartedAt: day.Add(10 * time.Hour), Date: "2025-03-10", CreatedAt: day.Add(10 * time.Hour),
	}
}

func TestAdminRecordsRequiresAdminScope(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	handler := testHandler(newMockRepo(), now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/records", nil), operatorClaims(auth.ScopeRecordsWrite))
	handler.adminRecords(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestAdminRecordsFiltersByOperator(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	seedAdminRepo(repo)
	handler := testHandler(repo, now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/records?operator=ana@example.com", nil), adminClaims())
	handler.adminRecords(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ListRecordsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].OperatorEmail != "ana@example.com" {
		t.Fatalf("unexpected filter result %v", resp.Items)
	}
}

func TestAdminRecordsPaginates(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	seedAdminRepo(repo)
	handler := testHandler(repo, now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/records?limit=1", nil), adminClaims())
	handler.adminRecords(rr, req)

	var first AdminRecordsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &first); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(first.Items) != 1 || first.Items[0].RecordID != "rec-2" {
		t.Fatalf("unexpected first page %v", first.Items)
	}
	if first.NextCursor == "" {
		t.Fatal("expected a next cursor on the first page")
	}

	rr = httptest.NewRecorder()
	req = withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/records?limit=1&cursor="+first.NextCursor, nil), adminClaims())
	handler.adminRecords(rr, req)

	var second AdminRecordsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &second); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].RecordID != "rec-1" {
		t.Fatalf("unexpected second page %v", second.Items)
	}
	if second.NextCursor != "" {
		t.Fatalf("expected exhausted cursor got %q", second.NextCursor)
	}
}

func TestAdminRecordsRejectsMalformedCursor(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	handler := testHandler(newMockRepo(), now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/records?cursor=%21%21not-base64", nil), adminClaims())
	handler.adminRecords(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestAdminWorkload(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	seedAdminRepo(repo)
	handler := testHandler(repo, now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/workload", nil), adminClaims())
	handler.adminWorkload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp WorkloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCount != 2 || resp.TotalMinutes != 45 || resp.DistinctOperators != 2 {
		t.Fatalf("unexpected summary %+v", resp)
	}

	monday := int(time.Monday)
	if resp.Heatmap[monday][9] != 1 {
		t.Fatalf("expected heatmap hit at Monday 09 got %d", resp.Heatmap[monday][9])
	}
	if resp.SeverityLevels[monday][9] != 1 {
		t.Fatalf("expected severity 1 got %d", resp.SeverityLevels[monday][9])
	}
}

func TestAdminExportCSV(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	seedAdminRepo(repo)
	handler := testHandler(repo, now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/export", nil), adminClaims())
	handler.adminExport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "Reporte_Actividades_2025-03-10.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}

	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows got %d", len(rows))
	}
	wantHeader := []string{"Operador", "Email", "Actividad", "Fecha", "Hora Inicio", "Hora Fin", "Duración (min)", "Estado"}
	if !reflect.DeepEqual(rows[0], wantHeader) {
		t.Fatalf("unexpected header %v", rows[0])
	}
	// Newest first: the open record keeps the placeholder end time.
	if rows[1][5] != "-" || rows[1][6] != "0" {
		t.Fatalf("unexpected open row %v", rows[1])
	}
}

func TestAdminOperators(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	seedAdminRepo(repo)
	handler := testHandler(repo, now)

	rr := httptest.NewRecorder()
	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/admin/operators", nil), adminClaims())
	handler.adminOperators(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp OperatorsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := []string{"ana@example.com", "luis@example.com"}
	if !reflect.DeepEqual(resp.Operators, want) {
		t.Fatalf("unexpected operators %v", resp.Operators)
	}
}
