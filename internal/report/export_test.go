package report

import (
	"reflect"
	"testing"
	"time"

	"example.com/shiftlog/internal/domain"
)

func TestExportHeaderOrder(t *testing.T) {
	want := []string{"Operador", "Email", "Actividad", "Fecha", "Hora Inicio", "Hora Fin", "Duración (min)", "Estado"}
	if got := ExportHeader(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected header %v", got)
	}
}

func TestExportRows(t *testing.T) {
	started := time.Date(2025, time.March, 10, 9, 5, 0, 0, time.UTC)

	done := completed("Atención tickets soporte", "cola llena", "dia", 30, started)

	open := done
	open.State = domain.StateInProgress
	open.EndedAt = nil
	open.DurationMinutes = nil

	rows := ExportRows([]domain.ActivityRecord{done, open})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(rows))
	}

	want := []string{"Ana Torres", "ana@example.com", "Atención tickets soporte: cola llena", "2025-03-10", "09:05", "09:35", "30", "completed"}
	if got := rows[0].Strings(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected completed row %v", got)
	}

	// Open records keep the placeholder end time and a zero duration.
	wantOpen := []string{"Ana Torres", "ana@example.com", "Atención tickets soporte: cola llena", "2025-03-10", "09:05", "-", "0", "in_progress"}
	if got := rows[1].Strings(); !reflect.DeepEqual(got, wantOpen) {
		t.Fatalf("unexpected open row %v", got)
	}
}

func TestExportRowsPreserveInputOrder(t *testing.T) {
	started := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	records := []domain.ActivityRecord{
		completed("Revisión de logs", "", "dia", 5, started.Add(time.Hour)),
		completed("Atención tickets soporte", "", "dia", 10, started),
	}

	rows := ExportRows(records)
	if rows[0].Activity != "Revisión de logs" || rows[1].Activity != "Atención tickets soporte" {
		t.Fatalf("rows must follow input order, got %v", rows)
	}
}
