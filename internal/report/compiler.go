// Package report assembles point-in-time shift reports and the flat rows
// handed to the export collaborator.
package report

import (
	"fmt"
	"strings"
	"time"

	"example.com/shiftlog/internal/domain"
	"example.com/shiftlog/internal/handoff"
	"example.com/shiftlog/internal/shift"
)

// Totals summarises a compiled report. TotalMinutesToday deliberately spans
// every shift of the date, unlike the shift-scoped counts next to it.
type Totals struct {
	CompletedCount    int `json:"completed_count"`
	ActiveCount       int `json:"active_count"`
	PendingCount      int `json:"pending_count"`
	TotalMinutesToday int `json:"total_minutes_today"`
}

// ShiftReport is the structured snapshot handed to presentation and sharing.
type ShiftReport struct {
	Operator   domain.Operator
	Shift      shift.Definition
	Date       string
	CompiledAt time.Time
	Completed  []domain.ActivityRecord
	Active     []domain.ActivityRecord
	Pending    []handoff.Item
	Totals     Totals
}

// Compile builds a report for one operator and shift at a point in time.
// dateRecords are the operator's records for the date across all shifts;
// activeRecords are the operator's currently open records.
func Compile(operator domain.Operator, def shift.Definition, date string, dateRecords, activeRecords []domain.ActivityRecord, pending []handoff.Item, compiledAt time.Time) ShiftReport {
	rep := ShiftReport{
		Operator:   operator,
		Shift:      def,
		Date:       date,
		CompiledAt: compiledAt,
		Pending:    pending,
	}

	for _, rec := range dateRecords {
		if rec.Completed() && rec.Shift == def.ID && def.IsPredefined(domain.BaseName(rec.DisplayTitle())) {
			rep.Completed = append(rep.Completed, rec)
		}
		if rec.DurationMinutes != nil {
			rep.Totals.TotalMinutesToday += *rec.DurationMinutes
		}
	}

	for _, rec := range activeRecords {
		if rec.Open() && rec.Shift == def.ID {
			rep.Active = append(rep.Active, rec)
		}
	}

	rep.Totals.CompletedCount = len(rep.Completed)
	rep.Totals.ActiveCount = len(rep.Active)
	rep.Totals.PendingCount = len(pending)
	return rep
}

const emptyCompletedLine = "- Sin actividades completadas"

// Render produces the canonical text block shared with the next shift. The
// line order is part of the downstream copy/paste contract: header lines,
// then the completed section (always present, with a placeholder when
// empty), then active and pending sections only when non-empty.
func (r ShiftReport) Render() string {
	var b strings.Builder

	b.WriteString("Reporte de turno\n")
	fmt.Fprintf(&b, "Operador: %s (%s)\n", r.Operator.Name, r.Operator.Email)
	fmt.Fprintf(&b, "Turno: %s (%s)\n", r.Shift.DisplayName, r.Shift.TimeWindow)
	fmt.Fprintf(&b, "Fecha: %s\n", r.Date)
	fmt.Fprintf(&b, "Hora: %s\n", r.CompiledAt.Format("15:04"))

	b.WriteString("\nCompletadas:\n")
	if len(r.Completed) == 0 {
		b.WriteString(emptyCompletedLine + "\n")
	}
	for _, rec := range r.Completed {
		minutes := 0
		if rec.DurationMinutes != nil {
			minutes = *rec.DurationMinutes
		}
		fmt.Fprintf(&b, "- %s (%d min)\n", rec.DisplayTitle(), minutes)
	}

	if len(r.Active) > 0 {
		b.WriteString("\nEn curso:\n")
		for _, rec := range r.Active {
			fmt.Fprintf(&b, "- %s (%s desde %s)\n", rec.DisplayTitle(), stateLabel(rec), rec.StartedAt.Format("15:04"))
		}
	}

	if len(r.Pending) > 0 {
		b.WriteString("\nPendientes para el siguiente turno:\n")
		for _, item := range r.Pending {
			fmt.Fprintf(&b, "- %s\n  %s\n", item.Title, item.Note)
		}
	}

	fmt.Fprintf(&b, "\nTotal del día: %d min\n", r.Totals.TotalMinutesToday)
	return b.String()
}

func stateLabel(rec domain.ActivityRecord) string {
	if rec.State == domain.StatePaused {
		return "en pausa"
	}
	return "en progreso"
}
