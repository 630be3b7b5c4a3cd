package report

import (
	"strconv"

	"example.com/shiftlog/internal/domain"
)

// Row is one flattened export line. The column order is fixed by the export
// collaborator contract: operator, email, activity, date, start, end,
// duration, state.
type Row struct {
	Operator        string
	Email           string
	Activity        string
	Date            string
	StartTime       string
	EndTime         string
	DurationMinutes int
	State           string
}

// ExportHeader returns the export column titles in contract order.
func ExportHeader() []string {
	return []string{"Operador", "Email", "Actividad", "Fecha", "Hora Inicio", "Hora Fin", "Duración (min)", "Estado"}
}

// ExportRows flattens records into export rows, preserving input order.
// Missing end times render as "-" and missing durations as 0, matching the
// historical spreadsheet output.
func ExportRows(records []domain.ActivityRecord) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := Row{
			Operator:  rec.OperatorName,
			Email:     rec.OperatorEmail,
			Activity:  rec.DisplayTitle(),
			Date:      rec.Date,
			StartTime: rec.StartedAt.Format("15:04"),
			EndTime:   "-",
			State:     string(rec.State),
		}
		if rec.EndedAt != nil {
			row.EndTime = rec.EndedAt.Format("15:04")
		}
		if rec.DurationMinutes != nil {
			row.DurationMinutes = *rec.DurationMinutes
		}
		rows = append(rows, row)
	}
	return rows
}

// Strings renders the row as CSV-ready cells in contract order.
func (r Row) Strings() []string {
	return []string{
		r.Operator,
		r.Email,
		r.Activity,
		r.Date,
		r.StartTime,
		r.EndTime,
		strconv.Itoa(r.DurationMinutes),
		r.State,
	}
}
