// Package workload implements the admin-side record filter and the
// cross-operator aggregation views.
package workload

import "example.com/shiftlog/internal/domain"

// AllOperators is the sentinel the operator dropdown sends to disable the
// email predicate.
const AllOperators = "todos"

// Criteria holds the admin filter predicates. All present predicates are
// AND-combined. Date bounds are inclusive ISO dates (YYYY-MM-DD), compared
// as text.
type Criteria struct {
	OperatorEmail string
	DateFrom      string
	DateTo        string
}

func (c Criteria) filtersEmail() bool {
	return c.OperatorEmail != "" && c.OperatorEmail != AllOperators
}

func (c Criteria) empty() bool {
	return !c.filtersEmail() && c.DateFrom == "" && c.DateTo == ""
}

// Matches reports whether a single record passes every present predicate.
func (c Criteria) Matches(rec domain.ActivityRecord) bool {
	if c.filtersEmail() && rec.OperatorEmail != c.OperatorEmail {
		return false
	}
	if c.DateFrom != "" && rec.Date < c.DateFrom {
		return false
	}
	if c.DateTo != "" && rec.Date > c.DateTo {
		return false
	}
	return true
}

// Filter applies the criteria to a record collection, preserving order.
// Empty criteria return the input unchanged.
func Filter(records []domain.ActivityRecord, c Criteria) []domain.ActivityRecord {
	if c.empty() {
		return records
	}

	out := make([]domain.ActivityRecord, 0, len(records))
	for _, rec := range records {
		if c.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}
