package shift

import "example.com/shiftlog/internal/domain"

// CompletedBaseNames collects the base names of every completed record in the
// set, using the legacy title form so detail suffixes never split a catalog
// identity.
func CompletedBaseNames(records []domain.ActivityRecord) map[string]struct{} {
	out := make(map[string]struct{})
	for _, rec := range records {
		if !rec.Completed() {
			continue
		}
		out[domain.BaseName(rec.DisplayTitle())] = struct{}{}
	}
	return out
}

// IsOffered reports whether the named predefined activity can still be
// started today. An activity is hidden only when a completed record with a
// matching base name exists and the activity is not recurring.
func IsOffered(name string, records []domain.ActivityRecord, def Definition) bool {
	base := domain.BaseName(name)
	if def.IsRecurring(base) {
		return true
	}
	_, done := CompletedBaseNames(records)[base]
	return !done
}

// Offered filters the shift's predefined list down to the activities the
// operator can still press today, preserving catalog order.
func Offered(def Definition, records []domain.ActivityRecord) []string {
	out := make([]string, 0, len(def.Predefined))
	for _, name := range def.Predefined {
		if IsOffered(name, records, def) {
			out = append(out, name)
		}
	}
	return out
}
