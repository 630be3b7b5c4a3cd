package domain

import "strings"

// BaseName derives the catalog identity of a record title: everything before
// the first ':' separator, or the whole title when no separator is present.
// Validation-type titles keep their '#...#' wrap; the wrap is part of the
// catalog name, not a second encoding layer.
func BaseName(title string) string {
	if idx := strings.Index(title, ":"); idx >= 0 {
		return title[:idx]
	}
	return title
}

// EncodeTitle joins a catalog name and an optional detail into the legacy
// single-string title used by text reports and exports.
func EncodeTitle(name, detail string) string {
	if detail == "" {
		return name
	}
	return name + ": " + detail
}

// SplitTitle is the inverse of EncodeTitle for titles arriving from legacy
// callers that still send the combined form.
func SplitTitle(title string) (name, detail string) {
	idx := strings.Index(title, ":")
	if idx < 0 {
		return title, ""
	}
	return title[:idx], strings.TrimSpace(title[idx+1:])
}
