package service

import "strings"

// Listing limits follow the public API defaults of the original catalog.
const (
	defaultListLimit = 10
	maxListLimit     = 1000000
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// validateEntityName enforces names usable as FQN segments: non-empty and
// dot-free, since the dot delimits hierarchy in fully-qualified names.
func validateEntityName(name string) []FieldError {
	var ferrs []FieldError
	if name == "" {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must not be empty"})
		return ferrs
	}
	if strings.Contains(name, ".") {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "must not contain '.'"})
	}
	if ln := len([]rune(name)); ln > 128 {
		ferrs = append(ferrs, FieldError{Field: "name", Message: "length must be at most 128"})
	}
	return ferrs
}

func isValidChartType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "line", "bar", "pie", "area", "table", "histogram", "scatter", "text", "other":
		return true
	default:
		return false
	}
}
