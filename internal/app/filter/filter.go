// Package filter provides the admission chain applied to paths before they are queued.
package filter

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "not_regular_file", "unknown_format"
	Filter   string // name of the rejecting filter, set by Chain
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for path admission filters.
type Filter interface {
	// Name returns the filter name.
	Name() string
	// Check performs the filter check.
	Check(path string) Result
}
