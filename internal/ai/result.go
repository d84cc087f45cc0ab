// Package ai is the inference-model collaborator used by the placement
// classifier and the event detail extractor. Absence of the model is a
// normal configuration state, not an error.
package ai

// Status is the availability outcome of one inference call.
type Status int

const (
	// StatusAvailable means the model produced a usable result.
	StatusAvailable Status = iota

	// StatusUnavailable means no model is configured.
	StatusUnavailable

	// StatusFailed means the call was attempted but produced nothing
	// usable (transport error, timeout, or an unusable reply).
	StatusFailed
)

// Result is the three-state outcome of an inference call. Modeling the
// fallback chain explicitly keeps each call site's degradation branch
// visible and testable without network access.
type Result[T any] struct {
	Status Status
	Value  T
	Reason string
}

// Available wraps a usable model result.
func Available[T any](v T) Result[T] {
	return Result[T]{Status: StatusAvailable, Value: v}
}

// Unavailable reports that no model is configured.
func Unavailable[T any]() Result[T] {
	return Result[T]{Status: StatusUnavailable, Reason: "inference unavailable"}
}

// Failed reports an attempted call that produced nothing usable.
func Failed[T any](reason string) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}
