package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTripRequest wraps validation failures of a TripRequest.
	ErrInvalidTripRequest = errors.New("invalid trip request")

	// ErrInvalidLocation means the route between start and end could not be resolved.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrMalformedRoute marks a route without steps or distance. Sampling
	// such a route yields no points rather than failing.
	ErrMalformedRoute = errors.New("malformed route")

	// ErrAggregationStall means a photo fan-in could not collect a group
	// for every coordinate.
	ErrAggregationStall = errors.New("photo aggregation stalled")

	// ErrPlannerUnavailable means trips cannot be queued for asynchronous
	// planning because no broker is connected.
	ErrPlannerUnavailable = errors.New("asynchronous planner unavailable")
)

// ProviderError is a failed call to a mapping or photo provider.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
