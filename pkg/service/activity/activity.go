// Package activity publishes audit events to the activity topic and reads them back.
package activity

import "errors"

var (
	// ErrInvalidEvent is returned when an event misses required fields
	ErrInvalidEvent = errors.New("invalid activity event")

	// ErrDelivery is returned when the event log did not acknowledge an append
	ErrDelivery = errors.New("activity delivery failed")

	// ErrInvalidCount is returned by TailRecent for a non-positive count
	ErrInvalidCount = errors.New("count must be positive")
)

const (
	// DefaultTailCount is the number of records TailRecent reads when the caller does not specify one
	DefaultTailCount = 10
)
