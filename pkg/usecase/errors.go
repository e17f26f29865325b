package usecase

import (
	"errors"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
)

// Sentinel errors for use case layer
var (
	// ErrValidation is returned for malformed input, before any store call
	ErrValidation = errors.New("validation error")

	// ErrIssueNotFound is returned when the referenced issue does not exist
	ErrIssueNotFound = errors.New("issue not found")

	// ErrConflict is returned for duplicate unique fields
	ErrConflict = interfaces.ErrAlreadyExists

	// ErrAuditDelivery is returned when an activity event was not acknowledged by the event log.
	// Issue operations never return it; it only reaches callers publishing activity directly.
	ErrAuditDelivery = activity.ErrDelivery
)

// Context keys for error values
const (
	IssueIDKey    = "issue_id"
	StatusIDKey   = "status_id"
	CategoryKey   = "category"
	LookupKindKey = "lookup_kind"
)
