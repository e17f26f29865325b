package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// ActivityEventID identifies a single activity event
type ActivityEventID string

// NewActivityEventID generates a new random ActivityEventID
func NewActivityEventID() ActivityEventID {
	return ActivityEventID(uuid.NewString())
}

// ActivityEvent is one append-only audit record. The JSON encoding is the wire format of the activity topic;
// field order follows the struct declaration. Empty optional fields are omitted.
type ActivityEvent struct {
	ID            ActivityEventID        `json:"id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	UserID        string                 `json:"userId,omitempty"`
	Category      types.ActivityCategory `json:"category"`
	EntityType    string                 `json:"entityType"`
	EntityID      string                 `json:"entityId,omitempty"`
	Action        types.ActivityAction   `json:"action"`
	OldValue      string                 `json:"oldValue,omitempty"`
	NewValue      string                 `json:"newValue,omitempty"`
	Description   string                 `json:"description"`
	IPAddress     string                 `json:"ipAddress,omitempty"`
	UserAgent     string                 `json:"userAgent,omitempty"`
	Source        string                 `json:"source"`
	Status        types.ActivityStatus   `json:"status"`
	CorrelationID string                 `json:"correlationId,omitempty"`
}

// Validate checks the fields required to publish the event
func (x *ActivityEvent) Validate() error {
	if x.Timestamp.IsZero() {
		return goerr.New("activity timestamp is required")
	}
	if x.Category == "" {
		return goerr.New("activity category is required")
	}
	if x.EntityType == "" {
		return goerr.New("activity entity type is required")
	}
	if x.Action == "" {
		return goerr.New("activity action is required")
	}
	if !x.Status.IsValid() {
		return goerr.New("invalid activity status", goerr.V("status", x.Status))
	}
	return nil
}

// ActivitySummary is a feed entry rendered for dashboards
type ActivitySummary struct {
	ID          ActivityEventID `json:"id,omitempty"`
	User        string          `json:"user"`
	Description string          `json:"description"`
	RelativeAge string          `json:"relativeAge"`
	Timestamp   time.Time       `json:"timestamp"`
}

// SystemUserName is shown for events without a resolvable user
const SystemUserName = "System"

// RelativeAge renders the elapsed time between t and now ("1 minute ago", "2 hours ago").
// Units are minutes, hours, days, months (30 days) and years (365 days); the plural form is used from 2 up.
func RelativeAge(now, t time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}

	minutes := diff.Minutes()
	hours := diff.Hours()
	days := hours / 24

	switch {
	case minutes < 60:
		return formatAge(minutes, "minute")
	case hours < 24:
		return formatAge(hours, "hour")
	case days < 30:
		return formatAge(days, "day")
	case days < 365:
		return formatAge(days/30, "month")
	default:
		return formatAge(days/365, "year")
	}
}

func formatAge(value float64, unit string) string {
	suffix := ""
	if value >= 2 {
		suffix = "s"
	}
	return fmt.Sprintf("%d %s%s ago", int(value), unit, suffix)
}
