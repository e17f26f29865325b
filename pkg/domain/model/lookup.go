package model

import (
	"time"

	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// Lookup is a reference entity (status, priority, type, severity or a user projection).
// Lookups are configured elsewhere; the issue core only reads them.
type Lookup struct {
	ID          string
	Kind        types.LookupKind
	Name        string
	Description string
	Order       int
	IsDefault   bool
	UpdatedAt   time.Time
}

// Lookup status names counted as closed in analytics
var closedStatusNames = map[string]struct{}{
	"Closed":   {},
	"Resolved": {},
}

// IsClosedStatus reports whether a status lookup represents a finished issue
func (x *Lookup) IsClosedStatus() bool {
	if x.Kind != types.LookupKindStatus {
		return false
	}
	_, ok := closedStatusNames[x.Name]
	return ok
}
