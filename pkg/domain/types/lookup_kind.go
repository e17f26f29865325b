package types

import "github.com/m-mizutani/goerr/v2"

// LookupKind identifies one of the reference collections an issue points into
type LookupKind string

const (
	LookupKindStatus   LookupKind = "status"
	LookupKindPriority LookupKind = "priority"
	LookupKindType     LookupKind = "type"
	LookupKindSeverity LookupKind = "severity"
	LookupKindUser     LookupKind = "user"
)

// AllLookupKinds returns all lookup kinds
func AllLookupKinds() []LookupKind {
	return []LookupKind{
		LookupKindStatus,
		LookupKindPriority,
		LookupKindType,
		LookupKindSeverity,
		LookupKindUser,
	}
}

// IsValid checks if the lookup kind is known
func (k LookupKind) IsValid() bool {
	switch k {
	case LookupKindStatus,
		LookupKindPriority,
		LookupKindType,
		LookupKindSeverity,
		LookupKindUser:
		return true
	default:
		return false
	}
}

// String returns the string representation of the lookup kind
func (k LookupKind) String() string {
	return string(k)
}

// ParseLookupKind parses a string into a LookupKind
func ParseLookupKind(s string) (LookupKind, error) {
	kind := LookupKind(s)
	if !kind.IsValid() {
		return "", goerr.New("invalid lookup kind", goerr.V("kind", s))
	}
	return kind, nil
}
