package config

import "github.com/secmon-lab/trustflow/pkg/domain/types"

// LookupEntry is one seeded reference entity
type LookupEntry struct {
	ID          string
	Name        string
	Description string
	Order       int
	IsDefault   bool
}

// LookupSeed holds the reference entities created by the seed command
type LookupSeed struct {
	Statuses   []LookupEntry
	Priorities []LookupEntry
	Types      []LookupEntry
	Severities []LookupEntry
}

// ByKind returns the entries of kind
func (s *LookupSeed) ByKind(kind types.LookupKind) []LookupEntry {
	switch kind {
	case types.LookupKindStatus:
		return s.Statuses
	case types.LookupKindPriority:
		return s.Priorities
	case types.LookupKindType:
		return s.Types
	case types.LookupKindSeverity:
		return s.Severities
	default:
		return nil
	}
}

// DefaultLookupSeed returns the built-in reference data
func DefaultLookupSeed() *LookupSeed {
	return &LookupSeed{
		Statuses: []LookupEntry{
			{ID: "open", Name: "Open", Description: "Newly reported, not yet worked on.", Order: 1, IsDefault: true},
			{ID: "in-progress", Name: "In Progress", Description: "Being worked on.", Order: 2},
			{ID: "resolved", Name: "Resolved", Description: "Fixed, awaiting verification.", Order: 3},
			{ID: "closed", Name: "Closed", Description: "Verified or no longer relevant.", Order: 4},
		},
		Priorities: []LookupEntry{
			{ID: "critical", Name: "Critical", Description: "Blocks essential functionality.", Order: 1},
			{ID: "high", Name: "High", Description: "Significant impact, but not a complete block.", Order: 2},
			{ID: "medium", Name: "Medium", Description: "Standard priority, should be addressed in due course.", Order: 3, IsDefault: true},
			{ID: "low", Name: "Low", Description: "Minor impact, can be addressed later.", Order: 4},
		},
		Types: []LookupEntry{
			{ID: "bug", Name: "Bug", Description: "A defect or error in the software.", Order: 1, IsDefault: true},
			{ID: "feature-request", Name: "Feature Request", Description: "A new piece of functionality.", Order: 2},
			{ID: "task", Name: "Task", Description: "A unit of work to be done.", Order: 3},
			{ID: "improvement", Name: "Improvement", Description: "Enhancement to existing functionality.", Order: 4},
		},
		Severities: []LookupEntry{
			{ID: "blocker", Name: "Blocker", Description: "System completely unusable or core feature broken.", Order: 1},
			{ID: "major", Name: "Major", Description: "Major loss of function or critical data error.", Order: 2},
			{ID: "minor", Name: "Minor", Description: "Minor loss of function or UI defect.", Order: 3, IsDefault: true},
			{ID: "cosmetic", Name: "Cosmetic", Description: "Aesthetic issue, no functional impact.", Order: 4},
		},
	}
}
