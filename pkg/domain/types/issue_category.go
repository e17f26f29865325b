package types

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// IssueCategory is the counter key used to mint human readable issue IDs (e.g. "BUG")
type IssueCategory string

var (
	categoryPattern   = regexp.MustCompile(`^[A-Z0-9]+(_[A-Z0-9]+)*$`)
	categorySeparator = regexp.MustCompile(`[^A-Z0-9]+`)
)

// NewIssueCategory derives a category from an issue type name.
// "Feature Request" becomes "FEATURE_REQUEST".
func NewIssueCategory(typeName string) IssueCategory {
	upper := strings.ToUpper(strings.TrimSpace(typeName))
	code := categorySeparator.ReplaceAllString(upper, "_")
	return IssueCategory(strings.Trim(code, "_"))
}

// Validate checks if the category is a non-empty upper-case code
func (c IssueCategory) Validate() error {
	if c == "" {
		return goerr.New("issue category cannot be empty")
	}
	if !categoryPattern.MatchString(string(c)) {
		return goerr.New("issue category must be upper-case alphanumeric with underscores", goerr.V("category", c))
	}
	return nil
}

// HumanID formats the identifier shown to users, e.g. "BUG-137"
func (c IssueCategory) HumanID(seq int64) string {
	return fmt.Sprintf("%s-%d", c, seq)
}

// String returns the string representation of IssueCategory
func (c IssueCategory) String() string {
	return string(c)
}
