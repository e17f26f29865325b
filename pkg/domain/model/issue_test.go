package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

func TestIssue_LookupIDs(t *testing.T) {
	issue := &model.Issue{
		ReporterUserID:  "u-reporter",
		AssigneeUserIDs: []string{"u-1", "", "u-2"},
		StatusID:        "st-open",
		PriorityID:      "",
		TypeID:          "ty-bug",
		SeverityID:      "sv-major",
	}

	gt.Array(t, issue.LookupIDs(types.LookupKindStatus)).Equal([]string{"st-open"})
	gt.Array(t, issue.LookupIDs(types.LookupKindPriority)).Length(0)
	gt.Array(t, issue.LookupIDs(types.LookupKindType)).Equal([]string{"ty-bug"})
	gt.Array(t, issue.LookupIDs(types.LookupKindSeverity)).Equal([]string{"sv-major"})
	gt.Array(t, issue.LookupIDs(types.LookupKindUser)).Equal([]string{"u-reporter", "u-1", "u-2"})
}

func TestIssue_Copy(t *testing.T) {
	orig := &model.Issue{
		ID:              model.NewIssueID(),
		AssigneeUserIDs: []string{"u-1"},
		LinkedIssueIDs:  []model.IssueID{"i-1"},
	}

	copied := orig.Copy()
	copied.AssigneeUserIDs[0] = "u-2"
	copied.LinkedIssueIDs[0] = "i-2"

	gt.Value(t, orig.AssigneeUserIDs[0]).Equal("u-1")
	gt.Value(t, orig.LinkedIssueIDs[0]).Equal(model.IssueID("i-1"))
	gt.Value(t, copied.ID).Equal(orig.ID)
}

func TestUniqueStrings(t *testing.T) {
	gt.Array(t, model.UniqueStrings([]string{"a", "b", "a", "", "c", "b"})).Equal([]string{"a", "b", "c"})
	gt.Array(t, model.UniqueStrings(nil)).Length(0)
}

func TestLookup_IsClosedStatus(t *testing.T) {
	gt.B(t, (&model.Lookup{Kind: types.LookupKindStatus, Name: "Closed"}).IsClosedStatus()).True()
	gt.B(t, (&model.Lookup{Kind: types.LookupKindStatus, Name: "Resolved"}).IsClosedStatus()).True()
	gt.B(t, (&model.Lookup{Kind: types.LookupKindStatus, Name: "In Progress"}).IsClosedStatus()).False()
	gt.B(t, (&model.Lookup{Kind: types.LookupKindPriority, Name: "Closed"}).IsClosedStatus()).False()
}
