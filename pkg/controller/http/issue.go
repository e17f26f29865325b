package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

// issueRequest is the raw issue accepted by create and edit
type issueRequest struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ProjectID       string   `json:"projectId"`
	ReporterUserID  string   `json:"reporterUserId"`
	AssigneeUserIDs []string `json:"assigneeUserIds"`
	StatusID        string   `json:"statusId"`
	PriorityID      string   `json:"priorityId"`
	TypeID          string   `json:"typeId"`
	SeverityID      string   `json:"severityId"`
	LinkedIssueIDs  []string `json:"linkedIssues"`
}

func (x *issueRequest) toModel(r *http.Request) *model.Issue {
	issue := &model.Issue{
		Title:           x.Title,
		Description:     x.Description,
		ProjectID:       x.ProjectID,
		ReporterUserID:  x.ReporterUserID,
		AssigneeUserIDs: x.AssigneeUserIDs,
		StatusID:        x.StatusID,
		PriorityID:      x.PriorityID,
		TypeID:          x.TypeID,
		SeverityID:      x.SeverityID,
	}
	if issue.ReporterUserID == "" {
		issue.ReporterUserID = model.RequestMetaFromContext(r.Context()).UserID
	}
	for _, id := range x.LinkedIssueIDs {
		issue.LinkedIssueIDs = append(issue.LinkedIssueIDs, model.IssueID(id))
	}
	return issue
}

func listIssuesHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := usecase.IssueFilter{
			ProjectID:      q.Get("project_id"),
			ReporterUserID: q.Get("reporter_id"),
			AssigneeUserID: q.Get("assignee_id"),
			StatusID:       q.Get("status_id"),
		}

		views, err := uc.Issue.ListIssues(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issues retrieved successfully.", views)
	}
}

type userIssueRelation int

const (
	assigned userIssueRelation = iota
	reported
)

func userIssuesHandler(uc *usecase.UseCases, relation userIssueRelation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")

		var filter usecase.IssueFilter
		if relation == assigned {
			filter.AssigneeUserID = userID
		} else {
			filter.ReporterUserID = userID
		}

		views, err := uc.Issue.ListIssues(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issues retrieved successfully.", views)
	}
}

func getIssueHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := uc.Issue.GetIssue(r.Context(), model.IssueID(chi.URLParam(r, "id")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issue retrieved successfully.", view)
	}
}

func createIssueHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		view, err := uc.Issue.CreateIssue(r.Context(), req.toModel(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusCreated, "Issue raised successfully.", view)
	}
}

func editIssueHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req issueRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		issue := req.toModel(r)
		issue.ID = model.IssueID(chi.URLParam(r, "id"))

		view, err := uc.Issue.EditIssue(r.Context(), issue)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issue updated successfully.", view)
	}
}

func updateIssueStatusHandler(uc *usecase.UseCases) http.HandlerFunc {
	type request struct {
		StatusID string `json:"statusId"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		view, err := uc.Issue.UpdateIssueStatus(r.Context(), model.IssueID(chi.URLParam(r, "id")), req.StatusID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issue status updated successfully.", view)
	}
}

func deleteIssueHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := uc.Issue.DeleteIssue(r.Context(), model.IssueID(chi.URLParam(r, "id"))); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Issue deleted successfully.", nil)
	}
}

func projectAnalyticsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := uc.Issue.ProjectWiseAnalytics(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Project-wise analytics retrieved successfully.", stats)
	}
}

func userAnalyticsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := uc.Issue.UserWiseAnalytics(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "User-wise analytics retrieved successfully.", stats)
	}
}
