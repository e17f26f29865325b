package http

import (
	"net/http"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

func recentActivityHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := queryInt(r, "count", activity.DefaultTailCount)
		if err != nil {
			writeError(w, r, err)
			return
		}

		summaries, err := uc.Activity.RecentActivity(r.Context(), count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Recent activity received.", summaries)
	}
}

func sendActivityHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev model.ActivityEvent
		if err := decodeBody(r, &ev); err != nil {
			writeError(w, r, err)
			return
		}

		meta := model.RequestMetaFromContext(r.Context())
		if ev.UserID == "" {
			ev.UserID = meta.UserID
		}
		if ev.IPAddress == "" {
			ev.IPAddress = meta.IPAddress
		}
		if ev.UserAgent == "" {
			ev.UserAgent = meta.UserAgent
		}
		if ev.CorrelationID == "" {
			ev.CorrelationID = meta.CorrelationID
		}

		if err := uc.Activity.SendActivity(r.Context(), &ev); err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusAccepted, "Activity sent.", &ev)
	}
}

func fetchLogsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", usecase.DefaultLogLimit)
		if err != nil {
			writeError(w, r, err)
			return
		}

		logs, err := uc.Activity.FetchLogs(r.Context(), limit)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Logs fetched successfully", logs)
	}
}

func recentLogsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := queryInt(r, "count", activity.DefaultTailCount)
		if err != nil {
			writeError(w, r, err)
			return
		}

		summaries, err := uc.Activity.RecentLogs(r.Context(), count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "Recent activity fetched successfully", summaries)
	}
}

func userLogsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := queryInt(r, "count", usecase.DefaultUserLogCount)
		if err != nil {
			writeError(w, r, err)
			return
		}

		summaries, err := uc.Activity.UserLogs(r.Context(), r.URL.Query().Get("id"), count)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, r, http.StatusOK, "User recent activity fetched successfully", summaries)
	}
}
