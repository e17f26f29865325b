package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/usecase"
	"github.com/secmon-lab/trustflow/pkg/utils/errutil"
	"github.com/secmon-lab/trustflow/pkg/utils/safe"
)

// response is the envelope of every API response
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeOK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	raw, err := json.Marshal(response{Success: true, Message: message, Data: data})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, raw)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

// statusOf maps error sentinels to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrValidation), errors.Is(err, interfaces.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrIssueNotFound), errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrStorageUnavailable), errors.Is(err, usecase.ErrAuditDelivery):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	defer safe.Close(r.Context(), r.Body)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(usecase.ErrValidation, "invalid request body", goerr.V("reason", err.Error()))
	}
	return nil
}

// queryInt reads a positive integer query parameter, returning def when it is absent
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, goerr.Wrap(usecase.ErrValidation, "query parameter must be a positive integer",
			goerr.V("name", name),
			goerr.V("value", raw))
	}
	return v, nil
}
