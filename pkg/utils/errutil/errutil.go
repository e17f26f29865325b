package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

// Handle logs the error with its goerr values and stack, and reports it to Sentry.
// Sentry reporting is a no-op unless sentry.Init has been called.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ctx, err, msg)
	return err
}

// HandleHTTP logs server side errors and writes the JSON error envelope.
// Client errors (4xx) are logged at warn level and not reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	if statusCode >= http.StatusInternalServerError {
		_ = Handle(ctx, err, "HTTP error")
	} else {
		logging.From(ctx).Warn("HTTP client error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": publicMessage(err, statusCode),
		"data":    nil,
	})
}

// publicMessage hides internal details of server side errors
func publicMessage(err error, statusCode int) string {
	if statusCode >= http.StatusInternalServerError {
		return http.StatusText(statusCode)
	}
	return err.Error()
}

func report(ctx context.Context, err error, msg string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)

		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("goerr", sentry.Context(ge.Values()))
		}
		hub.CaptureException(err)
	})
}
