package errutil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/utils/errutil"
)

func TestHandleHTTP(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
		t.Helper()
		var body map[string]any
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
		return body
	}

	t.Run("client error keeps message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("title is required"), http.StatusBadRequest)

		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
		body := decode(t, w)
		gt.Value(t, body["success"]).Equal(false)
		gt.Value(t, body["message"]).Equal("title is required")
	})

	t.Run("server error hides details", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := goerr.New("dial tcp 10.0.0.1:27017: refused", goerr.V("host", "10.0.0.1"))
		errutil.HandleHTTP(context.Background(), w, err, http.StatusServiceUnavailable)

		gt.Number(t, w.Code).Equal(http.StatusServiceUnavailable)
		gt.Value(t, decode(t, w)["message"]).Equal("Service Unavailable")
	})
}

func TestHandle(t *testing.T) {
	gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))

	err := goerr.New("failed")
	gt.Value(t, errutil.Handle(context.Background(), err, "wrapped")).Equal(err)
}

func TestHandleReportsValuesToSentry(t *testing.T) {
	var captured []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(ev *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			captured = append(captured, ev)
			return nil
		},
	})
	gt.NoError(t, err).Required()
	ctx := sentry.SetHubOnContext(context.Background(), sentry.NewHub(client, sentry.NewScope()))

	_ = errutil.Handle(ctx, goerr.New("failed to publish", goerr.V("topic", "trustflow-activity")), "delivery failed")

	gt.Array(t, captured).Length(1).Required()
	gt.Value(t, captured[0].Tags["message"]).Equal("delivery failed")
	gt.Value(t, captured[0].Contexts["goerr"]["topic"]).Equal("trustflow-activity")
}
